package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/pinecone-io/nvidia-rag/internal/dto"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/serverutils"
	"github.com/pinecone-io/nvidia-rag/internal/service"
	"github.com/pinecone-io/nvidia-rag/pkg/rag/decompose"
)

type IGenerationController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
}

type generationController struct {
	generationService service.IGenerationService
}

func NewGenerationController(generationService service.IGenerationService) IGenerationController {
	return &generationController{
		generationService: generationService,
	}
}

func (c *generationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/generate/v1")
	h.Post("", c.Generate)
}

// Generate answers a chat request as a server-sent event stream of
// chat-completion chunks.
func (c *generationController) Generate(ctx *fiber.Ctx) error {
	var req dto.GenerateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// The stream outlives this handler; the fiber context is recycled once
	// we return, so the run gets its own context cancelled by the writer.
	streamCtx, cancel := context.WithCancel(context.Background())

	stream, err := c.generationService.Generate(streamCtx, &req)
	if err != nil {
		cancel()
		if errors.Is(err, decompose.ErrNoRetriever) || errors.Is(err, service.ErrEmptyQuery) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for chunk := range stream {
			data, err := json.Marshal(chunk)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				// client went away
				return
			}
		}
	}))

	return nil
}
