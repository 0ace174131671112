package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/pinecone-io/nvidia-rag/internal/dto"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/serverutils"
	"github.com/pinecone-io/nvidia-rag/internal/service"
)

type ICollectionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type collectionController struct {
	collectionService service.ICollectionService
}

func NewCollectionController(collectionService service.ICollectionService) ICollectionController {
	return &collectionController{
		collectionService: collectionService,
	}
}

func (c *collectionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/collection/v1")
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Delete(":name", c.Delete)
}

func (c *collectionController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateCollectionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.collectionService.Create(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrCollectionExists) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create collection", res))
}

func (c *collectionController) List(ctx *fiber.Ctx) error {
	res, err := c.collectionService.List(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list collections", res))
}

func (c *collectionController) Delete(ctx *fiber.Ctx) error {
	name := ctx.Params("name")

	err := c.collectionService.Delete(ctx.Context(), name)
	if err != nil {
		if errors.Is(err, service.ErrCollectionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete collection", name))
}
