package controller

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pinecone-io/nvidia-rag/internal/dto"
	"github.com/pinecone-io/nvidia-rag/internal/pkg/serverutils"
	"github.com/pinecone-io/nvidia-rag/internal/service"
)

const defaultSummaryTimeout = 60 * time.Second

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Summary(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
	summaryService  service.ISummaryService
}

func NewDocumentController(
	documentService service.IDocumentService,
	summaryService service.ISummaryService,
) IDocumentController {
	return &documentController{
		documentService: documentService,
		summaryService:  summaryService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Post("upload", c.Upload)
	h.Get("", c.List)
	h.Delete("", c.Delete)
	h.Get("status/:taskId", c.Status)
	h.Get("summary", c.Summary)
}

// Upload accepts a multipart batch: a collection_name field plus one or
// more files under the "documents" key.
func (c *documentController) Upload(ctx *fiber.Ctx) error {
	collectionName := ctx.FormValue("collection_name")
	if collectionName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "collection_name is required")
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	fileHeaders := form.File["documents"]
	if len(fileHeaders) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "at least one file is required under 'documents'")
	}

	files := make([]service.UploadFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			return err
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return err
		}
		files = append(files, service.UploadFile{Name: fh.Filename, Content: content})
	}

	res, err := c.documentService.Upload(ctx.Context(), collectionName, files)
	if err != nil {
		if errors.Is(err, service.ErrCollectionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Upload accepted", res))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	collectionName := ctx.Query("collection_name")
	if collectionName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "collection_name is required")
	}

	res, err := c.documentService.List(ctx.Context(), collectionName)
	if err != nil {
		if errors.Is(err, service.ErrCollectionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	var req dto.DeleteDocumentsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.documentService.Delete(ctx.Context(), &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete documents", req.DocumentNames))
}

func (c *documentController) Status(ctx *fiber.Ctx) error {
	taskId := ctx.Params("taskId")

	res, err := c.documentService.Status(ctx.Context(), taskId)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get task status", res))
}

// Summary returns the generated summary of one ingested document. With
// blocking=true it waits for an in-flight ingestion up to timeout seconds.
func (c *documentController) Summary(ctx *fiber.Ctx) error {
	collectionName := ctx.Query("collection_name")
	documentName := ctx.Query("document_name")
	if collectionName == "" || documentName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "collection_name and document_name are required")
	}

	blocking := ctx.QueryBool("blocking", false)
	timeout := defaultSummaryTimeout
	if secs := ctx.QueryInt("timeout", 0); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	res, err := c.summaryService.GetSummary(ctx.Context(), collectionName, documentName, blocking, timeout)
	if err != nil {
		if errors.Is(err, service.ErrSummaryNotReady) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get summary", res))
}
