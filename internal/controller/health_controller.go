package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pinecone-io/nvidia-rag/internal/pkg/serverutils"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Check(ctx *fiber.Ctx) error
}

type healthController struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewHealthController(db *gorm.DB, rdb *redis.Client) IHealthController {
	return &healthController{
		db:  db,
		rdb: rdb,
	}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Check)
}

func (c *healthController) Check(ctx *fiber.Ctx) error {
	status := fiber.Map{
		"service":  "rag-server",
		"database": "ok",
		"cache":    "ok",
	}
	healthy := true

	if sqlDB, err := c.db.DB(); err != nil || sqlDB.PingContext(ctx.Context()) != nil {
		status["database"] = "unreachable"
		healthy = false
	}

	if c.rdb != nil {
		if err := c.rdb.Ping(ctx.Context()).Err(); err != nil {
			status["cache"] = "unreachable"
			healthy = false
		}
	}

	if !healthy {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.FailureResponse("degraded"))
	}
	return ctx.JSON(serverutils.SuccessResponse("healthy", status))
}
