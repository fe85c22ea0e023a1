package rest

import (
	"github.com/AzielCF/az-post/config"
	"github.com/AzielCF/az-post/pkg/postworker"
	"github.com/AzielCF/az-post/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Pool *postworker.Pool
}

func InitRestHealth(app fiber.Router, pool *postworker.Pool) Health {
	rest := Health{Pool: pool}
	app.Get("/health", rest.Status)
	return rest
}

func (controller *Health) Status(c *fiber.Ctx) error {
	results := fiber.Map{
		"version": config.AppVersion,
	}
	if controller.Pool != nil {
		results["executor_pool"] = controller.Pool.GetStats()
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Service is healthy",
		Results: results,
	})
}
