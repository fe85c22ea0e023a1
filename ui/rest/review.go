package rest

import (
	domainReview "github.com/AzielCF/az-post/domains/review"
	domainSchedule "github.com/AzielCF/az-post/domains/schedule"
	pkgError "github.com/AzielCF/az-post/pkg/error"
	"github.com/gofiber/fiber/v2"
)

// Review serves the public, token-scoped review surface. Unlike the
// authenticated API it answers with bare JSON objects (no envelope): the
// review page is consumed by external frontends that depend on the exact
// field layout.
type Review struct {
	Service domainReview.IReviewUsecase
}

func InitRestReview(app fiber.Router, service domainReview.IReviewUsecase) Review {
	rest := Review{Service: service}
	app.Get("/review", rest.GetSchedule)
	app.Post("/review", rest.Submit)
	app.Post("/review/verify-email", rest.VerifyEmail)
	return rest
}

func reviewError(c *fiber.Ctx, err error) error {
	status := 500
	switch typed := err.(type) {
	case pkgError.GenericError:
		status = typed.StatusCode()
	default:
		if err == domainSchedule.ErrTokenNotFound || err == domainSchedule.ErrScheduleNotFound {
			status = 404
		}
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (controller *Review) GetSchedule(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(400).JSON(fiber.Map{"error": "token query parameter is required"})
	}

	snapshot, err := controller.Service.GetScheduleForReview(c.UserContext(), token, c.Query("email"))
	if err != nil {
		return reviewError(c, err)
	}

	return c.JSON(snapshot)
}

func (controller *Review) Submit(c *fiber.Ctx) error {
	var request domainReview.SubmitRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	outcome, err := controller.Service.SubmitReview(c.UserContext(), request)
	if err != nil {
		return reviewError(c, err)
	}

	return c.JSON(outcome)
}

func (controller *Review) VerifyEmail(c *fiber.Ctx) error {
	var request struct {
		Token string `json:"token"`
		Email string `json:"email"`
	}
	if err := c.BodyParser(&request); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	result, err := controller.Service.VerifyReviewerEmail(c.UserContext(), request.Token, request.Email)
	if err != nil {
		return reviewError(c, err)
	}

	return c.JSON(result)
}
