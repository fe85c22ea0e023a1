package rest

import (
	domainReview "github.com/AzielCF/az-post/domains/review"
	domainSchedule "github.com/AzielCF/az-post/domains/schedule"
	"github.com/AzielCF/az-post/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Schedule struct {
	Service       domainSchedule.IScheduleUsecase
	ReviewService domainReview.IReviewUsecase
}

func InitRestSchedule(app fiber.Router, service domainSchedule.IScheduleUsecase, reviewService domainReview.IReviewUsecase) Schedule {
	rest := Schedule{Service: service, ReviewService: reviewService}
	app.Post("/schedules", rest.Create)
	app.Get("/schedules", rest.List)
	app.Get("/schedules/dates", rest.DatesForMonth)
	app.Get("/schedules/occurrences", rest.OccurrencesForDate)
	app.Get("/schedules/preview", rest.Preview)
	app.Post("/schedules/:id/update", rest.Update)
	app.Post("/schedules/:id/activate", rest.Activate)
	app.Post("/schedules/:id/deactivate", rest.Deactivate)
	app.Delete("/schedules/:id", rest.Delete)
	app.Get("/schedules/:id/approval-status", rest.ApprovalStatus)
	return rest
}

func (controller *Schedule) Create(c *fiber.Ctx) error {
	var request domainSchedule.CreateScheduleRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	result, err := controller.Service.Create(c.UserContext(), ownerID(c), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: result.Message,
		Results: result,
	})
}

func (controller *Schedule) List(c *fiber.Ctx) error {
	schedules, err := controller.Service.List(c.UserContext(), ownerID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch scheduled posts",
		Results: schedules,
	})
}

func (controller *Schedule) Update(c *fiber.Ctx) error {
	var request domainSchedule.UpdateScheduleRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	schedule, err := controller.Service.Update(c.UserContext(), ownerID(c), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Schedule updated successfully",
		Results: schedule,
	})
}

func (controller *Schedule) Activate(c *fiber.Ctx) error {
	err := controller.Service.Activate(c.UserContext(), ownerID(c), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Schedule activated successfully",
	})
}

func (controller *Schedule) Deactivate(c *fiber.Ctx) error {
	err := controller.Service.Deactivate(c.UserContext(), ownerID(c), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Schedule deactivated successfully",
	})
}

func (controller *Schedule) Delete(c *fiber.Ctx) error {
	err := controller.Service.Delete(c.UserContext(), ownerID(c), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Schedule deleted successfully",
	})
}

func (controller *Schedule) ApprovalStatus(c *fiber.Ctx) error {
	status, err := controller.ReviewService.ApprovalStatus(c.UserContext(), ownerID(c), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch approval status",
		Results: status,
	})
}

func (controller *Schedule) DatesForMonth(c *fiber.Ctx) error {
	year := c.QueryInt("year")
	month := c.QueryInt("month")
	if year == 0 || month < 1 || month > 12 {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: "year and month query parameters are required",
		})
	}

	dates, err := controller.Service.ScheduledDatesForMonth(c.UserContext(), ownerID(c), year, month)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch scheduled dates",
		Results: fiber.Map{"dates": dates},
	})
}

func (controller *Schedule) OccurrencesForDate(c *fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: "date query parameter is required (YYYY-MM-DD)",
		})
	}

	occurrences, err := controller.Service.OccurrencesForDate(c.UserContext(), ownerID(c), date)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch occurrences",
		Results: fiber.Map{"occurrences": occurrences},
	})
}

func (controller *Schedule) Preview(c *fiber.Ctx) error {
	cronExpr := c.Query("cron")
	if cronExpr == "" {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: "cron query parameter is required",
		})
	}

	occurrences := controller.Service.PreviewOccurrences(cronExpr, c.QueryInt("count", 30))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success preview occurrences",
		Results: fiber.Map{"occurrences": occurrences},
	})
}
