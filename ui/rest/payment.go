package rest

import (
	domainPayment "github.com/AzielCF/az-post/domains/payment"
	"github.com/AzielCF/az-post/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Payment struct {
	Service domainPayment.IPaymentUsecase
}

func InitRestPayment(app fiber.Router, service domainPayment.IPaymentUsecase) Payment {
	rest := Payment{Service: service}
	app.Get("/payments/status", rest.Status)
	app.Post("/payments/record", rest.Record)
	app.Get("/payments", rest.List)
	return rest
}

func (controller *Payment) Status(c *fiber.Ctx) error {
	service := c.Query("service", domainPayment.ServiceLinkedInPost)

	status, err := controller.Service.CheckPaymentStatus(c.UserContext(), ownerID(c), service)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch payment status",
		Results: status,
	})
}

func (controller *Payment) Record(c *fiber.Ctx) error {
	var request domainPayment.RecordPaymentRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	payment, err := controller.Service.RecordPayment(c.UserContext(), ownerID(c), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Payment recorded successfully",
		Results: payment,
	})
}

func (controller *Payment) List(c *fiber.Ctx) error {
	payments, err := controller.Service.ListPayments(c.UserContext(), ownerID(c), c.QueryInt("limit", 50))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch payments",
		Results: payments,
	})
}
