package controllers

import (
	"time"

	"travel-backoffice/middlewares"
	"travel-backoffice/models"
	"travel-backoffice/services"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type PaymentController struct {
	svc services.PaymentService
}

func NewPaymentController(svc services.PaymentService) *PaymentController {
	return &PaymentController{svc: svc}
}

// Record handles POST /invoices/:kind/:id/payments.
func (ctl *PaymentController) Record(c *fiber.Ctx) error {
	kind, err := paramKind(c)
	if err != nil {
		return err
	}
	invoiceID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req RecordPaymentRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	// Format already checked by the datetime validator.
	date, _ := time.Parse(dateLayout, req.PaymentDate)

	id := middlewares.CurrentIdentity(c)
	res, err := ctl.svc.RecordPayment(c.UserContext(), id.TenantID, id.UserID, kind, invoiceID, services.PaymentInput{
		Amount:    req.PaymentAmount,
		Currency:  req.PaymentCurrency,
		Method:    req.PaymentMethod,
		Reference: req.PaymentReference,
		Notes:     req.Notes,
		Date:      date,
	})
	if err != nil {
		return err
	}
	return c.JSON(NewRecordPaymentResponse(res))
}

// List handles GET /invoices/:kind/:id/payments.
func (ctl *PaymentController) List(c *fiber.Ctx) error {
	kind, err := paramKind(c)
	if err != nil {
		return err
	}
	invoiceID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	payments, err := ctl.svc.ListPayments(c.UserContext(), middlewares.CurrentIdentity(c).TenantID, kind, invoiceID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"items": lo.Map(payments, func(p models.InvoicePayment, _ int) PaymentResponse {
			return NewPaymentResponse(p)
		}),
	})
}
