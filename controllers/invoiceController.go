package controllers

import (
	"travel-backoffice/apperr"
	"travel-backoffice/middlewares"
	"travel-backoffice/models"
	"travel-backoffice/services"

	"github.com/gofiber/fiber/v2"
)

type InvoiceController struct {
	svc services.InvoiceService
}

func NewInvoiceController(svc services.InvoiceService) *InvoiceController {
	return &InvoiceController{svc: svc}
}

func paramKind(c *fiber.Ctx) (models.InvoiceKind, error) {
	kind := models.InvoiceKind(c.Params("kind"))
	if !kind.Valid() {
		return "", apperr.NewErrorf("invalid invoice kind %q", kind).
			WithHint("invoice kind must be payable or receivable").
			Mark(apperr.ErrValidation)
	}
	return kind, nil
}

// Generate handles POST /invoices/generate.
func (ctl *InvoiceController) Generate(c *fiber.Ctx) error {
	var req GenerateInvoicesRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := ctl.svc.GenerateInvoices(c.UserContext(), middlewares.CurrentIdentity(c).TenantID, req.BookingIDs)
	if err != nil {
		return err
	}
	return c.JSON(NewGenerateInvoicesResponse(res))
}

// MarkOverdue handles POST /invoices/overdue.
func (ctl *InvoiceController) MarkOverdue(c *fiber.Ctx) error {
	res, err := ctl.svc.MarkOverdue(c.UserContext(), middlewares.CurrentIdentity(c).TenantID)
	if err != nil {
		return err
	}
	return c.JSON(OverdueResponse{Payables: res.Payables, Receivables: res.Receivables})
}

// Get handles GET /invoices/:kind/:id.
func (ctl *InvoiceController) Get(c *fiber.Ctx) error {
	kind, err := paramKind(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	tenantID := middlewares.CurrentIdentity(c).TenantID

	if kind == models.InvoicePayable {
		inv, err := ctl.svc.GetPayable(c.UserContext(), tenantID, id)
		if err != nil {
			return err
		}
		return c.JSON(NewPayableInvoiceResponse(inv))
	}
	inv, err := ctl.svc.GetReceivable(c.UserContext(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(NewReceivableInvoiceResponse(inv))
}
