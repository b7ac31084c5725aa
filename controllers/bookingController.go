package controllers

import (
	"strconv"
	"time"

	"travel-backoffice/apperr"
	"travel-backoffice/database"
	"travel-backoffice/middlewares"
	"travel-backoffice/models"
	"travel-backoffice/repository"
	"travel-backoffice/services"
	"travel-backoffice/utils"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type BookingController struct {
	svc services.BookingService
}

func NewBookingController(svc services.BookingService) *BookingController {
	return &BookingController{svc: svc}
}

// paramID reads a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperr.NewErrorf("invalid %s %q", name, c.Params(name)).
			WithHintf("%s must be a positive integer", name).
			Mark(apperr.ErrValidation)
	}
	return uint(id), nil
}

// Create handles POST /bookings.
func (ctl *BookingController) Create(c *fiber.Ctx) error {
	var req CreateBookingRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	id := middlewares.CurrentIdentity(c)

	b, err := ctl.svc.CreateBookingFromQuotation(c.UserContext(), id.TenantID, req.QuotationID)
	if err != nil {
		// An unusable quotation is a bad request on this endpoint.
		if errors.IsAny(err, apperr.ErrNotFound, apperr.ErrAlreadyAccepted, apperr.ErrNotAcceptable) {
			return apperr.WithStatus(err, fiber.StatusBadRequest)
		}
		return err
	}

	c.Location("/api/bookings/" + strconv.FormatUint(uint64(b.ID), 10))
	return c.Status(fiber.StatusCreated).JSON(NewBookingResponse(b))
}

// List handles GET /bookings?page=&page_size=&sort=&order=&status=.
func (ctl *BookingController) List(c *fiber.Ctx) error {
	id := middlewares.CurrentIdentity(c)
	params := database.NewListParams(
		utils.ParseIntDefault(c.Query("page"), 1),
		utils.ParseIntDefault(c.Query("page_size"), database.DefaultPageSize),
		c.Query("sort"),
		c.Query("order"),
		repository.BookingSortColumns,
		"created_at",
	)
	filter := repository.BookingFilter{Status: models.BookingStatus(c.Query("status"))}

	items, total, err := ctl.svc.ListBookings(c.UserContext(), id.TenantID, filter, params)
	if err != nil {
		return err
	}
	return c.JSON(ListResponse[BookingResponse]{
		Items: lo.Map(items, func(b models.Booking, _ int) BookingResponse {
			return NewBookingResponse(&b)
		}),
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

func (ctl *BookingController) Get(c *fiber.Ctx) error {
	bookingID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	b, err := ctl.svc.GetBooking(c.UserContext(), middlewares.CurrentIdentity(c).TenantID, bookingID)
	if err != nil {
		return err
	}
	return c.JSON(NewBookingResponse(b))
}

// UpdateStatus handles PATCH /bookings/:id.
func (ctl *BookingController) UpdateStatus(c *fiber.Ctx) error {
	bookingID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateBookingStatusRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	b, err := ctl.svc.UpdateBookingStatus(c.UserContext(), middlewares.CurrentIdentity(c).TenantID, bookingID, models.BookingStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(NewBookingResponse(b))
}

// CancellationQuote handles GET /bookings/:id/cancellation-quote?date=YYYY-MM-DD.
func (ctl *BookingController) CancellationQuote(c *fiber.Ctx) error {
	bookingID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var date time.Time
	if raw := c.Query("date"); raw != "" {
		date, err = time.Parse(dateLayout, raw)
		if err != nil {
			return apperr.WithError(err).
				WithHint("date must be formatted as YYYY-MM-DD").
				Mark(apperr.ErrValidation)
		}
	}
	q, err := ctl.svc.CancellationQuote(c.UserContext(), middlewares.CurrentIdentity(c).TenantID, bookingID, date)
	if err != nil {
		return err
	}
	return c.JSON(NewCancellationQuoteResponse(q))
}
