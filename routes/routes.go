package routes

import (
	"github.com/gofiber/fiber/v2"

	"travel-backoffice/config"
	"travel-backoffice/controllers"
	"travel-backoffice/idempotency"
	"travel-backoffice/middlewares"
	"travel-backoffice/ratelimit"
)

// Deps is everything the route table needs.
type Deps struct {
	Resolver    middlewares.TenantResolver
	Limiter     ratelimit.Limiter
	Idempotency idempotency.Store
	Limits      config.ActionLimits

	Bookings *controllers.BookingController
	Invoices *controllers.InvoiceController
	Payments *controllers.PaymentController
}

// Register wires all HTTP routes.
func Register(app *fiber.App, d Deps) {
	api := app.Group("/api")

	// Every endpoint is tenant scoped.
	protected := api.Group("")
	protected.Use(middlewares.Authenticate(d.Resolver))

	// Rate limit before idempotency so replays still count against the budget.
	read := middlewares.RateLimit(d.Limiter, middlewares.ActionRead, d.Limits.Read)
	create := middlewares.RateLimit(d.Limiter, middlewares.ActionCreate, d.Limits.Create)
	update := middlewares.RateLimit(d.Limiter, middlewares.ActionUpdate, d.Limits.Update)
	payment := middlewares.RateLimit(d.Limiter, middlewares.ActionPayment, d.Limits.Payment)

	idem := middlewares.Idempotency(d.Idempotency, middlewares.IdempotencyConfig{})
	idemRequired := middlewares.Idempotency(d.Idempotency, middlewares.IdempotencyConfig{Required: true})

	// Bookings
	protected.Post("/bookings", create, idemRequired, d.Bookings.Create)
	protected.Get("/bookings", read, d.Bookings.List)
	protected.Get("/bookings/:id", read, d.Bookings.Get)
	protected.Patch("/bookings/:id", update, idem, d.Bookings.UpdateStatus)
	protected.Get("/bookings/:id/cancellation-quote", read, d.Bookings.CancellationQuote)

	// Invoices
	protected.Post("/invoices/generate", create, idem, d.Invoices.Generate)
	protected.Post("/invoices/overdue", update, idem, d.Invoices.MarkOverdue)
	protected.Get("/invoices/:kind/:id", read, d.Invoices.Get)

	// Payments
	protected.Post("/invoices/:kind/:id/payments", payment, idem, d.Payments.Record)
	protected.Get("/invoices/:kind/:id/payments", read, d.Payments.List)
}
