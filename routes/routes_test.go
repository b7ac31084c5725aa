package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"travel-backoffice/apperr"
	"travel-backoffice/config"
	"travel-backoffice/controllers"
	"travel-backoffice/exchange"
	"travel-backoffice/idempotency"
	"travel-backoffice/logger"
	"travel-backoffice/middlewares"
	"travel-backoffice/models"
	"travel-backoffice/ratelimit"
	"travel-backoffice/services"
	"travel-backoffice/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

const testToken = "Bearer test-token"

type APISuite struct {
	suite.Suite
	db     *testutil.MemDB
	app    *fiber.App
	limits config.ActionLimits
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.db = testutil.NewMemDB()
	s.limits = config.ActionLimits{
		Read:    config.Limit{Max: 100, Window: time.Hour},
		Create:  config.Limit{Max: 50, Window: time.Hour},
		Update:  config.Limit{Max: 50, Window: time.Hour},
		Payment: config.Limit{Max: 20, Window: time.Hour},
	}
	s.build()
}

func (s *APISuite) build() {
	repos := s.db.Repositories()
	p := services.Params{
		Logger:             logger.NewNop(),
		Tx:                 s.db,
		QuotationRepo:      repos.Quotations,
		BookingRepo:        repos.Bookings,
		SupplierRepo:       repos.Suppliers,
		InvoiceRepo:        repos.Invoices,
		PaymentRepo:        repos.Payments,
		Locker:             exchange.NewLocker(exchange.StaticSource{}),
		SettlementCurrency: "EUR",
		Now:                testutil.FixedClock(time.Date(2025, 3, 5, 10, 30, 0, 0, time.UTC)),
		Rand:               testutil.NewSequenceRand(12345, 23456, 34567),
	}

	resolver := middlewares.ResolverFunc(func(c *fiber.Ctx) (middlewares.Identity, error) {
		if c.Get(fiber.HeaderAuthorization) != testToken {
			return middlewares.Identity{}, apperr.NewError("bad token").
				WithHint("missing or invalid bearer token").
				Mark(apperr.ErrUnauthorized)
		}
		return middlewares.Identity{TenantID: testutil.TenantID, UserID: testutil.UserID}, nil
	})

	s.app = fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	s.app.Use(middlewares.RequestIDs())
	s.app.Use(middlewares.AccessLog(logger.NewNop()))
	Register(s.app, Deps{
		Resolver:    resolver,
		Limiter:     ratelimit.NewMemoryLimiter(),
		Idempotency: idempotency.NewMemoryStore(24 * time.Hour),
		Limits:      s.limits,
		Bookings:    controllers.NewBookingController(services.NewBookingService(p)),
		Invoices:    controllers.NewInvoiceController(services.NewInvoiceService(p)),
		Payments:    controllers.NewPaymentController(services.NewPaymentService(p)),
	})
}

type apiResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

func (s *APISuite) do(method, path, body string, headers map[string]string) apiResponse {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, testToken)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return apiResponse{Status: resp.StatusCode, Header: resp.Header, Body: raw}
}

func (s *APISuite) decode(raw []byte, dst interface{}) {
	s.Require().NoError(json.Unmarshal(raw, dst), string(raw))
}

type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func (s *APISuite) errorCode(raw []byte) string {
	var env errorEnvelope
	s.decode(raw, &env)
	return env.Error.Code
}

func (s *APISuite) seedQuotation() *models.Quotation {
	hotel, transport := s.db.SeedSuppliers()
	return s.db.SeedTripQuotation(hotel.Id, transport.Id)
}

func (s *APISuite) createBooking(quotationID uint, key string) apiResponse {
	return s.do(http.MethodPost, "/api/bookings",
		fmt.Sprintf(`{"quotation_id":%d}`, quotationID),
		map[string]string{middlewares.IdempotencyHeader: key})
}

func (s *APISuite) TestCreateBooking() {
	q := s.seedQuotation()

	res := s.createBooking(q.ID, "key-1")
	s.Equal(http.StatusCreated, res.Status, string(res.Body))

	var b controllers.BookingResponse
	s.decode(res.Body, &b)
	s.Equal("BK-20250305-12345", b.BookingNumber)
	s.Equal("confirmed", b.Status)
	s.Equal(int64(19800), b.TotalAmount.AmountMinor)
	s.Equal("EUR", b.TotalAmount.Currency)
	s.Equal("/api/bookings/"+strconv.FormatUint(uint64(b.ID), 10), res.Header.Get(fiber.HeaderLocation))
	s.NotEmpty(res.Header.Get(middlewares.RequestIDHeader))
}

func (s *APISuite) TestCreateBookingReplayIsByteIdentical() {
	q := s.seedQuotation()

	first := s.createBooking(q.ID, "replay-key")
	second := s.createBooking(q.ID, "replay-key")

	s.Equal(http.StatusCreated, first.Status)
	s.Equal(first.Status, second.Status)
	s.Equal(first.Body, second.Body)
	s.Equal(first.Header.Get(fiber.HeaderLocation), second.Header.Get(fiber.HeaderLocation))
	s.Empty(first.Header.Get(middlewares.ReplayedHeader))
	s.Equal("true", second.Header.Get(middlewares.ReplayedHeader))
	s.Len(s.db.Bookings(), 1)
}

func (s *APISuite) TestCreateBookingNewKeyConflictsAsBadRequest() {
	q := s.seedQuotation()

	s.Equal(http.StatusCreated, s.createBooking(q.ID, "a").Status)

	res := s.createBooking(q.ID, "b")
	s.Equal(http.StatusBadRequest, res.Status)
	s.Equal("QUOTATION_ALREADY_ACCEPTED", s.errorCode(res.Body))
	s.Len(s.db.Bookings(), 1)
}

func (s *APISuite) TestCreateBookingRequiresKey() {
	q := s.seedQuotation()

	res := s.do(http.MethodPost, "/api/bookings", fmt.Sprintf(`{"quotation_id":%d}`, q.ID), nil)
	s.Equal(http.StatusBadRequest, res.Status)
	s.Equal("VALIDATION_ERROR", s.errorCode(res.Body))
	s.Empty(s.db.Bookings())
}

func (s *APISuite) TestKeyReuseWithDifferentBody() {
	q := s.seedQuotation()

	s.Equal(http.StatusCreated, s.createBooking(q.ID, "k").Status)

	res := s.createBooking(q.ID+1000, "k")
	s.Equal(http.StatusConflict, res.Status)
	s.Equal("IDEMPOTENCY_KEY_REUSED", s.errorCode(res.Body))
}

func (s *APISuite) TestValidationErrorIsStoredAndReplayed() {
	first := s.createBooking(0, "bad")
	s.Equal(http.StatusBadRequest, first.Status)

	var env errorEnvelope
	s.decode(first.Body, &env)
	s.Equal("VALIDATION_ERROR", env.Error.Code)
	s.Equal("required", env.Error.Details["quotation_id"])
	s.NotEmpty(env.RequestID)

	second := s.createBooking(0, "bad")
	s.Equal(first.Body, second.Body)
	s.Equal("true", second.Header.Get(middlewares.ReplayedHeader))
}

func (s *APISuite) TestCreateBookingUnknownQuotation() {
	res := s.createBooking(999, "unknown")
	s.Equal(http.StatusBadRequest, res.Status)
	s.Equal("NOT_FOUND", s.errorCode(res.Body))
}

func (s *APISuite) TestCreateBookingRejectedQuotation() {
	q := s.seedQuotation()
	s.Require().NoError(s.db.Repositories().Quotations.UpdateStatus(context.Background(), testutil.TenantID, q.ID, models.QuotationRejected))

	res := s.createBooking(q.ID, "rejected")
	s.Equal(http.StatusBadRequest, res.Status)
	s.Equal("QUOTATION_NOT_ACCEPTABLE", s.errorCode(res.Body))
	s.Empty(s.db.Bookings())
}

func (s *APISuite) TestUnauthorized() {
	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *APISuite) TestRequestIDIsEchoed() {
	res := s.do(http.MethodGet, "/api/bookings", "", map[string]string{middlewares.RequestIDHeader: "req-42"})
	s.Equal(http.StatusOK, res.Status)
	s.Equal("req-42", res.Header.Get(middlewares.RequestIDHeader))
}

func (s *APISuite) TestRateLimitReturns429WithRetryAfter() {
	s.limits.Read = config.Limit{Max: 2, Window: time.Hour}
	s.build()

	for i := 0; i < 2; i++ {
		res := s.do(http.MethodGet, "/api/bookings", "", nil)
		s.Equal(http.StatusOK, res.Status)
		s.Equal(strconv.Itoa(1-i), res.Header.Get("X-RateLimit-Remaining"))
	}

	res := s.do(http.MethodGet, "/api/bookings", "", nil)
	s.Equal(http.StatusTooManyRequests, res.Status)
	s.Equal("RATE_LIMIT_EXCEEDED", s.errorCode(res.Body))

	retry, err := strconv.Atoi(res.Header.Get(fiber.HeaderRetryAfter))
	s.Require().NoError(err)
	s.Greater(retry, 0)
	s.LessOrEqual(retry, 3600)

	// Other actions keep their own budget.
	s.Equal(http.StatusBadRequest, s.createBooking(0, "x").Status)
}

func (s *APISuite) TestListBookings() {
	q := s.seedQuotation()
	s.Require().Equal(http.StatusCreated, s.createBooking(q.ID, "l").Status)

	res := s.do(http.MethodGet, "/api/bookings?page=1&page_size=500&sort=nope&status=confirmed", "", nil)
	s.Equal(http.StatusOK, res.Status)

	var list controllers.ListResponse[controllers.BookingResponse]
	s.decode(res.Body, &list)
	s.Equal(int64(1), list.Total)
	s.Len(list.Items, 1)
	s.Equal(100, list.PageSize)

	res = s.do(http.MethodGet, "/api/bookings?status=pending", "", nil)
	s.Equal(http.StatusBadRequest, res.Status)
}

func (s *APISuite) TestCancellationQuote() {
	q := s.seedQuotation()
	created := s.createBooking(q.ID, "c")
	var b controllers.BookingResponse
	s.decode(created.Body, &b)

	// Travel starts 2025-08-01; 61 days before.
	res := s.do(http.MethodGet, fmt.Sprintf("/api/bookings/%d/cancellation-quote?date=2025-06-01", b.ID), "", nil)
	s.Equal(http.StatusOK, res.Status, string(res.Body))

	var quote controllers.CancellationQuoteResponse
	s.decode(res.Body, &quote)
	s.Equal(61, quote.DaysBeforeTravel)
	s.Equal(int64(1980), quote.Fee.AmountMinor)
	s.Equal(int64(17820), quote.Refund.AmountMinor)

	res = s.do(http.MethodGet, fmt.Sprintf("/api/bookings/%d/cancellation-quote?date=06/01/2025", b.ID), "", nil)
	s.Equal(http.StatusBadRequest, res.Status)
}

func (s *APISuite) TestUpdateBookingStatus() {
	q := s.seedQuotation()
	var b controllers.BookingResponse
	s.decode(s.createBooking(q.ID, "u").Body, &b)

	path := fmt.Sprintf("/api/bookings/%d", b.ID)
	res := s.do(http.MethodPatch, path, `{"status":"cancelled"}`, nil)
	s.Equal(http.StatusOK, res.Status)
	var updated controllers.BookingResponse
	s.decode(res.Body, &updated)
	s.Equal("cancelled", updated.Status)

	res = s.do(http.MethodPatch, path, `{"status":"pending"}`, nil)
	s.Equal(http.StatusBadRequest, res.Status)

	res = s.do(http.MethodPatch, "/api/bookings/9999", `{"status":"cancelled"}`, nil)
	s.Equal(http.StatusNotFound, res.Status)
}

// invoicedBooking books the trip quotation and generates its invoices.
func (s *APISuite) invoicedBooking() models.ReceivableInvoice {
	q := s.seedQuotation()
	var b controllers.BookingResponse
	s.decode(s.createBooking(q.ID, "inv").Body, &b)

	res := s.do(http.MethodPost, "/api/invoices/generate", fmt.Sprintf(`{"bookingIds":[%d]}`, b.ID), nil)
	s.Require().Equal(http.StatusOK, res.Status, string(res.Body))

	var gen controllers.GenerateInvoicesResponse
	s.decode(res.Body, &gen)
	s.Equal(1, gen.ReceivablesCount)
	s.Equal(2, gen.PayablesCount)

	recs := s.db.Receivables()
	s.Require().Len(recs, 1)
	return recs[0]
}

func (s *APISuite) TestGenerateInvoicesValidation() {
	res := s.do(http.MethodPost, "/api/invoices/generate", `{"bookingIds":[]}`, nil)
	s.Equal(http.StatusBadRequest, res.Status)
	s.Equal("VALIDATION_ERROR", s.errorCode(res.Body))
}

func (s *APISuite) TestGetInvoice() {
	rec := s.invoicedBooking()

	res := s.do(http.MethodGet, fmt.Sprintf("/api/invoices/receivable/%d", rec.ID), "", nil)
	s.Equal(http.StatusOK, res.Status)
	var inv controllers.ReceivableInvoiceResponse
	s.decode(res.Body, &inv)
	s.Equal(int64(19800), inv.Settlement.TotalAmount.AmountMinor)
	s.Equal("draft", inv.Settlement.Status)

	res = s.do(http.MethodGet, fmt.Sprintf("/api/invoices/invoice/%d", rec.ID), "", nil)
	s.Equal(http.StatusBadRequest, res.Status)
}

func paymentBody(amount, currency string) string {
	return fmt.Sprintf(`{"payment_amount":%q,"payment_currency":%q,"payment_date":"2025-03-05","payment_method":"bank_transfer","payment_reference":"TRX-1"}`,
		amount, currency)
}

func (s *APISuite) TestRecordPayment() {
	rec := s.invoicedBooking()
	path := fmt.Sprintf("/api/invoices/receivable/%d/payments", rec.ID)

	res := s.do(http.MethodPost, path, paymentBody("150.00", "eur"), map[string]string{middlewares.IdempotencyHeader: "pay-1"})
	s.Equal(http.StatusOK, res.Status, string(res.Body))

	var out controllers.RecordPaymentResponse
	s.decode(res.Body, &out)
	s.Equal("partial", out.Invoice.Status)
	s.Equal(int64(15000), out.Invoice.PaidAmount.AmountMinor)
	s.Equal(int64(4800), out.Invoice.Balance.AmountMinor)
	s.Equal(testutil.UserID, out.Payment.ProcessedBy)

	// Retry of the same payment is answered from the store.
	again := s.do(http.MethodPost, path, paymentBody("150.00", "eur"), map[string]string{middlewares.IdempotencyHeader: "pay-1"})
	s.Equal(res.Body, again.Body)
	s.Len(s.db.Payments(), 1)

	res = s.do(http.MethodPost, path, paymentBody("50.00", "EUR"), nil)
	s.Equal(http.StatusBadRequest, res.Status)
	s.Equal("OVERPAYMENT", s.errorCode(res.Body))

	res = s.do(http.MethodPost, path, paymentBody("10.00", "USD"), nil)
	s.Equal(http.StatusBadRequest, res.Status)
	s.Equal("CURRENCY_MISMATCH", s.errorCode(res.Body))

	res = s.do(http.MethodGet, path, "", nil)
	s.Equal(http.StatusOK, res.Status)
	var list struct {
		Items []controllers.PaymentResponse `json:"items"`
	}
	s.decode(res.Body, &list)
	s.Len(list.Items, 1)
}

func (s *APISuite) TestRecordPaymentErrors() {
	rec := s.invoicedBooking()
	path := fmt.Sprintf("/api/invoices/receivable/%d/payments", rec.ID)

	res := s.do(http.MethodPost, path, paymentBody("10.005", "EUR"), nil)
	s.Equal(http.StatusBadRequest, res.Status)

	res = s.do(http.MethodPost, path, `{"payment_amount":"10","payment_currency":"EUR","payment_date":"05.03.2025","payment_method":"cash"}`, nil)
	s.Equal(http.StatusBadRequest, res.Status)
	var env errorEnvelope
	s.decode(res.Body, &env)
	s.Equal("datetime", env.Error.Details["payment_date"])

	res = s.do(http.MethodPost, "/api/invoices/receivable/9999/payments", paymentBody("10.00", "EUR"), nil)
	s.Equal(http.StatusNotFound, res.Status)
	s.Equal("NOT_FOUND", s.errorCode(res.Body))
}

func (s *APISuite) TestPaymentRateLimit() {
	s.limits.Payment = config.Limit{Max: 1, Window: time.Hour}
	s.build()
	rec := s.invoicedBooking()
	path := fmt.Sprintf("/api/invoices/receivable/%d/payments", rec.ID)

	s.Equal(http.StatusOK, s.do(http.MethodPost, path, paymentBody("10.00", "EUR"), nil).Status)
	res := s.do(http.MethodPost, path, paymentBody("10.00", "EUR"), nil)
	s.Equal(http.StatusTooManyRequests, res.Status)
	s.NotEmpty(res.Header.Get(fiber.HeaderRetryAfter))
	s.Len(s.db.Payments(), 1)
}
