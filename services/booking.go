package services

import (
	"context"
	"encoding/json"
	"time"

	"travel-backoffice/apperr"
	"travel-backoffice/database"
	"travel-backoffice/models"
	"travel-backoffice/money"
	"travel-backoffice/repository"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type BookingService interface {
	// CreateBookingFromQuotation accepts a quotation and creates its booking in one transaction.
	CreateBookingFromQuotation(ctx context.Context, tenantID string, quotationID uint) (*models.Booking, error)
	// UpdateBookingStatus sets status unconditionally; re-cancelling a cancelled booking succeeds.
	UpdateBookingStatus(ctx context.Context, tenantID string, bookingID uint, status models.BookingStatus) (*models.Booking, error)
	GetBooking(ctx context.Context, tenantID string, bookingID uint) (*models.Booking, error)
	ListBookings(ctx context.Context, tenantID string, filter repository.BookingFilter, params database.ListParams) ([]models.Booking, int64, error)
	// CancellationQuote prices a cancellation on date (today when zero) without changing the booking.
	CancellationQuote(ctx context.Context, tenantID string, bookingID uint, date time.Time) (*CancellationQuote, error)
}

// CancellationQuote is the fee and refund for cancelling a booking on a given day.
type CancellationQuote struct {
	BookingID        uint
	CancellationDate time.Time
	DaysBeforeTravel int
	FeePercent       decimal.Decimal
	Total            money.Money
	Fee              money.Money
	Refund           money.Money
}

type bookingService struct {
	Params
}

func NewBookingService(p Params) BookingService {
	return &bookingService{Params: p.withDefaults()}
}

var errNumberCollision = errors.New("booking number collision")

func (s *bookingService) CreateBookingFromQuotation(ctx context.Context, tenantID string, quotationID uint) (*models.Booking, error) {
	q, err := s.QuotationRepo.Get(ctx, tenantID, quotationID)
	if err != nil {
		return nil, quotationErr(err, quotationID)
	}
	if !q.CanBeAccepted() {
		return nil, notAcceptable(q)
	}

	rate, err := s.Locker.Lock(ctx, q.Currency, s.SettlementCurrency)
	if err != nil {
		return nil, apperr.Internal(err, "lock exchange rate")
	}

	snapshot, err := json.Marshal(q)
	if err != nil {
		return nil, apperr.Internal(err, "snapshot quotation")
	}
	pricing := PriceQuotation(q)
	now := s.Now()

	var booking *models.Booking
	attempt := func() error {
		number := s.nextBookingNumber(now)
		exists, err := s.BookingRepo.NumberExists(ctx, number)
		if err != nil {
			return backoff.Permanent(apperr.Internal(err, "check booking number"))
		}
		if exists {
			s.Logger.Debugw("booking number taken, regenerating", "booking_number", number)
			return errNumberCollision
		}

		b := &models.Booking{
			TenantID:           tenantID,
			QuotationID:        q.ID,
			BookingNumber:      number,
			Currency:           money.NormalizeCurrency(q.Currency),
			SettlementCurrency: money.NormalizeCurrency(s.SettlementCurrency),
			ExchangeRate:       rate,
			TotalAmount:        pricing.Total,
			TravelStartDate:    q.StartDate,
			TravelEndDate:      q.EndDate,
			Status:             models.BookingConfirmed,
			QuotationSnapshot:  datatypes.JSON(snapshot),
		}
		err = s.insertBooking(ctx, tenantID, b)
		switch {
		case err == nil:
			booking = b
			return nil
		case errors.Is(err, repository.ErrDuplicateBookingNumber):
			s.Logger.Debugw("booking number inserted concurrently, regenerating", "booking_number", number)
			return errNumberCollision
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, MaxBookingNumberAttempts-1), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		if errors.Is(err, errNumberCollision) {
			return nil, apperr.NewErrorf("no free booking number after %d attempts", MaxBookingNumberAttempts).
				Mark(apperr.ErrGenerationFailed)
		}
		return nil, err
	}

	s.Logger.Infow("booking created",
		"tenant_id", tenantID,
		"booking_id", booking.ID,
		"booking_number", booking.BookingNumber,
		"quotation_id", quotationID,
		"exchange_rate", booking.ExchangeRate.String(),
	)
	return booking, nil
}

// insertBooking writes the booking and flips the quotation to accepted atomically.
// The quotation row is locked and re-checked so two concurrent creations cannot both pass.
func (s *bookingService) insertBooking(ctx context.Context, tenantID string, b *models.Booking) error {
	return s.Tx.WithTx(ctx, func(ctx context.Context) error {
		q, err := s.QuotationRepo.GetForUpdate(ctx, tenantID, b.QuotationID)
		if err != nil {
			return quotationErr(err, b.QuotationID)
		}
		if !q.CanBeAccepted() {
			return notAcceptable(q)
		}

		if err := s.BookingRepo.Create(ctx, b); err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicateBookingNumber):
				return err
			case errors.Is(err, repository.ErrDuplicateQuotation):
				return alreadyAccepted(b.QuotationID)
			}
			return apperr.Internal(err, "insert booking")
		}
		if err := s.QuotationRepo.UpdateStatus(ctx, tenantID, b.QuotationID, models.QuotationAccepted); err != nil {
			return apperr.Internal(err, "accept quotation")
		}
		return nil
	})
}

func (s *bookingService) UpdateBookingStatus(ctx context.Context, tenantID string, bookingID uint, status models.BookingStatus) (*models.Booking, error) {
	if !status.Valid() {
		return nil, apperr.NewErrorf("invalid booking status %q", status).
			WithHint("status must be one of: confirmed, cancelled").
			Mark(apperr.ErrValidation)
	}
	if err := s.BookingRepo.UpdateStatus(ctx, tenantID, bookingID, status); err != nil {
		return nil, bookingErr(err, bookingID)
	}
	s.Logger.Infow("booking status updated", "tenant_id", tenantID, "booking_id", bookingID, "status", status)
	return s.GetBooking(ctx, tenantID, bookingID)
}

func (s *bookingService) GetBooking(ctx context.Context, tenantID string, bookingID uint) (*models.Booking, error) {
	b, err := s.BookingRepo.Get(ctx, tenantID, bookingID)
	if err != nil {
		return nil, bookingErr(err, bookingID)
	}
	return b, nil
}

func (s *bookingService) ListBookings(ctx context.Context, tenantID string, filter repository.BookingFilter, params database.ListParams) ([]models.Booking, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperr.NewErrorf("invalid status filter %q", filter.Status).
			WithHint("status must be one of: confirmed, cancelled").
			Mark(apperr.ErrValidation)
	}
	items, total, err := s.BookingRepo.List(ctx, tenantID, filter, params)
	if err != nil {
		return nil, 0, apperr.Internal(err, "list bookings")
	}
	return items, total, nil
}

func (s *bookingService) CancellationQuote(ctx context.Context, tenantID string, bookingID uint, date time.Time) (*CancellationQuote, error) {
	b, err := s.GetBooking(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = s.Now()
	}
	days := DaysBefore(b.TravelStartDate, date)
	pct := FeePercentFor(days)
	total := money.FromDecimal(b.TotalAmount, b.Currency)
	fee := total.Percent(pct)

	return &CancellationQuote{
		BookingID:        b.ID,
		CancellationDate: date,
		DaysBeforeTravel: days,
		FeePercent:       pct,
		Total:            total,
		Fee:              fee,
		Refund:           total.Sub(fee),
	}, nil
}

func quotationErr(err error, id uint) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.WithError(err).
			WithHintf("quotation %d not found", id).
			Mark(apperr.ErrNotFound)
	}
	return apperr.Internal(err, "load quotation")
}

func bookingErr(err error, id uint) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.WithError(err).
			WithHintf("booking %d not found", id).
			Mark(apperr.ErrNotFound)
	}
	return apperr.Internal(err, "load booking")
}

// notAcceptable refuses a quotation outside draft/sent.
func notAcceptable(q *models.Quotation) error {
	if q.Status == models.QuotationAccepted {
		return alreadyAccepted(q.ID)
	}
	return apperr.NewErrorf("quotation %d is %s", q.ID, q.Status).
		WithHintf("quotation is %s and cannot be accepted", q.Status).
		Mark(apperr.ErrNotAcceptable, apperr.ErrConflict)
}

func alreadyAccepted(id uint) error {
	return apperr.NewErrorf("quotation %d already accepted", id).
		WithHint("quotation has already been accepted").
		Mark(apperr.ErrAlreadyAccepted, apperr.ErrConflict)
}
