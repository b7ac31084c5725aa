package repository

import (
	"context"
	"fmt"

	"travel-backoffice/database"
	"travel-backoffice/models"

	"gorm.io/gorm"
)

// BookingSortColumns is the whitelist for GET /bookings?sort=.
var BookingSortColumns = database.SortColumns{
	"created_at":        "created_at",
	"booking_number":    "booking_number",
	"travel_start_date": "travel_start_date",
	"total_amount":      "total_amount",
	"status":            "status",
}

type bookingRepo struct {
	client *database.Client
}

func NewBookingRepository(client *database.Client) BookingRepository {
	return &bookingRepo{client: client}
}

func (r *bookingRepo) Create(ctx context.Context, b *models.Booking) error {
	err := r.client.Conn(ctx).Create(b).Error
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err, "idx_bookings_booking_number"):
		return ErrDuplicateBookingNumber
	case database.IsUniqueViolation(err, "idx_bookings_quotation_id"):
		return ErrDuplicateQuotation
	}
	return fmt.Errorf("insert booking: %w", err)
}

func (r *bookingRepo) Get(ctx context.Context, tenantID string, id uint) (*models.Booking, error) {
	var b models.Booking
	err := r.client.Conn(ctx).Scopes(database.TenantScope(tenantID)).First(&b, "id = ?", id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load booking %d: %w", id, err)
	}
	return &b, nil
}

func (r *bookingRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	var n int64
	if err := r.client.Conn(ctx).Model(&models.Booking{}).Where("booking_number = ?", number).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check booking number: %w", err)
	}
	return n > 0, nil
}

// UpdateStatus writes the status column only; the locked rate is never part of the statement.
func (r *bookingRepo) UpdateStatus(ctx context.Context, tenantID string, id uint, status models.BookingStatus) error {
	res := r.client.Conn(ctx).
		Model(&models.Booking{}).
		Scopes(database.TenantScope(tenantID)).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update booking %d status: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *bookingRepo) List(ctx context.Context, tenantID string, filter BookingFilter, params database.ListParams) ([]models.Booking, int64, error) {
	q := r.client.Conn(ctx).Model(&models.Booking{}).Scopes(database.TenantScope(tenantID))
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	var out []models.Booking
	if err := q.Scopes(params.Apply(BookingSortColumns)).Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	return out, total, nil
}
