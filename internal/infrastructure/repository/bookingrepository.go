package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bookwell-inc/bookwell/internal/domain/booking"
	vo "github.com/bookwell-inc/bookwell/internal/domain/booking/valueobjects"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/mappers"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/db"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

type BookingRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewBookingRepository(db *gorm.DB, logger logger.Interface) *BookingRepository {
	return &BookingRepository{db: db, logger: logger}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(mappers.BookingToModel(b)).Error; err != nil {
		r.logger.Warnw("failed to create booking",
			"booking_id", b.ID(),
			"professional_id", b.ProfessionalID(),
			"error", err)
		return createError("booking", err)
	}
	return nil
}

func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	model := mappers.BookingToModel(b)

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.BookingModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":     model.Status,
			"user_id":    model.UserID,
			"payment_id": model.PaymentID,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update booking", "booking_id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	// RowsAffected may be 0 when the values are unchanged.
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *BookingRepository) GetByPaymentID(ctx context.Context, paymentID string) (*booking.Booking, error) {
	return r.first(ctx, "payment_id = ?", paymentID)
}

func (r *BookingRepository) GetBySourceRef(ctx context.Context, sourceRef string) (*booking.Booking, error) {
	return r.first(ctx, "source_ref = ?", sourceRef)
}

func (r *BookingRepository) first(ctx context.Context, query string, arg interface{}) (*booking.Booking, error) {
	var model models.BookingModel
	if err := db.GetTxFromContext(ctx, r.db).Where(query, arg).Order("created_at DESC").First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return mappers.BookingToDomain(&model)
}

func (r *BookingRepository) FindOverlapping(
	ctx context.Context,
	professionalID string,
	start, end time.Time,
	statuses []vo.BookingStatus,
) ([]*booking.Booking, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = s.String()
	}

	var rows []models.BookingModel
	err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.StatusIn(names...), db.OverlapsInterval(start, end)).
		Where("professional_id = ?", professionalID).
		Order("starts_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	return mappers.BookingsToDomain(rows)
}

func (r *BookingRepository) ExistsForSubscriptionAt(ctx context.Context, subscriptionID string, start time.Time) (bool, error) {
	var count int64
	err := db.GetTxFromContext(ctx, r.db).
		Model(&models.BookingModel{}).
		Where("subscription_id = ? AND starts_at = ?", subscriptionID, start.UTC()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count subscription bookings: %w", err)
	}
	return count > 0, nil
}

func (r *BookingRepository) AssignUserToClientBookings(ctx context.Context, clientID, userID string) (int64, error) {
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.BookingModel{}).
		Where("client_id = ? AND user_id IS NULL", clientID).
		Updates(map[string]interface{}{
			"user_id":    userID,
			"version":    gorm.Expr("version + 1"),
			"updated_at": biztime.NowUTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to assign user to bookings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *BookingRepository) ListConfirmedEndedBefore(ctx context.Context, before time.Time, limit int) ([]*booking.Booking, error) {
	var rows []models.BookingModel
	err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.StatusIn(vo.BookingStatusConfirmed.String())).
		Where("ends_at <= ?", before.UTC()).
		Order("ends_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list finished bookings: %w", err)
	}
	return mappers.BookingsToDomain(rows)
}
