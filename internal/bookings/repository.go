package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gatepass/internal/passes"
	"gatepass/internal/places"
	"gatepass/internal/shared/apperrors"
)

type Repository interface {
	// CreateWithCapacityCheck creates the booking and its passes atomically,
	// validating the place's daily capacity under a row lock.
	CreateWithCapacityCheck(ctx context.Context, booking *Booking) error

	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByIDWithPasses(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByVisitor(ctx context.Context, visitorID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)

	// ConfirmPayment transitions the booking and all its passes to their
	// paid/approved state in one transaction: slot numbers are assigned
	// under the place row lock, QR tokens activated and the refund policy
	// snapshot frozen onto each pass.
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID, conf PaymentConfirmation) (*Booking, error)

	// CancelCAS transitions the booking to CANCELLED exactly once. A false
	// return means another settlement already cancelled it.
	CancelCAS(ctx context.Context, id uuid.UUID, upd CancelUpdate) (bool, error)
}

// PaymentConfirmation carries everything the confirmation transaction
// writes onto the booking's passes.
type PaymentConfirmation struct {
	PaymentStatus passes.PaymentStatus // PAID, or FREE for zero-price places
	Snapshot      passes.RefundPolicySnapshot
	QRTokens      map[uuid.UUID]string // pass ID -> token
	ConfirmedAt   time.Time
}

// CancelUpdate carries the one-shot booking cancellation mutation.
type CancelUpdate struct {
	CancelledAt  time.Time
	Reason       string
	RefundAmount int64
	RefundStatus RefundStatus
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateWithCapacityCheck(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the place row to serialize capacity checks per place.
		var place struct {
			ID             uuid.UUID `gorm:"column:id"`
			DailyCapacity  int       `gorm:"column:daily_capacity"`
			BookingEnabled bool      `gorm:"column:booking_enabled"`
			Status         string    `gorm:"column:status"`
		}
		err := tx.Table("places").
			Select("id, daily_capacity, booking_enabled, status").
			Where("id = ?", booking.PlaceID).
			Set("gorm:query_option", "FOR UPDATE").
			First(&place).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundf("place %s", booking.PlaceID)
			}
			return fmt.Errorf("failed to lock place: %w", err)
		}

		if place.Status != string(places.StatusActive) || !place.BookingEnabled {
			return apperrors.Conflictf("place %s is not open for booking", booking.PlaceID)
		}

		// Count live guests already holding the requested day.
		var bookedCount int64
		err = tx.Model(&passes.Pass{}).
			Where("place_id = ? AND visit_date = ? AND status IN ?",
				booking.PlaceID, booking.VisitDate,
				[]passes.Status{passes.StatusPending, passes.StatusApproved}).
			Count(&bookedCount).Error
		if err != nil {
			return fmt.Errorf("failed to count booked guests: %w", err)
		}

		if int(bookedCount)+booking.GuestCount > place.DailyCapacity {
			available := place.DailyCapacity - int(bookedCount)
			if available <= 0 {
				return apperrors.Conflictf("place is fully booked on %s", booking.VisitDate.Format("2006-01-02"))
			}
			return apperrors.Conflictf("insufficient capacity: only %d slots available, requested %d",
				available, booking.GuestCount)
		}

		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("booking %s", id)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *repository) GetByIDWithPasses(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Passes").
		First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("booking %s", id)
		}
		return nil, fmt.Errorf("failed to get booking with passes: %w", err)
	}
	return &booking, nil
}

func (r *repository) GetByVisitor(ctx context.Context, visitorID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	var result []Booking
	var totalCount int64

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	baseQuery := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("visitor_id = ?", visitorID)
	if query.Status != "" {
		baseQuery = baseQuery.Where("status = ?", query.Status)
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Preload("Passes").
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&result).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	return result, totalCount, nil
}

func (r *repository) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, conf PaymentConfirmation) (*Booking, error) {
	var confirmed *Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking Booking
		if err := tx.Preload("Passes").First(&booking, "id = ?", bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundf("booking %s", bookingID)
			}
			return fmt.Errorf("failed to load booking: %w", err)
		}

		if booking.Status != StatusPending {
			return apperrors.Conflictf("booking %s is not awaiting payment", bookingID)
		}

		// Serialize slot assignment per place via the place row lock.
		err := tx.Exec("SELECT id FROM places WHERE id = ? FOR UPDATE", booking.PlaceID).Error
		if err != nil {
			return fmt.Errorf("failed to lock place for slot assignment: %w", err)
		}

		var maxSlot int
		err = tx.Model(&passes.Pass{}).
			Where("place_id = ? AND visit_date = ?", booking.PlaceID, booking.VisitDate).
			Select("COALESCE(MAX(slot_number), 0)").
			Scan(&maxSlot).Error
		if err != nil {
			return fmt.Errorf("failed to read slot counter: %w", err)
		}

		for i := range booking.Passes {
			pass := &booking.Passes[i]
			maxSlot++
			updates := map[string]interface{}{
				"status":                    passes.StatusApproved,
				"payment_status":            conf.PaymentStatus,
				"slot_number":               maxSlot,
				"qr_token":                  conf.QRTokens[pass.ID],
				"qr_active":                 true,
				"policy_refundable":         conf.Snapshot.Refundable,
				"policy_before_visit_percent": conf.Snapshot.BeforeVisitPercent,
				"policy_same_day_percent":   conf.Snapshot.SameDayPercent,
				"policy_snapshot_at":        conf.ConfirmedAt,
				"updated_at":                conf.ConfirmedAt,
			}
			result := tx.Model(&passes.Pass{}).
				Where("id = ? AND status = ?", pass.ID, passes.StatusPending).
				Updates(updates)
			if result.Error != nil {
				return fmt.Errorf("failed to approve pass %s: %w", pass.ID, result.Error)
			}
			if result.RowsAffected == 0 {
				return apperrors.Conflictf("pass %s is no longer pending", pass.ID)
			}
		}

		result := tx.Model(&Booking{}).
			Where("id = ? AND status = ?", bookingID, StatusPending).
			Updates(map[string]interface{}{
				"status":         StatusConfirmed,
				"payment_status": conf.PaymentStatus,
				"updated_at":     conf.ConfirmedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to confirm booking: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.Conflictf("booking %s is no longer pending", bookingID)
		}

		if err := tx.Preload("Passes").First(&booking, "id = ?", bookingID).Error; err != nil {
			return fmt.Errorf("failed to reload booking: %w", err)
		}
		confirmed = &booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

func (r *repository) CancelCAS(ctx context.Context, id uuid.UUID, upd CancelUpdate) (bool, error) {
	updates := map[string]interface{}{
		"status":              StatusCancelled,
		"cancelled_at":        upd.CancelledAt,
		"cancellation_reason": upd.Reason,
		"refund_amount":       upd.RefundAmount,
		"updated_at":          upd.CancelledAt,
	}
	if upd.RefundStatus != "" {
		updates["refund_status"] = upd.RefundStatus
	}
	if upd.RefundAmount > 0 {
		updates["payment_status"] = passes.PaymentRefunded
	}

	result := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND status <> ?", id, StatusCancelled).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
