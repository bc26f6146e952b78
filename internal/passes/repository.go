package passes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gatepass/internal/shared/apperrors"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Pass, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Pass, error)
	GetByQRToken(ctx context.Context, token string) (*Pass, error)
	GetByBooking(ctx context.Context, bookingID uuid.UUID) ([]Pass, error)
	GetByVisitor(ctx context.Context, visitorID uuid.UUID) ([]Pass, error)
	GetByPlace(ctx context.Context, placeID uuid.UUID) ([]Pass, error)

	// GetCancellableByPlace returns the passes of a place that a cascade can
	// still cancel. onlyPaid narrows to paymentStatus=PAID (host event-cancel
	// targeting).
	GetCancellableByPlace(ctx context.Context, placeID uuid.UUID, onlyPaid bool) ([]Pass, error)

	// CancelCAS performs the conditional cancellation update: the row is
	// touched only while status is still cancellable and no check-in has
	// occurred. A false return means another settlement got there first (or
	// the guest has entered) - the caller treats it as a skip, never as a
	// second cancellation.
	CancelCAS(ctx context.Context, id uuid.UUID, upd CancelUpdate) (bool, error)

	// CheckInByQR marks entry for an active approved pass, once.
	CheckInByQR(ctx context.Context, token string, at time.Time) (*Pass, error)
	// CheckOutByQR marks exit for a checked-in pass, once.
	CheckOutByQR(ctx context.Context, token string, at time.Time) (*Pass, error)

	// ExpireDue transitions passes whose visit date has passed to EXPIRED.
	ExpireDue(ctx context.Context, before time.Time) (int64, error)

	// ListRefunded pages through passes that have received a refund,
	// newest cancellations first.
	ListRefunded(ctx context.Context, limit, offset int) ([]Pass, int64, error)
}

// CancelUpdate carries the one-shot cancellation mutation for a pass.
// RefundAmount > 0 also flips refund and payment status.
type CancelUpdate struct {
	CancelledAt       time.Time
	Reason            string
	CancelledByKind   string
	CancelledByUserID uuid.UUID
	RefundAmount      int64
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Pass, error) {
	var pass Pass
	err := r.db.WithContext(ctx).First(&pass, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("pass %s", id)
		}
		return nil, fmt.Errorf("failed to get pass: %w", err)
	}
	return &pass, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Pass, error) {
	var result []Pass
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get passes: %w", err)
	}
	return result, nil
}

func (r *repository) GetByQRToken(ctx context.Context, token string) (*Pass, error) {
	var pass Pass
	err := r.db.WithContext(ctx).First(&pass, "qr_token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("pass with QR token")
		}
		return nil, fmt.Errorf("failed to get pass by QR token: %w", err)
	}
	return &pass, nil
}

func (r *repository) GetByBooking(ctx context.Context, bookingID uuid.UUID) ([]Pass, error) {
	var result []Pass
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("slot_number ASC, created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get booking passes: %w", err)
	}
	return result, nil
}

func (r *repository) GetByVisitor(ctx context.Context, visitorID uuid.UUID) ([]Pass, error) {
	var result []Pass
	err := r.db.WithContext(ctx).
		Where("visitor_id = ?", visitorID).
		Order("visit_date DESC, created_at DESC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get visitor passes: %w", err)
	}
	return result, nil
}

func (r *repository) GetByPlace(ctx context.Context, placeID uuid.UUID) ([]Pass, error) {
	var result []Pass
	err := r.db.WithContext(ctx).
		Where("place_id = ?", placeID).
		Order("visit_date ASC, slot_number ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get place passes: %w", err)
	}
	return result, nil
}

func (r *repository) GetCancellableByPlace(ctx context.Context, placeID uuid.UUID, onlyPaid bool) ([]Pass, error) {
	query := r.db.WithContext(ctx).
		Where("place_id = ? AND status IN ?", placeID, []Status{StatusPending, StatusApproved})
	if onlyPaid {
		query = query.Where("payment_status = ?", PaymentPaid)
	}

	var result []Pass
	if err := query.Order("created_at ASC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to get cancellable passes: %w", err)
	}
	return result, nil
}

func (r *repository) CancelCAS(ctx context.Context, id uuid.UUID, upd CancelUpdate) (bool, error) {
	updates := map[string]interface{}{
		"status":               StatusCancelled,
		"qr_active":            false,
		"cancelled_at":         upd.CancelledAt,
		"cancellation_reason":  upd.Reason,
		"cancelled_by_kind":    upd.CancelledByKind,
		"cancelled_by_user_id": upd.CancelledByUserID,
		"updated_at":           upd.CancelledAt,
	}
	if upd.RefundAmount > 0 {
		updates["refund_amount"] = upd.RefundAmount
		updates["refund_status"] = RefundInitiated
		updates["payment_status"] = PaymentRefunded
	}

	result := r.db.WithContext(ctx).
		Model(&Pass{}).
		Where("id = ? AND status IN ? AND check_in_time IS NULL",
			id, []Status{StatusPending, StatusApproved}).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to cancel pass: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CheckInByQR(ctx context.Context, token string, at time.Time) (*Pass, error) {
	result := r.db.WithContext(ctx).
		Model(&Pass{}).
		Where("qr_token = ? AND status = ? AND qr_active = true AND check_in_time IS NULL",
			token, StatusApproved).
		Updates(map[string]interface{}{
			"check_in_time": at,
			"updated_at":    at,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to check in pass: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.Conflictf("pass is not valid for entry")
	}
	return r.GetByQRToken(ctx, token)
}

func (r *repository) CheckOutByQR(ctx context.Context, token string, at time.Time) (*Pass, error) {
	result := r.db.WithContext(ctx).
		Model(&Pass{}).
		Where("qr_token = ? AND check_in_time IS NOT NULL AND check_out_time IS NULL", token).
		Updates(map[string]interface{}{
			"check_out_time": at,
			"updated_at":     at,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to check out pass: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.Conflictf("pass is not checked in")
	}
	return r.GetByQRToken(ctx, token)
}

func (r *repository) ListRefunded(ctx context.Context, limit, offset int) ([]Pass, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&Pass{}).Where("refund_status <> ?", RefundNone)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count refunded passes: %w", err)
	}

	var result []Pass
	err := base.Order("cancelled_at DESC").Limit(limit).Offset(offset).Find(&result).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list refunded passes: %w", err)
	}
	return result, total, nil
}

func (r *repository) ExpireDue(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&Pass{}).
		Where("status IN ? AND visit_date < ?", []Status{StatusPending, StatusApproved}, before).
		Updates(map[string]interface{}{
			"status":     StatusExpired,
			"qr_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire passes: %w", result.Error)
	}
	return result.RowsAffected, nil
}
