package places

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
	Create(ctx context.Context, place *Place) error
	GetByID(ctx context.Context, id uuid.UUID) (*Place, error)
	Update(ctx context.Context, place *Place) error
	ListByHost(ctx context.Context, hostID uuid.UUID) ([]Place, error)
	ListActiveByHost(ctx context.Context, hostID uuid.UUID) ([]Place, error)
	ListPublic(ctx context.Context, query ListQuery) ([]Place, int64, error)

	// ApplyOverride applies a single admin override field.
	ApplyOverride(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error

	// CancelCAS transitions ACTIVE -> CANCELLED exactly once. A false return
	// means the place was not in a cancellable state; callers surface this
	// as a conflict rather than an idempotent skip.
	CancelCAS(ctx context.Context, id uuid.UUID, upd CancelUpdate) (bool, error)

	// DisableBookingByHost turns off booking on every place of a host,
	// including places with no active passes.
	DisableBookingByHost(ctx context.Context, hostID uuid.UUID) error
}

// CancelUpdate carries the one-shot cancellation metadata for a place.
type CancelUpdate struct {
	CancelledAt       time.Time
	Reason            string
	CancelledByKind   string
	CancelledByUserID uuid.UUID
}

// ListQuery holds public browse filters.
type ListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, place *Place) error {
	if err := r.db.WithContext(ctx).Create(place).Error; err != nil {
		return fmt.Errorf("failed to create place: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Place, error) {
	var place Place
	err := r.db.WithContext(ctx).First(&place, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("place %s", id)
		}
		return nil, fmt.Errorf("failed to get place: %w", err)
	}
	return &place, nil
}

func (r *repository) Update(ctx context.Context, place *Place) error {
	if err := r.db.WithContext(ctx).Save(place).Error; err != nil {
		return fmt.Errorf("failed to update place: %w", err)
	}
	return nil
}

func (r *repository) ListByHost(ctx context.Context, hostID uuid.UUID) ([]Place, error) {
	var result []Place
	err := r.db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Order("start_date ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list host places: %w", err)
	}
	return result, nil
}

func (r *repository) ListActiveByHost(ctx context.Context, hostID uuid.UUID) ([]Place, error) {
	var result []Place
	err := r.db.WithContext(ctx).
		Where("host_id = ? AND status = ?", hostID, StatusActive).
		Order("start_date ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active host places: %w", err)
	}
	return result, nil
}

func (r *repository) ListPublic(ctx context.Context, query ListQuery) ([]Place, int64, error) {
	var result []Place
	var totalCount int64

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	baseQuery := r.db.WithContext(ctx).
		Model(&Place{}).
		Where("status = ? AND booking_enabled = true", StatusActive)

	if query.Search != "" {
		term := "%" + query.Search + "%"
		baseQuery = baseQuery.Where("name ILIKE ? OR address ILIKE ?", term, term)
	}
	if query.DateFrom != "" {
		if dateFrom, err := time.Parse("2006-01-02", query.DateFrom); err == nil {
			baseQuery = baseQuery.Where("end_date >= ?", dateFrom)
		}
	}
	if query.DateTo != "" {
		if dateTo, err := time.Parse("2006-01-02", query.DateTo); err == nil {
			baseQuery = baseQuery.Where("start_date <= ?", dateTo)
		}
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count places: %w", err)
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Order("start_date ASC").
		Offset(offset).
		Limit(query.Limit).
		Find(&result).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list places: %w", err)
	}

	return result, totalCount, nil
}

func (r *repository) ApplyOverride(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).
		Model(&Place{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to apply override: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("place %s", id)
	}
	return nil
}

func (r *repository) CancelCAS(ctx context.Context, id uuid.UUID, upd CancelUpdate) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&Place{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Updates(map[string]interface{}{
			"status":               StatusCancelled,
			"booking_enabled":      false,
			"cancelled_at":         upd.CancelledAt,
			"cancellation_reason":  upd.Reason,
			"cancelled_by_kind":    upd.CancelledByKind,
			"cancelled_by_user_id": upd.CancelledByUserID,
			"updated_at":           upd.CancelledAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to cancel place: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) DisableBookingByHost(ctx context.Context, hostID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&Place{}).
		Where("host_id = ?", hostID).
		Updates(map[string]interface{}{
			"booking_enabled": false,
			"updated_at":      time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to disable booking for host places: %w", err)
	}
	return nil
}
