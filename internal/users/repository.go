package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gatepass/internal/shared/apperrors"
)

// Repository exposes user lookups and the host moderation transition.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	DisableHosting(ctx context.Context, hostID uuid.UUID, reason string, disabledBy uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("user %s", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("user with email %s", email)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// DisableHosting flips the hosting flag exactly once. Re-disabling an
// already-disabled host is rejected so audit metadata stays immutable.
func (r *repository) DisableHosting(ctx context.Context, hostID uuid.UUID, reason string, disabledBy uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ? AND role = ? AND hosting_disabled = false", hostID, RoleHost).
		Updates(map[string]interface{}{
			"hosting_disabled":    true,
			"disabled_at":         now,
			"disabled_reason":     reason,
			"disabled_by_user_id": disabledBy,
			"updated_at":          now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to disable host: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Conflictf("host %s is not an active host", hostID)
	}
	return nil
}
