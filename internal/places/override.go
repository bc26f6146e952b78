package places

import (
	"fmt"

	"gatepass/internal/shared/apperrors"
)

// OverrideKind tags the admin manual-override variants. Each kind carries
// exactly one value field; dispatch is an exhaustive switch, never a
// field-name lookup.
type OverrideKind string

const (
	OverrideCapacity       OverrideKind = "CAPACITY"
	OverrideBookingEnabled OverrideKind = "BOOKING_ENABLED"
)

// OverrideRequest is the tagged-union payload for admin place overrides.
type OverrideRequest struct {
	Kind           OverrideKind `json:"kind" binding:"required"`
	Capacity       *int         `json:"capacity,omitempty"`
	BookingEnabled *bool        `json:"booking_enabled,omitempty"`
}

// Validate checks that the request carries the value matching its tag.
func (r OverrideRequest) Validate() error {
	switch r.Kind {
	case OverrideCapacity:
		if r.Capacity == nil {
			return fmt.Errorf("capacity value is required for %s override: %w", r.Kind, apperrors.ErrValidation)
		}
		if *r.Capacity <= 0 {
			return fmt.Errorf("capacity must be positive: %w", apperrors.ErrValidation)
		}
	case OverrideBookingEnabled:
		if r.BookingEnabled == nil {
			return fmt.Errorf("booking_enabled value is required for %s override: %w", r.Kind, apperrors.ErrValidation)
		}
	default:
		return fmt.Errorf("unknown override kind %q: %w", r.Kind, apperrors.ErrValidation)
	}
	return nil
}
