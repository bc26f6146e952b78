package places

import (
	"time"

	"github.com/google/uuid"
)

// Place is a hosted venue/event instance with its own daily capacity and
// refund policy. Cancellation metadata is written exactly once, by the
// settlement engine.
type Place struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	HostID      uuid.UUID `json:"host_id" gorm:"type:uuid;index;not null"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	Address     string    `json:"address" gorm:"not null;size:500"`

	StartDate time.Time `json:"start_date" gorm:"not null"`
	EndDate   time.Time `json:"end_date" gorm:"not null"`

	DailyCapacity int   `json:"daily_capacity" gorm:"not null;check:daily_capacity > 0"`
	PricePerGuest int64 `json:"price_per_guest" gorm:"not null;check:price_per_guest >= 0"` // minor currency units

	// Refund policy terms. These are the live terms; every pass snapshots
	// them at payment confirmation and the snapshot is authoritative from
	// then on.
	Refundable         bool `json:"refundable" gorm:"default:true"`
	BeforeVisitPercent int  `json:"before_visit_percent" gorm:"default:80;check:before_visit_percent >= 0 AND before_visit_percent <= 100"`
	SameDayPercent     int  `json:"same_day_percent" gorm:"default:50;check:same_day_percent >= 0 AND same_day_percent <= 100"`

	BookingEnabled bool   `json:"booking_enabled" gorm:"default:true"`
	Status         Status `json:"status" gorm:"type:varchar(20);default:'ACTIVE'"`

	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledByKind    string     `json:"cancelled_by_kind,omitempty" gorm:"type:varchar(20)"`
	CancelledByUserID  *uuid.UUID `json:"cancelled_by,omitempty" gorm:"type:uuid"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Place) TableName() string {
	return "places"
}

// IsCancelled reports whether the place has been cancelled.
func (p *Place) IsCancelled() bool {
	return p.Status == StatusCancelled
}

// HasStarted reports whether the event's first visit day has begun,
// relative to the given instant.
func (p *Place) HasStarted(now time.Time) bool {
	return !now.Before(p.StartDate)
}
