package bookings

import (
	"time"

	"github.com/google/uuid"

	"gatepass/internal/passes"
)

// Booking is one visitor's purchase transaction for N guests on one visit
// date at one place. It owns one pass per guest.
type Booking struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	VisitorID uuid.UUID `json:"visitor_id" gorm:"type:uuid;index;not null"`
	PlaceID   uuid.UUID `json:"place_id" gorm:"type:uuid;index;not null"`

	VisitDate   time.Time `json:"visit_date" gorm:"not null"`
	GuestCount  int       `json:"guest_count" gorm:"not null;check:guest_count > 0"`
	TotalAmount int64     `json:"total_amount" gorm:"not null"` // minor currency units

	Status        Status               `json:"status" gorm:"type:varchar(20);default:'PENDING'"`
	PaymentStatus passes.PaymentStatus `json:"payment_status" gorm:"type:varchar(20);default:'PENDING'"`

	RefundStatus RefundStatus `json:"refund_status" gorm:"type:varchar(20);default:'NONE'"`
	RefundAmount int64        `json:"refund_amount" gorm:"default:0"`

	BookingRef string `json:"booking_ref" gorm:"unique;not null"`

	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Passes []passes.Pass `json:"passes,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

func (Booking) TableName() string {
	return "bookings"
}

// IsCancelled reports whether the booking has been cancelled.
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// IsConfirmed reports whether payment has been confirmed.
func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}
