package passes

import (
	"time"

	"github.com/google/uuid"
)

// RefundPolicySnapshot freezes a place's refund terms onto a pass at payment
// confirmation time. Later policy edits on the place never change the terms
// of an already-sold pass; refund evaluation reads only the snapshot.
type RefundPolicySnapshot struct {
	Refundable         bool `json:"refundable"`
	BeforeVisitPercent int  `json:"before_visit_percent"`
	SameDayPercent     int  `json:"same_day_percent"`
}

// Pass is one guest's entry credential for one visit date at one place.
type Pass struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	BookingID uuid.UUID `json:"booking_id" gorm:"type:uuid;index;not null"`
	PlaceID   uuid.UUID `json:"place_id" gorm:"type:uuid;index;not null"`
	HostID    uuid.UUID `json:"host_id" gorm:"type:uuid;index;not null"`
	VisitorID uuid.UUID `json:"visitor_id" gorm:"type:uuid;index;not null"` // the booker

	GuestName  string `json:"guest_name" gorm:"not null;size:255"`
	GuestEmail string `json:"guest_email" gorm:"size:255"`
	GuestPhone string `json:"guest_phone" gorm:"size:50"`

	VisitDate  time.Time `json:"visit_date" gorm:"not null;index"`
	SlotNumber int       `json:"slot_number"` // assigned at payment confirmation

	QRToken  string `json:"qr_token" gorm:"uniqueIndex;size:64"`
	QRActive bool   `json:"qr_active" gorm:"default:false"`

	Status        Status        `json:"status" gorm:"type:varchar(20);default:'PENDING'"`
	AmountPaid    int64         `json:"amount_paid" gorm:"not null;default:0"` // minor currency units
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);default:'PENDING'"`

	RefundAmount int64        `json:"refund_amount" gorm:"default:0"`
	RefundStatus RefundStatus `json:"refund_status" gorm:"type:varchar(20);default:'NONE'"`

	// Policy snapshot, set once at payment confirmation.
	Policy           RefundPolicySnapshot `json:"refund_policy" gorm:"embedded;embeddedPrefix:policy_"`
	PolicySnapshotAt *time.Time           `json:"policy_snapshot_at,omitempty"`

	CheckInTime  *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`

	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledByKind    string     `json:"cancelled_by_kind,omitempty" gorm:"type:varchar(20)"`
	CancelledByUserID  *uuid.UUID `json:"cancelled_by,omitempty" gorm:"type:uuid"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Pass) TableName() string {
	return "passes"
}

// IsCancelled reports whether the pass is in the terminal CANCELLED state.
func (p *Pass) IsCancelled() bool {
	return p.Status == StatusCancelled
}

// IsCheckedIn reports whether entry has occurred; a checked-in pass can
// never be cancelled.
func (p *Pass) IsCheckedIn() bool {
	return p.CheckInTime != nil
}

// IsCancellable reports whether the pass state admits a cancellation
// transition (ignoring ownership and policy).
func (p *Pass) IsCancellable() bool {
	return p.Status.CanBeCancelled() && !p.IsCheckedIn()
}
