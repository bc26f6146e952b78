package bookings

import (
	"time"

	"github.com/google/uuid"
)

// GuestInfo identifies one guest on a booking; each guest gets a pass.
type GuestInfo struct {
	Name  string `json:"name" binding:"required,min=2,max=255"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"omitempty,max=50"`
}

// CreateBookingRequest is the visitor payload for booking passes.
type CreateBookingRequest struct {
	PlaceID   uuid.UUID   `json:"place_id" binding:"required"`
	VisitDate time.Time   `json:"visit_date" binding:"required"`
	Guests    []GuestInfo `json:"guests" binding:"required,min=1,max=20,dive"`
}

// ConfirmPaymentRequest carries the external payment confirmation signal.
type ConfirmPaymentRequest struct {
	TransactionRef string `json:"transaction_ref" binding:"required"`
}

// BookingListQuery holds listing filters.
type BookingListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED CANCELLED COMPLETED"`
}
