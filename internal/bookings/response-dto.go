package bookings

import (
	"time"

	"gatepass/internal/passes"
)

// BookingResponse is the API representation of a booking.
type BookingResponse struct {
	ID            string                 `json:"id"`
	PlaceID       string                 `json:"place_id"`
	BookingRef    string                 `json:"booking_ref"`
	VisitDate     time.Time              `json:"visit_date"`
	GuestCount    int                    `json:"guest_count"`
	TotalAmount   int64                  `json:"total_amount"`
	Status        Status                 `json:"status"`
	PaymentStatus passes.PaymentStatus   `json:"payment_status"`
	RefundStatus  RefundStatus           `json:"refund_status"`
	RefundAmount  int64                  `json:"refund_amount,omitempty"`
	CancelledAt   *time.Time             `json:"cancelled_at,omitempty"`
	Passes        []passes.PassResponse  `json:"passes,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// PaginatedBookings wraps a listing page.
type PaginatedBookings struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int64             `json:"total_count"`
	TotalPages int               `json:"total_pages"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

// ToResponse converts a Booking to its response form.
func (b *Booking) ToResponse() BookingResponse {
	resp := BookingResponse{
		ID:            b.ID.String(),
		PlaceID:       b.PlaceID.String(),
		BookingRef:    b.BookingRef,
		VisitDate:     b.VisitDate,
		GuestCount:    b.GuestCount,
		TotalAmount:   b.TotalAmount,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		RefundStatus:  b.RefundStatus,
		RefundAmount:  b.RefundAmount,
		CancelledAt:   b.CancelledAt,
		CreatedAt:     b.CreatedAt,
	}
	if len(b.Passes) > 0 {
		resp.Passes = make([]passes.PassResponse, len(b.Passes))
		for i := range b.Passes {
			resp.Passes[i] = b.Passes[i].ToResponse()
		}
	}
	return resp
}
