package passes

import "time"

// PassResponse is the API representation of a pass.
type PassResponse struct {
	ID            string               `json:"id"`
	BookingID     string               `json:"booking_id"`
	PlaceID       string               `json:"place_id"`
	GuestName     string               `json:"guest_name"`
	GuestEmail    string               `json:"guest_email,omitempty"`
	VisitDate     time.Time            `json:"visit_date"`
	SlotNumber    int                  `json:"slot_number,omitempty"`
	QRToken       string               `json:"qr_token,omitempty"`
	QRActive      bool                 `json:"qr_active"`
	Status        Status               `json:"status"`
	AmountPaid    int64                `json:"amount_paid"`
	PaymentStatus PaymentStatus        `json:"payment_status"`
	RefundAmount  int64                `json:"refund_amount,omitempty"`
	RefundStatus  RefundStatus         `json:"refund_status"`
	RefundPolicy  RefundPolicySnapshot `json:"refund_policy"`
	CheckInTime   *time.Time           `json:"check_in_time,omitempty"`
	CheckOutTime  *time.Time           `json:"check_out_time,omitempty"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// ScanResult is returned to gate security after a QR scan.
type ScanResult struct {
	PassID      string     `json:"pass_id"`
	GuestName   string     `json:"guest_name"`
	VisitDate   time.Time  `json:"visit_date"`
	SlotNumber  int        `json:"slot_number"`
	Status      Status     `json:"status"`
	QRActive    bool       `json:"qr_active"`
	CheckInTime *time.Time `json:"check_in_time,omitempty"`
	Admitted    bool       `json:"admitted"`
}

// ToResponse converts a Pass to its response form.
func (p *Pass) ToResponse() PassResponse {
	return PassResponse{
		ID:            p.ID.String(),
		BookingID:     p.BookingID.String(),
		PlaceID:       p.PlaceID.String(),
		GuestName:     p.GuestName,
		GuestEmail:    p.GuestEmail,
		VisitDate:     p.VisitDate,
		SlotNumber:    p.SlotNumber,
		QRToken:       p.QRToken,
		QRActive:      p.QRActive,
		Status:        p.Status,
		AmountPaid:    p.AmountPaid,
		PaymentStatus: p.PaymentStatus,
		RefundAmount:  p.RefundAmount,
		RefundStatus:  p.RefundStatus,
		RefundPolicy:  p.Policy,
		CheckInTime:   p.CheckInTime,
		CheckOutTime:  p.CheckOutTime,
		CancelledAt:   p.CancelledAt,
		CreatedAt:     p.CreatedAt,
	}
}
