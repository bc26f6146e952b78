package places

import "time"

// PlaceResponse is the public representation of a place.
type PlaceResponse struct {
	ID                 string     `json:"id"`
	HostID             string     `json:"host_id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	Address            string     `json:"address"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            time.Time  `json:"end_date"`
	DailyCapacity      int        `json:"daily_capacity"`
	PricePerGuest      int64      `json:"price_per_guest"`
	Refundable         bool       `json:"refundable"`
	BeforeVisitPercent int        `json:"before_visit_percent"`
	SameDayPercent     int        `json:"same_day_percent"`
	BookingEnabled     bool       `json:"booking_enabled"`
	Status             Status     `json:"status"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// PaginatedPlaces wraps a listing page.
type PaginatedPlaces struct {
	Places     []PlaceResponse `json:"places"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// ToResponse converts a Place to its response form.
func (p *Place) ToResponse() PlaceResponse {
	return PlaceResponse{
		ID:                 p.ID.String(),
		HostID:             p.HostID.String(),
		Name:               p.Name,
		Description:        p.Description,
		Address:            p.Address,
		StartDate:          p.StartDate,
		EndDate:            p.EndDate,
		DailyCapacity:      p.DailyCapacity,
		PricePerGuest:      p.PricePerGuest,
		Refundable:         p.Refundable,
		BeforeVisitPercent: p.BeforeVisitPercent,
		SameDayPercent:     p.SameDayPercent,
		BookingEnabled:     p.BookingEnabled,
		Status:             p.Status,
		CancelledAt:        p.CancelledAt,
		CancellationReason: p.CancellationReason,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}
