package places

import "time"

// CreatePlaceRequest is the host payload for creating a place.
type CreatePlaceRequest struct {
	Name               string    `json:"name" binding:"required,min=3,max=255"`
	Description        string    `json:"description" binding:"max=2000"`
	Address            string    `json:"address" binding:"required,min=3,max=500"`
	StartDate          time.Time `json:"start_date" binding:"required"`
	EndDate            time.Time `json:"end_date" binding:"required"`
	DailyCapacity      int       `json:"daily_capacity" binding:"required,min=1,max=100000"`
	PricePerGuest      int64     `json:"price_per_guest" binding:"min=0"`
	Refundable         *bool     `json:"refundable"`
	BeforeVisitPercent *int      `json:"before_visit_percent" binding:"omitempty,min=0,max=100"`
	SameDayPercent     *int      `json:"same_day_percent" binding:"omitempty,min=0,max=100"`
}

// UpdatePlaceRequest is the host payload for updating a place. All fields
// optional; refund policy edits never touch already-sold passes (they carry
// their own snapshot).
type UpdatePlaceRequest struct {
	Name               *string    `json:"name" binding:"omitempty,min=3,max=255"`
	Description        *string    `json:"description" binding:"omitempty,max=2000"`
	Address            *string    `json:"address" binding:"omitempty,min=3,max=500"`
	StartDate          *time.Time `json:"start_date"`
	EndDate            *time.Time `json:"end_date"`
	DailyCapacity      *int       `json:"daily_capacity" binding:"omitempty,min=1,max=100000"`
	PricePerGuest      *int64     `json:"price_per_guest" binding:"omitempty,min=0"`
	Refundable         *bool      `json:"refundable"`
	BeforeVisitPercent *int       `json:"before_visit_percent" binding:"omitempty,min=0,max=100"`
	SameDayPercent     *int       `json:"same_day_percent" binding:"omitempty,min=0,max=100"`
	BookingEnabled     *bool      `json:"booking_enabled"`
}
