package settlement

import "github.com/google/uuid"

type CancelPassRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

type CancelPassesRequest struct {
	PassIDs []uuid.UUID `json:"pass_ids" binding:"required,min=1,max=50"`
	Reason  string      `json:"reason" binding:"omitempty,max=500"`
}

type CancelPlaceRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

type DisableHostRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}
