package passes

// Status is the pass lifecycle state. PENDING/APPROVED may transition to
// CANCELLED or EXPIRED; CANCELLED and EXPIRED are absorbing.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// CanBeCancelled checks if a pass with this status can transition to CANCELLED
func (s Status) CanBeCancelled() bool {
	return s == StatusPending || s == StatusApproved
}

// IsTerminal reports whether no transition leaves this status
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

// PaymentStatus tracks the payment state of a single pass.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFree     PaymentStatus = "FREE"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentFailed   PaymentStatus = "FAILED"
)

// RefundStatus tracks the refund state of a single pass. It leaves NONE at
// most once, when settlement records a refund.
type RefundStatus string

const (
	RefundNone      RefundStatus = "NONE"
	RefundInitiated RefundStatus = "INITIATED"
	RefundCompleted RefundStatus = "COMPLETED"
	RefundFailed    RefundStatus = "FAILED"
)
