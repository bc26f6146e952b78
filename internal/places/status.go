package places

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the place status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanBeCancelled checks if a place with this status can be cancelled
func (s Status) CanBeCancelled() bool {
	return s == StatusActive
}
