package enums

import "fmt"

// RegistrationStatus tracks a confirmed competition entry.
type RegistrationStatus string

const (
	RegistrationStatusPending     RegistrationStatus = "pending"
	RegistrationStatusConfirmed   RegistrationStatus = "confirmed"
	RegistrationStatusSubmitted   RegistrationStatus = "submitted"
	RegistrationStatusUnderReview RegistrationStatus = "under_review"
	RegistrationStatusCompleted   RegistrationStatus = "completed"
	RegistrationStatusCancelled   RegistrationStatus = "cancelled"
	RegistrationStatusRefunded    RegistrationStatus = "refunded"
)

var validRegistrationStatuses = []RegistrationStatus{
	RegistrationStatusPending,
	RegistrationStatusConfirmed,
	RegistrationStatusSubmitted,
	RegistrationStatusUnderReview,
	RegistrationStatusCompleted,
	RegistrationStatusCancelled,
	RegistrationStatusRefunded,
}

// String implements fmt.Stringer.
func (r RegistrationStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RegistrationStatus.
func (r RegistrationStatus) IsValid() bool {
	for _, candidate := range validRegistrationStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRegistrationStatus converts raw input into a RegistrationStatus.
func ParseRegistrationStatus(value string) (RegistrationStatus, error) {
	for _, candidate := range validRegistrationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid registration status %q", value)
}
