package enums

import "fmt"

// NotificationKind labels in-app notification rows.
type NotificationKind string

const (
	NotificationSubmissionPublished NotificationKind = "submission_published"
	NotificationSubmissionRejected  NotificationKind = "submission_rejected"
	NotificationPaymentCompleted    NotificationKind = "payment_completed"
	NotificationPaymentFailed       NotificationKind = "payment_failed"
)

var validNotificationKinds = []NotificationKind{
	NotificationSubmissionPublished,
	NotificationSubmissionRejected,
	NotificationPaymentCompleted,
	NotificationPaymentFailed,
}

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationKind.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
