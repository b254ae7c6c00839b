package enums

import "fmt"

// AuditAction labels manual admin interventions recorded in the audit log.
type AuditAction string

const (
	AuditPaymentRevertedToPending AuditAction = "payment_reverted_to_pending"
	AuditBankTransferApproved     AuditAction = "bank_transfer_approved"
	AuditBankTransferRejected     AuditAction = "bank_transfer_rejected"
	AuditDuplicateCartsReconciled AuditAction = "duplicate_carts_reconciled"
)

var validAuditActions = []AuditAction{
	AuditPaymentRevertedToPending,
	AuditBankTransferApproved,
	AuditBankTransferRejected,
	AuditDuplicateCartsReconciled,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
