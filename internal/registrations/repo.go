package registrations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
)

func lockingClause() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// Repository exposes persistence operations for registrations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a registrations repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) RegistrationRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a registration row.
func (r *Repository) Create(ctx context.Context, registration *models.Registration) error {
	return r.db.WithContext(ctx).Create(registration).Error
}

// CreateSubmissionShell inserts the DRAFT submission backing a registration.
func (r *Repository) CreateSubmissionShell(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// ListByPayment returns the registrations materialized from a payment.
func (r *Repository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.Registration, error) {
	var rows []models.Registration
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByUser returns the user's registrations, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	var rows []models.Registration
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByNumber loads a registration by its registration number.
func (r *Repository) FindByNumber(ctx context.Context, registrationNumber string) (*models.Registration, error) {
	var record models.Registration
	if err := r.db.WithContext(ctx).First(&record, "registration_number = ?", registrationNumber).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateStatusByPayment flips the status of every registration tied to a
// payment. Used by revert-to-pending and refunds.
func (r *Repository) UpdateStatusByPayment(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID, status enums.RegistrationStatus) (int64, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).
		Model(&models.Registration{}).
		Where("payment_id = ?", paymentID).
		Update("status", status)
	return result.RowsAffected, result.Error
}

// SetDisplayCodeIfEmpty stores a display code only when none exists yet.
func (r *Repository) SetDisplayCodeIfEmpty(ctx context.Context, registrationNumber, displayCode string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Registration{}).
		Where("registration_number = ? AND display_code IS NULL", registrationNumber).
		Update("display_code", displayCode)
	return result.RowsAffected, result.Error
}

// CompleteCart marks the snapshot's cart COMPLETED if it is still ACTIVE.
func (r *Repository) CompleteCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		Update("status", enums.CartStatusCompleted).Error
}

// LoadSnapshotItems loads the cart items pinned by a payment snapshot.
func (r *Repository) LoadSnapshotItems(ctx context.Context, itemIDs []uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Where("id IN ?", itemIDs).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindRegistrationType loads the fee tier for roster re-validation.
func (r *Repository) FindRegistrationType(ctx context.Context, id uuid.UUID) (*models.RegistrationType, error) {
	var record models.RegistrationType
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindPaymentForUpdate locks the payment row for the materialization tx.
func (r *Repository) FindPaymentForUpdate(ctx context.Context, orderID string) (*models.Payment, error) {
	var record models.Payment
	err := r.db.WithContext(ctx).
		Clauses(lockingClause()).
		First(&record, "order_id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkPaymentCompleted flips the payment to COMPLETED while it is still
// pending-like.
func (r *Repository) MarkPaymentCompleted(ctx context.Context, orderID string, updates map[string]any) (int64, error) {
	values := map[string]any{"status": enums.PaymentStatusCompleted}
	for column, value := range updates {
		values[column] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ? AND status IN ?", orderID,
			[]enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusProcessing}).
		Updates(values)
	return result.RowsAffected, result.Error
}
