package payments

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
)

// Repository exposes persistence operations for payments.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) PaymentRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a payment row.
func (r *Repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// FindByOrderID loads a payment by its client-generated order id.
func (r *Repository) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var record models.Payment
	if err := r.db.WithContext(ctx).First(&record, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByUser returns the user's payments, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatusIfIn flips a payment's status only while it holds one of the
// expected source states, applying the extra column updates atomically.
// Returns the number of rows changed; zero means the transition already
// happened elsewhere.
func (r *Repository) UpdateStatusIfIn(ctx context.Context, orderID string, from []enums.PaymentStatus, to enums.PaymentStatus, updates map[string]any) (int64, error) {
	values := map[string]any{"status": to}
	for column, value := range updates {
		values[column] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ? AND status IN ?", orderID, from).
		Updates(values)
	return result.RowsAffected, result.Error
}

// ListPendingBefore returns PENDING or PROCESSING payments created before the
// cutoff, oldest first. Feed for the reconciliation job.
func (r *Repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?",
			[]enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusProcessing}, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
