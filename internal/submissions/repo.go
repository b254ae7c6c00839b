package submissions

import (
	"context"

	"gorm.io/gorm"

	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
)

// Repository exposes persistence operations for submissions.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a submissions repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) SubmissionRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByNumber loads a submission by its registration number.
func (r *Repository) FindByNumber(ctx context.Context, registrationNumber string) (*models.Submission, error) {
	var record models.Submission
	if err := r.db.WithContext(ctx).First(&record, "registration_number = ?", registrationNumber).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ListPublished returns published submissions, newest publication first.
func (r *Repository) ListPublished(ctx context.Context, limit int) ([]models.Submission, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []models.Submission
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.SubmissionStatusPublished).
		Order("published_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Transition moves a submission between states only while it is still in one
// of the expected source states. Returns the number of rows moved.
func (r *Repository) Transition(ctx context.Context, registrationNumber string, from []enums.SubmissionStatus, to enums.SubmissionStatus, updates map[string]any) (int64, error) {
	values := map[string]any{"status": to}
	for column, value := range updates {
		values[column] = value
	}
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("registration_number = ? AND status IN ?", registrationNumber, from).
		Updates(values)
	return result.RowsAffected, result.Error
}

// UpdateContentIf writes the draft content fields while the submission is
// still in one of the editable states.
func (r *Repository) UpdateContentIf(ctx context.Context, registrationNumber string, from []enums.SubmissionStatus, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("registration_number = ? AND status IN ?", registrationNumber, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// MarkRegistration flips the backing registration's status while it is still
// in the expected source state.
func (r *Repository) MarkRegistration(ctx context.Context, registrationNumber string, from, to enums.RegistrationStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Registration{}).
		Where("registration_number = ? AND status = ?", registrationNumber, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}
