package jury

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/archfoundry/archcomp-backend/pkg/db/models"
)

// Repository exposes persistence operations for jury assignments and scores.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a jury repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertScore writes a score, overwriting the member's previous score for the
// same registration. The (jury_member_id, registration_number) key makes the
// overwrite race-free.
func (r *Repository) UpsertScore(ctx context.Context, score *models.JuryScore) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "jury_member_id"}, {Name: "registration_number"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"site_context", "concept_clarity", "spatial_quality", "functionality",
				"sustainability", "materiality", "design_resolution", "presentation",
				"innovation", "total_score", "submitted_at", "updated_at",
			}),
		}).
		Create(score).Error
}

// CreateAssignment adds a registration to a jury member's queue.
func (r *Repository) CreateAssignment(ctx context.Context, assignment *models.JuryAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

// HasAssignment reports whether the member was assigned the registration.
func (r *Repository) HasAssignment(ctx context.Context, juryMemberID uuid.UUID, registrationNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.JuryAssignment{}).
		Where("jury_member_id = ? AND registration_number = ?", juryMemberID, registrationNumber).
		Count(&count).Error
	return count > 0, err
}

// ListAssignments returns the member's queue, oldest first.
func (r *Repository) ListAssignments(ctx context.Context, juryMemberID uuid.UUID) ([]models.JuryAssignment, error) {
	var rows []models.JuryAssignment
	err := r.db.WithContext(ctx).
		Where("jury_member_id = ?", juryMemberID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListScores returns the member's submitted scores.
func (r *Repository) ListScores(ctx context.Context, juryMemberID uuid.UUID) ([]models.JuryScore, error) {
	var rows []models.JuryScore
	err := r.db.WithContext(ctx).
		Where("jury_member_id = ?", juryMemberID).
		Order("submitted_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListMemberIDs returns every jury member that holds at least one assignment.
func (r *Repository) ListMemberIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.JuryAssignment{}).
		Distinct("jury_member_id").
		Order("jury_member_id ASC").
		Pluck("jury_member_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
