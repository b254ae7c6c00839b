package competitions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archfoundry/archcomp-backend/pkg/db/models"
)

// Repository exposes read access to competitions and their fee tiers.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a competitions repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a competition.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Competition, error) {
	var record models.Competition
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindRegistrationType loads a fee tier together with its competition.
func (r *Repository) FindRegistrationType(ctx context.Context, id uuid.UUID) (*models.RegistrationType, *models.Competition, error) {
	var regType models.RegistrationType
	if err := r.db.WithContext(ctx).First(&regType, "id = ?", id).Error; err != nil {
		return nil, nil, err
	}
	var competition models.Competition
	if err := r.db.WithContext(ctx).First(&competition, "id = ?", regType.CompetitionID).Error; err != nil {
		return nil, nil, err
	}
	return &regType, &competition, nil
}

// ListActive returns competitions currently open for registration.
func (r *Repository) ListActive(ctx context.Context) ([]models.Competition, error) {
	var rows []models.Competition
	err := r.db.WithContext(ctx).
		Preload("RegistrationTypes").
		Where("is_active = ?", true).
		Order("year DESC, title ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
