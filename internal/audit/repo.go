package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/archfoundry/archcomp-backend/pkg/db/models"
)

// Repository is the append-only store for manual intervention records. There
// is no update or delete surface on purpose.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an audit repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record appends an audit entry, joining the caller's transaction when one is
// supplied so the entry commits or rolls back with the intervention itself.
func (r *Repository) Record(ctx context.Context, tx *gorm.DB, entry models.AuditLog) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Create(&entry).Error
}

// ListByEntity returns the intervention history for one entity, newest first.
func (r *Repository) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
