package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/archfoundry/archcomp-backend/pkg/db/models"
	"github.com/archfoundry/archcomp-backend/pkg/enums"
)

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new cart.
func (r *Repository) Create(ctx context.Context, record *models.Cart) (*models.Cart, error) {
	if record.Status == "" {
		record.Status = enums.CartStatusActive
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// FindActiveByUser loads the newest ACTIVE cart for the user.
func (r *Repository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var record models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND status = ?", userID, enums.CartStatusActive).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByIDAndUser returns a cart restricted to its owner.
func (r *Repository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Cart, error) {
	var record models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByID loads a cart with items regardless of owner.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var record models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// AddItem appends an item to a cart.
func (r *Repository) AddItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// RemoveItem deletes one item from the user's cart.
func (r *Repository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// ClearItems removes every item from a cart.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// UpdateStatusIf flips a cart's status only when it still holds the expected
// one. Returns the number of rows changed.
func (r *Repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to enums.CartStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// ExpireActiveBefore marks ACTIVE carts whose expiry has passed as EXPIRED.
func (r *Repository) ExpireActiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("status = ? AND expires_at < ?", enums.CartStatusActive, cutoff).
		Update("status", enums.CartStatusExpired)
	return result.RowsAffected, result.Error
}

// ListUsersWithMultipleActive returns user ids holding more than one ACTIVE cart.
func (r *Repository) ListUsersWithMultipleActive(ctx context.Context) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Select("user_id").
		Where("status = ?", enums.CartStatusActive).
		Group("user_id").
		Having("COUNT(*) > 1").
		Find(&userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

// AbandonOlderActive marks every ACTIVE cart of the user except keepID as
// ABANDONED. Used by the newest-wins corrective pass.
func (r *Repository) AbandonOlderActive(ctx context.Context, userID, keepID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("user_id = ? AND status = ? AND id <> ?", userID, enums.CartStatusActive, keepID).
		Update("status", enums.CartStatusAbandoned)
	return result.RowsAffected, result.Error
}

// CountActiveByUser counts the user's ACTIVE carts.
func (r *Repository) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("user_id = ? AND status = ?", userID, enums.CartStatusActive).
		Count(&count).Error
	return count, err
}
