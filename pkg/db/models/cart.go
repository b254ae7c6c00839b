package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/archfoundry/archcomp-backend/pkg/enums"
)

// Cart holds a user's in-progress registration selections before payment.
// A partial unique index on (user_id) WHERE status = 'active' backs the
// one-active-cart invariant.
type Cart struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	Status    enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	Currency  enums.Currency   `gorm:"column:currency;not null;default:'LKR'"`
	ExpiresAt time.Time        `gorm:"column:expires_at;not null"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// SubtotalCents sums the owned items.
func (c Cart) SubtotalCents() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.SubtotalCents
	}
	return total
}
