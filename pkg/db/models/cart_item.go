package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/archfoundry/archcomp-backend/pkg/types"
)

// CartItem is one pending registration selection owned by a Cart.
type CartItem struct {
	ID                 uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID             uuid.UUID    `gorm:"column:cart_id;type:uuid;not null"`
	CompetitionID      uuid.UUID    `gorm:"column:competition_id;type:uuid;not null"`
	RegistrationTypeID uuid.UUID    `gorm:"column:registration_type_id;type:uuid;not null"`
	Roster             types.Roster `gorm:"column:roster;type:jsonb;serializer:json"`
	SubtotalCents      int64        `gorm:"column:subtotal_cents;not null"`
	CreatedAt          time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
