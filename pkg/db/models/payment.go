package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/archfoundry/archcomp-backend/pkg/enums"
	"github.com/archfoundry/archcomp-backend/pkg/types"
)

// Payment is one gateway transaction attempt. OrderID is the client-generated
// identifier quoted to PayHere; CartSnapshot pins the cart contents at
// initiation so materialization never reads a mutated live cart.
type Payment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          string              `gorm:"column:order_id;not null;uniqueIndex"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	MerchantID       string              `gorm:"column:merchant_id;not null"`
	Method           enums.PaymentMethod `gorm:"column:method;type:payment_method;not null;default:'payhere'"`
	Status           enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	AmountCents      int64               `gorm:"column:amount_cents;not null"`
	Currency         enums.Currency      `gorm:"column:currency;not null;default:'LKR'"`
	CartSnapshot     types.CartSnapshot  `gorm:"column:cart_snapshot;type:jsonb;serializer:json"`
	GatewayPaymentID *string             `gorm:"column:gateway_payment_id"`
	GatewayPayload   datatypes.JSON      `gorm:"column:gateway_payload;type:jsonb"`
	StatusReason     *string             `gorm:"column:status_reason"`
	CompletedAt      *time.Time          `gorm:"column:completed_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
