package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/archfoundry/archcomp-backend/pkg/enums"
)

// AuditLog records manual admin interventions (payment overrides, cart
// reconciliation) with the stated reason. Append-only.
type AuditLog struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID    uuid.UUID         `gorm:"column:actor_id;type:uuid;not null"`
	Action     enums.AuditAction `gorm:"column:action;type:audit_action;not null"`
	EntityType string            `gorm:"column:entity_type;not null"`
	EntityID   string            `gorm:"column:entity_id;not null"`
	Reason     *string           `gorm:"column:reason"`
	Metadata   datatypes.JSON    `gorm:"column:metadata;type:jsonb"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
