package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/archfoundry/archcomp-backend/pkg/enums"
)

// User is the local projection of the identity provider's account record.
// Authentication itself happens upstream; we only need the id, contact
// fields and platform role.
type User struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Email     string           `gorm:"column:email;not null;uniqueIndex"`
	FullName  string           `gorm:"column:full_name;not null"`
	Role      enums.MemberRole `gorm:"column:role;type:member_role;not null;default:'registrant'"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
