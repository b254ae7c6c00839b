package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/archfoundry/archcomp-backend/pkg/enums"
)

// RegistrationType is a fee tier within a competition (individual, team,
// company). MaxTeamSize bounds the roster a cart item may carry.
type RegistrationType struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompetitionID uuid.UUID      `gorm:"column:competition_id;type:uuid;not null"`
	Code          string         `gorm:"column:code;not null"`
	Label         string         `gorm:"column:label;not null"`
	FeeCents      int64          `gorm:"column:fee_cents;not null"`
	Currency      enums.Currency `gorm:"column:currency;not null;default:'LKR'"`
	MaxTeamSize   int            `gorm:"column:max_team_size;not null;default:1"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
