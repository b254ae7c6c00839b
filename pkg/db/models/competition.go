package models

import (
	"time"

	"github.com/google/uuid"
)

// Competition is one judged event registrants can enter.
type Competition struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug              string             `gorm:"column:slug;not null;uniqueIndex"`
	Title             string             `gorm:"column:title;not null"`
	Year              int                `gorm:"column:year;not null"`
	RegistrationOpens time.Time          `gorm:"column:registration_opens;not null"`
	RegistrationEnds  time.Time          `gorm:"column:registration_ends;not null"`
	IsActive          bool               `gorm:"column:is_active;not null;default:true"`
	RegistrationTypes []RegistrationType `gorm:"foreignKey:CompetitionID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
