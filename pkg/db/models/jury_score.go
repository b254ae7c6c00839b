package models

import (
	"time"

	"github.com/google/uuid"
)

// JuryScore is one jury member's rubric for one registration. The unique
// (jury_member_id, registration_number) key makes re-submission an overwrite.
type JuryScore struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JuryMemberID       uuid.UUID `gorm:"column:jury_member_id;type:uuid;not null;uniqueIndex:idx_jury_scores_member_registration"`
	RegistrationNumber string    `gorm:"column:registration_number;not null;uniqueIndex:idx_jury_scores_member_registration"`
	SiteContext        int       `gorm:"column:site_context;not null"`
	ConceptClarity     int       `gorm:"column:concept_clarity;not null"`
	SpatialQuality     int       `gorm:"column:spatial_quality;not null"`
	Functionality      int       `gorm:"column:functionality;not null"`
	Sustainability     int       `gorm:"column:sustainability;not null"`
	Materiality        int       `gorm:"column:materiality;not null"`
	DesignResolution   int       `gorm:"column:design_resolution;not null"`
	Presentation       int       `gorm:"column:presentation;not null"`
	Innovation         int       `gorm:"column:innovation;not null"`
	TotalScore         int       `gorm:"column:total_score;not null"`
	SubmittedAt        time.Time `gorm:"column:submitted_at;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
