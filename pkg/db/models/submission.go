package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/archfoundry/archcomp-backend/pkg/enums"
)

// Submission is the one-to-one project entry behind a registration.
// IsValidated stays true across publish/unpublish cycles; a published
// submission is always validated.
type Submission struct {
	ID                 uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RegistrationID     uuid.UUID              `gorm:"column:registration_id;type:uuid;not null;uniqueIndex"`
	RegistrationNumber string                 `gorm:"column:registration_number;not null;uniqueIndex"`
	Status             enums.SubmissionStatus `gorm:"column:status;type:submission_status;not null;default:'draft'"`
	Title              string                 `gorm:"column:title"`
	Description        string                 `gorm:"column:description"`
	PanelURLs          pq.StringArray         `gorm:"column:panel_urls;type:text[]"`
	IsValidated        bool                   `gorm:"column:is_validated;not null;default:false"`
	ValidatorID        *uuid.UUID             `gorm:"column:validator_id;type:uuid"`
	ValidatedAt        *time.Time             `gorm:"column:validated_at"`
	ValidationNotes    *string                `gorm:"column:validation_notes"`
	RejectionReason    *string                `gorm:"column:rejection_reason"`
	SubmittedAt        *time.Time             `gorm:"column:submitted_at"`
	PublishedAt        *time.Time             `gorm:"column:published_at"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
