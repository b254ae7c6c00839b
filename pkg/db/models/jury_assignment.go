package models

import (
	"time"

	"github.com/google/uuid"
)

// JuryAssignment maps a jury member to a registration they must score.
type JuryAssignment struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JuryMemberID       uuid.UUID `gorm:"column:jury_member_id;type:uuid;not null;uniqueIndex:idx_jury_assignments_member_registration"`
	RegistrationNumber string    `gorm:"column:registration_number;not null;uniqueIndex:idx_jury_assignments_member_registration"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}
