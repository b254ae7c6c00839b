package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/archfoundry/archcomp-backend/pkg/enums"
	"github.com/archfoundry/archcomp-backend/pkg/types"
)

// Registration is a confirmed, paid competition entry. It is only ever
// created by the materializer off a completed payment.
type Registration struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RegistrationNumber string                   `gorm:"column:registration_number;not null;uniqueIndex"`
	DisplayCode        *string                  `gorm:"column:display_code;uniqueIndex"`
	PaymentID          uuid.UUID                `gorm:"column:payment_id;type:uuid;not null;index"`
	UserID             uuid.UUID                `gorm:"column:user_id;type:uuid;not null"`
	CompetitionID      uuid.UUID                `gorm:"column:competition_id;type:uuid;not null"`
	RegistrationTypeID uuid.UUID                `gorm:"column:registration_type_id;type:uuid;not null"`
	Status             enums.RegistrationStatus `gorm:"column:status;type:registration_status;not null;default:'pending'"`
	AmountPaidCents    int64                    `gorm:"column:amount_paid_cents;not null"`
	Roster             types.Roster             `gorm:"column:roster;type:jsonb;serializer:json"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
