package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationToken is an email-link token for direct-entry team registrations
type VerificationToken struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	RegistrationID string     `json:"registration_id" gorm:"not null;index"`
	Email          string     `json:"email" gorm:"not null"`
	Token          string     `json:"-" gorm:"not null;uniqueIndex"`
	ExpiresAt      time.Time  `json:"expires_at"`
	Verified       bool       `json:"verified" gorm:"default:false"`
	VerifiedAt     *time.Time `json:"verified_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (v *VerificationToken) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
