package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTP delivery states
const (
	DeliveryStatusPending = "pending"
	DeliveryStatusSent    = "sent"
	DeliveryStatusFailed  = "failed"
)

// OTPVerification is one code issued to one participant of one registration
type OTPVerification struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	RegistrationID string     `json:"registration_id" gorm:"not null;index:idx_otp_lookup"`
	GRNumber       string     `json:"gr_number" gorm:"not null;index:idx_otp_lookup"`
	OTPCode        string     `json:"-" gorm:"not null"`
	ExpiresAt      time.Time  `json:"expires_at" gorm:"not null"`
	Verified       bool       `json:"verified" gorm:"not null;default:false"`
	VerifiedAt     *time.Time `json:"verified_at"`
	Superseded     bool       `json:"superseded" gorm:"not null;default:false"`
	DeliveryStatus string     `json:"delivery_status" gorm:"not null;default:pending"`
	DeliveryError  string     `json:"delivery_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// BeforeCreate assigns the row id
func (o *OTPVerification) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.DeliveryStatus == "" {
		o.DeliveryStatus = DeliveryStatusPending
	}
	return nil
}

// IsUsable reports whether the code can still be redeemed at the given instant
func (o *OTPVerification) IsUsable(now time.Time) bool {
	return !o.Verified && !o.Superseded && !o.ExpiresAt.Before(now)
}
