package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Student is one row of the enrolled-student roster, keyed by GR number
type Student struct {
	GRNumber  string    `json:"gr_number" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"not null;index"`
	Class     string    `json:"class" gorm:"not null"`
	Semester  int       `json:"semester" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeSave normalizes identifiers so lookups are not sensitive to stray spaces or case
func (s *Student) BeforeSave(tx *gorm.DB) error {
	s.GRNumber = NormalizeGR(s.GRNumber)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	return nil
}

// NormalizeGR trims and upper-cases a GR number
func NormalizeGR(gr string) string {
	return strings.ToUpper(strings.TrimSpace(gr))
}

// MaskedEmail hides most of the local part, for public lookups
func (s *Student) MaskedEmail() string {
	at := strings.Index(s.Email, "@")
	if at <= 1 {
		return s.Email
	}
	return s.Email[:1] + strings.Repeat("*", at-1) + s.Email[at:]
}
