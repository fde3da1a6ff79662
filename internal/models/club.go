package models

import "gorm.io/datatypes"

// ClubContact is a convener or faculty contact listed on a club page
type ClubContact struct {
	Name  string `json:"name" yaml:"name"`
	Role  string `json:"role" yaml:"role"`
	Email string `json:"email" yaml:"email"`
	Phone string `json:"phone" yaml:"phone"`
}

// Club is a student club; events link to it by name
type Club struct {
	ID          string                           `json:"id" yaml:"id" gorm:"primaryKey"`
	Name        string                           `json:"name" yaml:"name" gorm:"not null;uniqueIndex"`
	ShortName   string                           `json:"short_name" yaml:"short_name"`
	Description string                           `json:"description" yaml:"description"`
	Vision      string                           `json:"vision" yaml:"vision"`
	Mission     string                           `json:"mission" yaml:"mission"`
	LogoURL     string                           `json:"logo_url" yaml:"logo_url"`
	Contacts    datatypes.JSONSlice[ClubContact] `json:"contacts" yaml:"contacts"`
	Events      []Event                          `json:"events,omitempty" yaml:"-" gorm:"-"`
}

// All returns every model the store migrates
func All() []interface{} {
	return []interface{}{
		&Student{},
		&Event{},
		&Club{},
		&Registration{},
		&RegistrationParticipant{},
		&OTPVerification{},
		&VerificationToken{},
		&Admin{},
	}
}
