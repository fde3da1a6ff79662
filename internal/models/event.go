package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is a club event that students register for
type Event struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	ClubName    string    `json:"club_name" gorm:"not null;index"`
	Description string    `json:"description"`
	PosterURL   *string   `json:"poster_url"`
	MinTeamSize int       `json:"min_team_size" gorm:"not null;default:1"`
	MaxTeamSize int       `json:"max_team_size" gorm:"not null;default:1"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns the event id
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// IsIndividual reports whether the event takes single-member registrations only
func (e *Event) IsIndividual() bool {
	return e.MaxTeamSize == 1
}

// AllowsTeamSize reports whether a team of n participants fits the event bounds
func (e *Event) AllowsTeamSize(n int) bool {
	return n >= e.MinTeamSize && n <= e.MaxTeamSize
}

// EventInput is the admin create/update payload
type EventInput struct {
	Name        string  `json:"name"`
	ClubName    string  `json:"club_name"`
	Description string  `json:"description"`
	PosterURL   *string `json:"poster_url"`
	MinTeamSize int     `json:"min_team_size"`
	MaxTeamSize int     `json:"max_team_size"`
}
