package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Registration statuses
const (
	RegistrationStatusPending   = "pending"
	RegistrationStatusConfirmed = "confirmed"
)

// Registration sources
const (
	RegistrationSourceGR     = "gr"
	RegistrationSourceDirect = "direct"
)

// TeamMember is a point-in-time identity snapshot embedded in a registration
type TeamMember struct {
	Name       string `json:"name"`
	Enrollment string `json:"enrollment"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Program    string `json:"program"`
	Semester   int    `json:"semester"`
	Verified   bool   `json:"verified"`
}

// Registration is one team's (or one student's) entry for an event
type Registration struct {
	ID      string `json:"id" gorm:"primaryKey"`
	EventID string `json:"event_id" gorm:"not null;index"`

	TeamLeaderGR         string `json:"team_leader_gr" gorm:"index"`
	TeamLeaderName       string `json:"team_leader_name" gorm:"not null"`
	TeamLeaderEnrollment string `json:"team_leader_enrollment" gorm:"not null"`
	TeamLeaderEmail      string `json:"team_leader_email" gorm:"not null;index"`
	TeamLeaderDepartment string `json:"team_leader_department"`
	TeamLeaderProgram    string `json:"team_leader_program"`
	TeamLeaderSemester   int    `json:"team_leader_semester"`
	TeamLeaderVerified   bool   `json:"team_leader_verified" gorm:"default:false"`

	TeamMembers datatypes.JSONSlice[TeamMember] `json:"team_members"`

	Source             string `json:"source" gorm:"not null;default:gr"`
	RegistrationStatus string `json:"registration_status" gorm:"not null;default:pending;index"`
	Verified           bool   `json:"verified" gorm:"default:false"`
	OTPVerified        bool   `json:"otp_verified" gorm:"default:false"`
	AllMembersVerified bool   `json:"all_members_verified" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the registration id
func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RegistrationStatus == "" {
		r.RegistrationStatus = RegistrationStatusPending
	}
	if r.Source == "" {
		r.Source = RegistrationSourceGR
	}
	return nil
}

// TeamSize counts the leader plus members
func (r *Registration) TeamSize() int {
	return 1 + len(r.TeamMembers)
}

// IsConfirmed reports whether the registration reached its terminal state
func (r *Registration) IsConfirmed() bool {
	return r.RegistrationStatus == RegistrationStatusConfirmed
}

// MarkParticipantVerified flips the snapshot flag for the leader or member
// identified by GR number, enrollment or email
func (r *Registration) MarkParticipantVerified(identifier string) bool {
	matches := func(enrollment, email string) bool {
		return strings.EqualFold(enrollment, identifier) || strings.EqualFold(email, identifier)
	}
	if matches(r.TeamLeaderEnrollment, r.TeamLeaderEmail) || (r.TeamLeaderGR != "" && strings.EqualFold(r.TeamLeaderGR, identifier)) {
		r.TeamLeaderVerified = true
		return true
	}
	for i := range r.TeamMembers {
		if matches(r.TeamMembers[i].Enrollment, r.TeamMembers[i].Email) {
			r.TeamMembers[i].Verified = true
			return true
		}
	}
	return false
}

// Confirm moves the registration to its terminal verified state
func (r *Registration) Confirm() {
	r.RegistrationStatus = RegistrationStatusConfirmed
	r.Verified = true
	r.AllMembersVerified = true
	r.TeamLeaderVerified = true
	for i := range r.TeamMembers {
		r.TeamMembers[i].Verified = true
	}
}

// Participant roles
const (
	ParticipantRoleLeader = "leader"
	ParticipantRoleMember = "member"
)

// RegistrationParticipant indexes registrations by GR number. At most one
// confirmed participation may exist per GR number.
type RegistrationParticipant struct {
	ID             uint      `json:"-" gorm:"primaryKey"`
	RegistrationID string    `json:"registration_id" gorm:"not null;index"`
	GRNumber       string    `json:"gr_number" gorm:"not null;index;uniqueIndex:idx_participant_confirmed_gr,where:confirmed = true"`
	Role           string    `json:"role" gorm:"not null"`
	Confirmed      bool      `json:"confirmed" gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegistrationFilter narrows admin listings
type RegistrationFilter struct {
	EventID string
	// Status is "verified", "pending" or empty for all
	Status string
	Search string
}
