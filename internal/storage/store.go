package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Ananth-NQI/clubhub-backend/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint
	ErrDuplicate = errors.New("duplicate record")
)

// Store defines the interface for storage operations
type Store interface {
	// Student directory
	GetStudent(ctx context.Context, grNumber string) (*models.Student, error)
	UpsertStudents(ctx context.Context, students []models.Student) error

	// Event catalog
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id string) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListEventsByClub(ctx context.Context, clubName string) ([]models.Event, error)

	// Clubs
	UpsertClubs(ctx context.Context, clubs []models.Club) error
	ListClubs(ctx context.Context) ([]models.Club, error)
	GetClub(ctx context.Context, id string) (*models.Club, error)

	// Registrations
	CreateRegistration(ctx context.Context, reg *models.Registration, participants []models.RegistrationParticipant) error
	GetRegistration(ctx context.Context, id string) (*models.Registration, error)
	UpdateRegistration(ctx context.Context, reg *models.Registration) error
	ListRegistrations(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error)
	ListParticipants(ctx context.Context, registrationID string) ([]models.RegistrationParticipant, error)
	HasConfirmedParticipation(ctx context.Context, grNumber string) (bool, error)
	FindRegistrationByLeaderEmail(ctx context.Context, eventID, email string) (*models.Registration, error)
	// MarkParticipantVerified sets the snapshot verified flag of one participant of a pending registration
	MarkParticipantVerified(ctx context.Context, registrationID, identifier string) error
	// ConfirmRegistration moves a registration to confirmed and marks its
	// participants confirmed. It reports false when it was already confirmed.
	ConfirmRegistration(ctx context.Context, id string) (*models.Registration, bool, error)

	// OTP verifications
	CreateOTP(ctx context.Context, otp *models.OTPVerification) error
	UpdateOTPDelivery(ctx context.Context, id, status, deliveryErr string) error
	FindUsableOTP(ctx context.Context, registrationID, grNumber, code string, now time.Time) (*models.OTPVerification, error)
	// MarkOTPVerified flips an unverified row to verified; false means it was already consumed
	MarkOTPVerified(ctx context.Context, id string, at time.Time) (bool, error)
	ListOTPs(ctx context.Context, registrationID string) ([]models.OTPVerification, error)
	SupersedeOTPs(ctx context.Context, registrationID, grNumber string) error

	// Email-link tokens
	CreateVerificationToken(ctx context.Context, token *models.VerificationToken) error
	GetVerificationToken(ctx context.Context, token string) (*models.VerificationToken, error)
	MarkTokenVerified(ctx context.Context, id string, at time.Time) (bool, error)
	ListVerificationTokens(ctx context.Context, registrationID string) ([]models.VerificationToken, error)

	// Admins
	CreateAdmin(ctx context.Context, admin *models.Admin) error
	GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error)

	Ping(ctx context.Context) error
}
