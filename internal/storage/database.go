package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ananth-NQI/clubhub-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM (PostgreSQL in production, SQLite locally)
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore wraps an open GORM connection
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Migrate creates or updates every table the store uses
func (s *DatabaseStore) Migrate() error {
	return s.db.AutoMigrate(models.All()...)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// Student operations
func (s *DatabaseStore) GetStudent(ctx context.Context, grNumber string) (*models.Student, error) {
	var student models.Student
	err := s.db.WithContext(ctx).Where("gr_number = ?", models.NormalizeGR(grNumber)).First(&student).Error
	if err != nil {
		return nil, translate(err)
	}
	return &student, nil
}

func (s *DatabaseStore) UpsertStudents(ctx context.Context, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gr_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "class", "semester", "updated_at"}),
	}).CreateInBatches(&students, 200).Error
	return translate(err)
}

// Event operations
func (s *DatabaseStore) CreateEvent(ctx context.Context, event *models.Event) error {
	return translate(s.db.WithContext(ctx).Create(event).Error)
}

func (s *DatabaseStore) UpdateEvent(ctx context.Context, event *models.Event) error {
	result := s.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", event.ID).Updates(map[string]interface{}{
		"name":          event.Name,
		"club_name":     event.ClubName,
		"description":   event.Description,
		"poster_url":    event.PosterURL,
		"min_team_size": event.MinTeamSize,
		"max_team_size": event.MaxTeamSize,
	})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DatabaseStore) DeleteEvent(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Event{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DatabaseStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := s.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (s *DatabaseStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).Order("club_name, name").Find(&events).Error
	return events, translate(err)
}

func (s *DatabaseStore) ListEventsByClub(ctx context.Context, clubName string) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).Where("club_name = ?", clubName).Order("name").Find(&events).Error
	return events, translate(err)
}

// Club operations
func (s *DatabaseStore) UpsertClubs(ctx context.Context, clubs []models.Club) error {
	if len(clubs) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&clubs).Error
	return translate(err)
}

func (s *DatabaseStore) ListClubs(ctx context.Context) ([]models.Club, error) {
	var clubs []models.Club
	err := s.db.WithContext(ctx).Order("name").Find(&clubs).Error
	return clubs, translate(err)
}

func (s *DatabaseStore) GetClub(ctx context.Context, id string) (*models.Club, error) {
	var club models.Club
	if err := s.db.WithContext(ctx).First(&club, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &club, nil
}

// Registration operations
func (s *DatabaseStore) CreateRegistration(ctx context.Context, reg *models.Registration, participants []models.RegistrationParticipant) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reg).Error; err != nil {
			return err
		}
		if len(participants) == 0 {
			return nil
		}
		for i := range participants {
			participants[i].RegistrationID = reg.ID
		}
		return tx.Create(&participants).Error
	})
	return translate(err)
}

func (s *DatabaseStore) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	var reg models.Registration
	if err := s.db.WithContext(ctx).First(&reg, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

func (s *DatabaseStore) UpdateRegistration(ctx context.Context, reg *models.Registration) error {
	return translate(s.db.WithContext(ctx).Save(reg).Error)
}

func (s *DatabaseStore) ListRegistrations(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	query := s.db.WithContext(ctx).Model(&models.Registration{})
	if filter.EventID != "" {
		query = query.Where("event_id = ?", filter.EventID)
	}
	switch filter.Status {
	case "verified":
		query = query.Where("verified = ?", true)
	case "pending":
		query = query.Where("verified = ?", false)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(team_leader_name) LIKE ? OR LOWER(team_leader_email) LIKE ? OR LOWER(team_leader_enrollment) LIKE ?)", like, like, like)
	}

	var regs []models.Registration
	err := query.Order("created_at DESC").Find(&regs).Error
	return regs, translate(err)
}

func (s *DatabaseStore) ListParticipants(ctx context.Context, registrationID string) ([]models.RegistrationParticipant, error) {
	var participants []models.RegistrationParticipant
	err := s.db.WithContext(ctx).Where("registration_id = ?", registrationID).Order("id").Find(&participants).Error
	return participants, translate(err)
}

func (s *DatabaseStore) HasConfirmedParticipation(ctx context.Context, grNumber string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RegistrationParticipant{}).
		Where("gr_number = ? AND confirmed = ?", models.NormalizeGR(grNumber), true).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (s *DatabaseStore) FindRegistrationByLeaderEmail(ctx context.Context, eventID, email string) (*models.Registration, error) {
	var reg models.Registration
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND LOWER(team_leader_email) = ?", eventID, strings.ToLower(strings.TrimSpace(email))).
		First(&reg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

func (s *DatabaseStore) MarkParticipantVerified(ctx context.Context, registrationID, identifier string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg models.Registration
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reg, "id = ?", registrationID).Error; err != nil {
			return err
		}
		if reg.IsConfirmed() || !reg.MarkParticipantVerified(identifier) {
			return nil
		}
		return tx.Model(&reg).Updates(map[string]interface{}{
			"team_leader_verified": reg.TeamLeaderVerified,
			"team_members":         reg.TeamMembers,
		}).Error
	})
	return translate(err)
}

func (s *DatabaseStore) ConfirmRegistration(ctx context.Context, id string) (*models.Registration, bool, error) {
	var reg models.Registration
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reg, "id = ?", id).Error; err != nil {
			return err
		}
		if reg.IsConfirmed() {
			return nil
		}
		reg.Confirm()
		if reg.Source == models.RegistrationSourceGR {
			reg.OTPVerified = true
		}
		if err := tx.Save(&reg).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.RegistrationParticipant{}).
			Where("registration_id = ?", id).
			Update("confirmed", true).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, translate(err)
	}
	return &reg, changed, nil
}

// OTP operations
func (s *DatabaseStore) CreateOTP(ctx context.Context, otp *models.OTPVerification) error {
	return translate(s.db.WithContext(ctx).Create(otp).Error)
}

func (s *DatabaseStore) UpdateOTPDelivery(ctx context.Context, id, status, deliveryErr string) error {
	err := s.db.WithContext(ctx).Model(&models.OTPVerification{}).Where("id = ?", id).
		Updates(map[string]interface{}{"delivery_status": status, "delivery_error": deliveryErr}).Error
	return translate(err)
}

func (s *DatabaseStore) FindUsableOTP(ctx context.Context, registrationID, grNumber, code string, now time.Time) (*models.OTPVerification, error) {
	var otp models.OTPVerification
	err := s.db.WithContext(ctx).
		Where("registration_id = ? AND gr_number = ? AND otp_code = ?", registrationID, models.NormalizeGR(grNumber), code).
		Where("verified = ? AND superseded = ? AND expires_at >= ?", false, false, now.UTC()).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &otp, nil
}

func (s *DatabaseStore) MarkOTPVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.OTPVerification{}).
		Where("id = ? AND verified = ?", id, false).
		Updates(map[string]interface{}{"verified": true, "verified_at": at})
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *DatabaseStore) ListOTPs(ctx context.Context, registrationID string) ([]models.OTPVerification, error) {
	var otps []models.OTPVerification
	err := s.db.WithContext(ctx).Where("registration_id = ?", registrationID).Order("created_at").Find(&otps).Error
	return otps, translate(err)
}

func (s *DatabaseStore) SupersedeOTPs(ctx context.Context, registrationID, grNumber string) error {
	err := s.db.WithContext(ctx).Model(&models.OTPVerification{}).
		Where("registration_id = ? AND gr_number = ? AND verified = ?", registrationID, models.NormalizeGR(grNumber), false).
		Update("superseded", true).Error
	return translate(err)
}

// Verification token operations
func (s *DatabaseStore) CreateVerificationToken(ctx context.Context, token *models.VerificationToken) error {
	return translate(s.db.WithContext(ctx).Create(token).Error)
}

func (s *DatabaseStore) GetVerificationToken(ctx context.Context, token string) (*models.VerificationToken, error) {
	var vt models.VerificationToken
	if err := s.db.WithContext(ctx).First(&vt, "token = ?", token).Error; err != nil {
		return nil, translate(err)
	}
	return &vt, nil
}

func (s *DatabaseStore) MarkTokenVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.VerificationToken{}).
		Where("id = ? AND verified = ?", id, false).
		Updates(map[string]interface{}{"verified": true, "verified_at": at})
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *DatabaseStore) ListVerificationTokens(ctx context.Context, registrationID string) ([]models.VerificationToken, error) {
	var tokens []models.VerificationToken
	err := s.db.WithContext(ctx).Where("registration_id = ?", registrationID).Find(&tokens).Error
	return tokens, translate(err)
}

// Admin operations
func (s *DatabaseStore) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	return translate(s.db.WithContext(ctx).Create(admin).Error)
}

func (s *DatabaseStore) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	if err := s.db.WithContext(ctx).First(&admin, "username = ?", username).Error; err != nil {
		return nil, translate(err)
	}
	return &admin, nil
}

func (s *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
