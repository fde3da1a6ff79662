package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Ananth-NQI/clubhub-backend/internal/metrics"
	"github.com/Ananth-NQI/clubhub-backend/internal/models"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
	"github.com/Ananth-NQI/clubhub-backend/internal/utils"
)

// VerificationLinkValidity is how long an emailed confirmation link works
const VerificationLinkValidity = 24 * time.Hour

// DirectParticipant is a typed-in participant for the direct-entry path
type DirectParticipant struct {
	Name       string `json:"name"`
	Enrollment string `json:"enrollment"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Program    string `json:"program"`
	Semester   int    `json:"semester"`
}

// DirectRequest is a registration submitted without the student directory
type DirectRequest struct {
	EventID string              `json:"event_id"`
	Leader  DirectParticipant   `json:"leader"`
	Members []DirectParticipant `json:"members"`
}

type DirectRegistrationService struct {
	confirmer
	deps Dependencies
}

func NewDirectRegistrationService(deps Dependencies) *DirectRegistrationService {
	deps = deps.withDefaults()
	return &DirectRegistrationService{confirmer: confirmer{deps: deps}, deps: deps}
}

// Register stores a direct-entry registration. Individual events are confirmed
// immediately; team events wait for every participant to follow their email link.
func (s *DirectRegistrationService) Register(ctx context.Context, req DirectRequest) (*SubmitResult, error) {
	result, err := s.register(ctx, req)
	s.deps.Metrics.Registrations.WithLabelValues(models.RegistrationSourceDirect, metrics.Outcome(err)).Inc()
	return result, err
}

func (s *DirectRegistrationService) register(ctx context.Context, req DirectRequest) (*SubmitResult, error) {
	if err := s.validateParticipant("leader", req.Leader); err != nil {
		return nil, err
	}
	members := make([]DirectParticipant, 0, len(req.Members))
	for i, member := range req.Members {
		if member == (DirectParticipant{}) {
			continue
		}
		if err := s.validateParticipant(fmt.Sprintf("members[%d]", i), member); err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	emails := map[string]bool{strings.ToLower(strings.TrimSpace(req.Leader.Email)): true}
	for _, member := range members {
		email := strings.ToLower(strings.TrimSpace(member.Email))
		if emails[email] {
			return nil, newValidationError("members", "email %s appears more than once", email)
		}
		emails[email] = true
	}

	event, err := s.deps.Store.GetEvent(ctx, req.EventID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if size := 1 + len(members); !event.AllowsTeamSize(size) {
		return nil, newValidationError("members", "team size must be between %d and %d, got %d",
			event.MinTeamSize, event.MaxTeamSize, size)
	}

	leaderEmail := strings.ToLower(strings.TrimSpace(req.Leader.Email))
	_, err = s.deps.Store.FindRegistrationByLeaderEmail(ctx, event.ID, leaderEmail)
	if err == nil {
		return nil, &AlreadyRegisteredError{Identifier: leaderEmail}
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing registrations: %w", err)
	}

	reg := &models.Registration{
		EventID:              event.ID,
		TeamLeaderName:       strings.TrimSpace(req.Leader.Name),
		TeamLeaderEnrollment: strings.TrimSpace(req.Leader.Enrollment),
		TeamLeaderEmail:      leaderEmail,
		TeamLeaderDepartment: strings.TrimSpace(req.Leader.Department),
		TeamLeaderProgram:    strings.TrimSpace(req.Leader.Program),
		TeamLeaderSemester:   req.Leader.Semester,
		Source:               models.RegistrationSourceDirect,
		RegistrationStatus:   models.RegistrationStatusPending,
	}
	for _, member := range members {
		reg.TeamMembers = append(reg.TeamMembers, models.TeamMember{
			Name:       strings.TrimSpace(member.Name),
			Enrollment: strings.TrimSpace(member.Enrollment),
			Email:      strings.ToLower(strings.TrimSpace(member.Email)),
			Department: strings.TrimSpace(member.Department),
			Program:    strings.TrimSpace(member.Program),
			Semester:   member.Semester,
		})
	}

	individual := event.IsIndividual()
	if individual {
		reg.Confirm()
	}
	if err := s.deps.Store.CreateRegistration(ctx, reg, nil); err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}
	slog.Info("📝 Direct registration created", "registration_id", reg.ID, "event_id", event.ID, "individual", individual)

	if individual {
		s.deps.Metrics.Confirmations.WithLabelValues("direct").Inc()
		if err := s.deps.Publisher.PublishConfirmed(ctx, confirmationEvent(reg, "direct", s.deps.Now())); err != nil {
			slog.Warn("Failed to publish confirmation", "registration_id", reg.ID, "error", err)
		}
		return &SubmitResult{Registration: reg}, nil
	}

	return &SubmitResult{Registration: reg, Issuance: s.sendLinks(ctx, event, reg)}, nil
}

func (s *DirectRegistrationService) validateParticipant(field string, p DirectParticipant) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return newValidationError(field+".name", "name is required")
	case strings.TrimSpace(p.Enrollment) == "":
		return newValidationError(field+".enrollment", "enrollment number is required")
	case strings.TrimSpace(p.Email) == "":
		return newValidationError(field+".email", "email is required")
	case strings.TrimSpace(p.Program) == "":
		return newValidationError(field+".program", "program is required")
	case !s.deps.inDomain(p.Email):
		return newValidationError(field+".email", "email must be a @%s address", s.deps.Settings.EmailDomain)
	case p.Semester < 1 || p.Semester > 8:
		return newValidationError(field+".semester", "semester must be between 1 and 8")
	}
	return nil
}

// sendLinks creates one token per participant and emails the links concurrently
func (s *DirectRegistrationService) sendLinks(ctx context.Context, event *models.Event, reg *models.Registration) []IssuanceResult {
	type recipient struct{ name, email string }
	recipients := []recipient{{reg.TeamLeaderName, reg.TeamLeaderEmail}}
	for _, member := range reg.TeamMembers {
		recipients = append(recipients, recipient{member.Name, member.Email})
	}

	results := make([]IssuanceResult, len(recipients))
	var wg sync.WaitGroup
	for i, r := range recipients {
		wg.Add(1)
		go func(i int, r recipient) {
			defer wg.Done()
			results[i] = s.sendLink(ctx, event, reg.ID, r.name, r.email)
		}(i, r)
	}
	wg.Wait()
	return results
}

func (s *DirectRegistrationService) sendLink(ctx context.Context, event *models.Event, registrationID, name, email string) IssuanceResult {
	result := IssuanceResult{Email: email, DeliveryStatus: models.DeliveryStatusFailed}

	secret, err := utils.GenerateSecureToken(32)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	now := s.deps.Now()
	token := &models.VerificationToken{
		RegistrationID: registrationID,
		Email:          email,
		Token:          secret,
		ExpiresAt:      now.Add(VerificationLinkValidity),
		CreatedAt:      now,
	}
	if err := s.deps.Store.CreateVerificationToken(ctx, token); err != nil {
		slog.Error("❌ Failed to store verification token", "registration_id", registrationID, "error", err)
		result.Error = err.Error()
		return result
	}
	result.ExpiresAt = token.ExpiresAt

	link := fmt.Sprintf("%s/api/verify-email?token=%s", s.deps.Settings.PublicBaseURL, url.QueryEscape(secret))
	msg, err := renderVerificationLinkEmail(s.deps.Settings.EventTitle, event.Name, email, name, link, token.ExpiresAt)
	if err == nil {
		err = s.deps.Mailer.Send(ctx, msg)
	}
	if err != nil {
		slog.Error("❌ Failed to send verification link", "registration_id", registrationID, "email", email, "error", err)
		result.Error = fmt.Sprintf("Failed to send verification email. Please contact %s for manual verification.", s.deps.Settings.SupportContact)
		return result
	}
	result.DeliveryStatus = models.DeliveryStatusSent
	return result
}

// VerifyEmailToken redeems a link token and confirms the registration once
// every participant's token is verified. Redeeming a token twice is harmless.
func (s *DirectRegistrationService) VerifyEmailToken(ctx context.Context, secret string) (*VerificationResult, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, newValidationError("token", "verification token is required")
	}
	token, err := s.deps.Store.GetVerificationToken(ctx, secret)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load verification token: %w", err)
	}

	now := s.deps.Now()
	if !token.Verified {
		if token.ExpiresAt.Before(now) {
			return nil, ErrNotFound
		}
		if _, err := s.deps.Store.MarkTokenVerified(ctx, token.ID, now); err != nil {
			return nil, fmt.Errorf("failed to mark token verified: %w", err)
		}
		if err := s.deps.Store.MarkParticipantVerified(ctx, token.RegistrationID, token.Email); err != nil {
			slog.Warn("Failed to update participant snapshot", "registration_id", token.RegistrationID, "error", err)
		}
	}

	reg, err := s.deps.Store.GetRegistration(ctx, token.RegistrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}
	allVerified, err := s.allLinksVerified(ctx, reg)
	if err != nil {
		return nil, err
	}

	if allVerified {
		reg, err := s.confirm(ctx, token.RegistrationID, "email_link")
		if err != nil {
			return nil, err
		}
		return &VerificationResult{AllVerified: true, Registration: reg}, nil
	}

	return &VerificationResult{Registration: reg}, nil
}

// allLinksVerified requires a verified token for the leader and every member
// of the snapshot. A participant whose token was never stored holds it back.
func (s *DirectRegistrationService) allLinksVerified(ctx context.Context, reg *models.Registration) (bool, error) {
	tokens, err := s.deps.Store.ListVerificationTokens(ctx, reg.ID)
	if err != nil {
		return false, fmt.Errorf("failed to list verification tokens: %w", err)
	}
	verified := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if t.Verified {
			verified[strings.ToLower(t.Email)] = true
		}
	}

	if !verified[strings.ToLower(reg.TeamLeaderEmail)] {
		return false, nil
	}
	for _, member := range reg.TeamMembers {
		if !verified[strings.ToLower(member.Email)] {
			return false, nil
		}
	}
	return true, nil
}
