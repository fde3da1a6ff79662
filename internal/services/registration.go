package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Ananth-NQI/clubhub-backend/internal/metrics"
	"github.com/Ananth-NQI/clubhub-backend/internal/models"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
)

// SubmitRequest is a GR-number registration
type SubmitRequest struct {
	EventID   string   `json:"event_id"`
	LeaderGR  string   `json:"leader_gr"`
	MemberGRs []string `json:"member_grs"`
}

// SubmitResult carries the new registration and how each OTP send went
type SubmitResult struct {
	Registration *models.Registration `json:"registration"`
	Issuance     []IssuanceResult     `json:"issuance"`
}

// DeliveryFailures counts participants whose email did not go out
func (r *SubmitResult) DeliveryFailures() int {
	failed := 0
	for _, issued := range r.Issuance {
		if !issued.Sent() {
			failed++
		}
	}
	return failed
}

// VerificationResult is returned after a code or link is redeemed
type VerificationResult struct {
	AllVerified  bool                 `json:"all_verified"`
	Registration *models.Registration `json:"registration"`
}

// ParticipantStatus is one participant's progress through verification
type ParticipantStatus struct {
	GRNumber       string     `json:"gr_number"`
	Role           string     `json:"role"`
	Verified       bool       `json:"verified"`
	DeliveryStatus string     `json:"delivery_status,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// RegistrationStatus is the public view of a registration
type RegistrationStatus struct {
	Registration *models.Registration `json:"registration"`
	Participants []ParticipantStatus  `json:"participants"`
}

type RegistrationService struct {
	deps Dependencies
	otp  *OTPService
}

func NewRegistrationService(deps Dependencies, otp *OTPService) *RegistrationService {
	deps = deps.withDefaults()
	if otp == nil {
		otp = NewOTPService(deps)
	}
	return &RegistrationService{deps: deps, otp: otp}
}

// Submit validates a team, checks nobody is already registered, stores the
// pending registration and sends every participant a code
func (s *RegistrationService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	result, err := s.submit(ctx, req)
	s.deps.Metrics.Registrations.WithLabelValues(models.RegistrationSourceGR, metrics.Outcome(err)).Inc()
	return result, err
}

func (s *RegistrationService) submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	leader := models.NormalizeGR(req.LeaderGR)
	if leader == "" {
		return nil, newValidationError("leader_gr", "team leader GR Number is required")
	}
	var members []string
	for _, gr := range req.MemberGRs {
		if gr = models.NormalizeGR(gr); gr != "" {
			members = append(members, gr)
		}
	}

	event, err := s.deps.Store.GetEvent(ctx, req.EventID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	size := 1 + len(members)
	if !event.AllowsTeamSize(size) {
		return nil, newValidationError("member_grs", "team size must be between %d and %d, got %d",
			event.MinTeamSize, event.MaxTeamSize, size)
	}

	identifiers := append([]string{leader}, members...)
	seen := make(map[string]bool, len(identifiers))
	for _, gr := range identifiers {
		if seen[gr] {
			return nil, newValidationError("member_grs", "GR Number %s appears more than once", gr)
		}
		seen[gr] = true
	}

	// Checked in order; the first hit ends the check
	for _, gr := range identifiers {
		taken, err := s.deps.Store.HasConfirmedParticipation(ctx, gr)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing registrations: %w", err)
		}
		if taken {
			return nil, &AlreadyRegisteredError{Identifier: gr}
		}
	}

	students := make([]*models.Student, 0, len(identifiers))
	for _, gr := range identifiers {
		student, err := s.deps.Store.GetStudent(ctx, gr)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &StudentNotFoundError{Identifier: gr}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up student: %w", err)
		}
		students = append(students, student)
	}

	reg, participants := s.buildRegistration(event, students)
	if err := s.deps.Store.CreateRegistration(ctx, reg, participants); err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}
	slog.Info("📝 Registration created", "registration_id", reg.ID, "event_id", event.ID, "team_size", size)

	return &SubmitResult{Registration: reg, Issuance: s.issueAll(ctx, reg.ID, identifiers)}, nil
}

func (s *RegistrationService) buildRegistration(event *models.Event, students []*models.Student) (*models.Registration, []models.RegistrationParticipant) {
	leader := students[0]
	reg := &models.Registration{
		EventID:              event.ID,
		TeamLeaderGR:         leader.GRNumber,
		TeamLeaderName:       leader.Name,
		TeamLeaderEnrollment: leader.GRNumber,
		TeamLeaderEmail:      leader.Email,
		TeamLeaderDepartment: leader.Class,
		TeamLeaderProgram:    s.deps.Settings.DefaultProgram,
		TeamLeaderSemester:   leader.Semester,
		Source:               models.RegistrationSourceGR,
		RegistrationStatus:   models.RegistrationStatusPending,
	}
	participants := []models.RegistrationParticipant{{GRNumber: leader.GRNumber, Role: models.ParticipantRoleLeader}}

	for _, member := range students[1:] {
		reg.TeamMembers = append(reg.TeamMembers, models.TeamMember{
			Name:       member.Name,
			Enrollment: member.GRNumber,
			Email:      member.Email,
			Department: member.Class,
			Program:    s.deps.Settings.DefaultProgram,
			Semester:   member.Semester,
		})
		participants = append(participants, models.RegistrationParticipant{GRNumber: member.GRNumber, Role: models.ParticipantRoleMember})
	}
	return reg, participants
}

// issueAll sends codes concurrently. Failures are reported per participant
// and do not undo the registration.
func (s *RegistrationService) issueAll(ctx context.Context, registrationID string, identifiers []string) []IssuanceResult {
	results := make([]IssuanceResult, len(identifiers))
	var wg sync.WaitGroup
	for i, gr := range identifiers {
		wg.Add(1)
		go func(i int, gr string) {
			defer wg.Done()
			result, err := s.otp.Issue(ctx, gr, registrationID)
			if err != nil {
				var delivery *DeliveryError
				if !errors.As(err, &delivery) {
					slog.Error("❌ OTP issuance failed", "registration_id", registrationID, "gr_number", gr, "error", err)
					result.DeliveryStatus = models.DeliveryStatusFailed
					result.Error = err.Error()
				}
			}
			results[i] = result
		}(i, gr)
	}
	wg.Wait()
	return results
}

// SubmitVerificationCode redeems one participant's code
func (s *RegistrationService) SubmitVerificationCode(ctx context.Context, registrationID, grNumber, code string) (*VerificationResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, newValidationError("otp_code", "OTP code is required")
	}
	if models.NormalizeGR(grNumber) == "" {
		return nil, newValidationError("gr_number", "GR Number is required")
	}
	if _, err := s.getRegistration(ctx, registrationID); err != nil {
		return nil, err
	}

	allVerified, err := s.otp.Verify(ctx, grNumber, registrationID, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	return &VerificationResult{AllVerified: allVerified, Registration: reg}, nil
}

// ReissueOTP is the recovery path for a participant whose code was lost or expired
func (s *RegistrationService) ReissueOTP(ctx context.Context, registrationID, grNumber string) (IssuanceResult, error) {
	grNumber = models.NormalizeGR(grNumber)
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return IssuanceResult{}, err
	}
	if reg.IsConfirmed() {
		return IssuanceResult{}, ErrRegistrationClosed
	}
	if reg.Source != models.RegistrationSourceGR {
		return IssuanceResult{}, newValidationError("registration", "registration is verified by email link, not OTP")
	}

	participants, err := s.deps.Store.ListParticipants(ctx, registrationID)
	if err != nil {
		return IssuanceResult{}, fmt.Errorf("failed to list participants: %w", err)
	}
	for _, p := range participants {
		if p.GRNumber == grNumber {
			return s.otp.Reissue(ctx, grNumber, registrationID)
		}
	}
	return IssuanceResult{}, newValidationError("gr_number", "%s is not part of this registration", grNumber)
}

// GetStatus reports the registration with each participant's latest code state
func (s *RegistrationService) GetStatus(ctx context.Context, registrationID string) (*RegistrationStatus, error) {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	participants, err := s.deps.Store.ListParticipants(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	otps, err := s.deps.Store.ListOTPs(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list OTPs: %w", err)
	}

	latest := make(map[string]models.OTPVerification)
	for _, otp := range otps {
		if otp.Superseded {
			continue
		}
		if current, ok := latest[otp.GRNumber]; !ok || otp.CreatedAt.After(current.CreatedAt) {
			latest[otp.GRNumber] = otp
		}
	}

	status := &RegistrationStatus{Registration: reg}
	for _, p := range participants {
		ps := ParticipantStatus{GRNumber: p.GRNumber, Role: p.Role, Verified: reg.IsConfirmed()}
		if otp, ok := latest[p.GRNumber]; ok {
			ps.Verified = ps.Verified || otp.Verified
			ps.DeliveryStatus = otp.DeliveryStatus
			expires := otp.ExpiresAt
			ps.ExpiresAt = &expires
		}
		status.Participants = append(status.Participants, ps)
	}
	return status, nil
}

func (s *RegistrationService) getRegistration(ctx context.Context, id string) (*models.Registration, error) {
	reg, err := s.deps.Store.GetRegistration(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}
	return reg, nil
}
