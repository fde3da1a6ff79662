package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ananth-NQI/clubhub-backend/internal/metrics"
	"github.com/Ananth-NQI/clubhub-backend/internal/models"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
	"github.com/Ananth-NQI/clubhub-backend/internal/utils"
)

// OTPValidity is how long an issued code can be redeemed
const OTPValidity = 10 * time.Minute

// IssuanceResult is the per-participant outcome of sending a code or link.
// It never carries the code itself.
type IssuanceResult struct {
	GRNumber       string    `json:"gr_number,omitempty"`
	Email          string    `json:"email"`
	DeliveryStatus string    `json:"delivery_status"`
	ExpiresAt      time.Time `json:"expires_at"`
	Error          string    `json:"error,omitempty"`
}

// Sent reports whether the email left successfully
func (r IssuanceResult) Sent() bool {
	return r.DeliveryStatus == models.DeliveryStatusSent
}

type OTPService struct {
	confirmer
	deps Dependencies
}

func NewOTPService(deps Dependencies) *OTPService {
	deps = deps.withDefaults()
	return &OTPService{confirmer: confirmer{deps: deps}, deps: deps}
}

// Issue creates a fresh code for one participant and emails it. A failed send
// leaves the stored row valid and marked failed; the caller gets a DeliveryError.
func (s *OTPService) Issue(ctx context.Context, grNumber, registrationID string) (IssuanceResult, error) {
	grNumber = models.NormalizeGR(grNumber)
	result := IssuanceResult{GRNumber: grNumber}

	student, err := s.deps.Store.GetStudent(ctx, grNumber)
	if errors.Is(err, storage.ErrNotFound) {
		return result, &StudentNotFoundError{Identifier: grNumber}
	}
	if err != nil {
		return result, fmt.Errorf("failed to look up student: %w", err)
	}
	result.Email = student.MaskedEmail()

	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return result, fmt.Errorf("failed to generate OTP: %w", err)
	}

	now := s.deps.Now()
	otp := &models.OTPVerification{
		RegistrationID: registrationID,
		GRNumber:       grNumber,
		OTPCode:        code,
		ExpiresAt:      now.Add(OTPValidity),
		CreatedAt:      now,
	}
	// Nothing is sent unless the row exists
	if err := s.deps.Store.CreateOTP(ctx, otp); err != nil {
		s.deps.Metrics.OTPIssued.WithLabelValues(metrics.OutcomeFailure).Inc()
		return result, fmt.Errorf("failed to store OTP: %w", err)
	}
	result.ExpiresAt = otp.ExpiresAt

	msg, err := renderOTPEmail(s.deps.Settings.EventTitle, student.Email, student.Name, code, OTPValidity, otp.ExpiresAt)
	if err == nil {
		err = s.deps.Mailer.Send(ctx, msg)
	}
	if err != nil {
		return s.deliveryFailed(ctx, result, otp.ID, student, err)
	}

	if err := s.deps.Store.UpdateOTPDelivery(ctx, otp.ID, models.DeliveryStatusSent, ""); err != nil {
		slog.Warn("Failed to record OTP delivery", "otp_id", otp.ID, "error", err)
	}
	s.deps.Metrics.OTPIssued.WithLabelValues(metrics.OutcomeSuccess).Inc()
	result.DeliveryStatus = models.DeliveryStatusSent
	slog.Info("📧 OTP sent", "registration_id", registrationID, "gr_number", grNumber)
	return result, nil
}

func (s *OTPService) deliveryFailed(ctx context.Context, result IssuanceResult, otpID string, student *models.Student, sendErr error) (IssuanceResult, error) {
	slog.Error("❌ Failed to send OTP email", "gr_number", student.GRNumber, "error", sendErr)
	if err := s.deps.Store.UpdateOTPDelivery(ctx, otpID, models.DeliveryStatusFailed, sendErr.Error()); err != nil {
		slog.Warn("Failed to record OTP delivery failure", "otp_id", otpID, "error", err)
	}
	s.deps.Metrics.OTPIssued.WithLabelValues(metrics.OutcomeFailure).Inc()

	result.DeliveryStatus = models.DeliveryStatusFailed
	result.Error = fmt.Sprintf("Failed to send OTP email. Please contact %s with your GR Number for manual verification.", s.deps.Settings.SupportContact)
	return result, &DeliveryError{Identifier: student.GRNumber, Email: student.Email, Err: sendErr, Fallback: result.Error}
}

// Reissue supersedes the participant's outstanding codes and issues a new one
func (s *OTPService) Reissue(ctx context.Context, grNumber, registrationID string) (IssuanceResult, error) {
	grNumber = models.NormalizeGR(grNumber)
	if err := s.deps.Store.SupersedeOTPs(ctx, registrationID, grNumber); err != nil {
		return IssuanceResult{GRNumber: grNumber}, fmt.Errorf("failed to supersede OTPs: %w", err)
	}
	return s.Issue(ctx, grNumber, registrationID)
}

// Verify redeems a code and confirms the registration once every participant
// has verified. It returns whether all participants are now verified.
func (s *OTPService) Verify(ctx context.Context, grNumber, registrationID, code string) (bool, error) {
	grNumber = models.NormalizeGR(grNumber)
	now := s.deps.Now()

	otp, err := s.deps.Store.FindUsableOTP(ctx, registrationID, grNumber, code, now)
	if errors.Is(err, storage.ErrNotFound) {
		s.deps.Metrics.OTPVerifications.WithLabelValues(metrics.OutcomeFailure).Inc()
		return false, ErrInvalidOTP
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up OTP: %w", err)
	}

	consumed, err := s.deps.Store.MarkOTPVerified(ctx, otp.ID, now)
	if err != nil {
		return false, fmt.Errorf("failed to mark OTP verified: %w", err)
	}
	if !consumed {
		// Another request redeemed it first
		s.deps.Metrics.OTPVerifications.WithLabelValues(metrics.OutcomeFailure).Inc()
		return false, ErrInvalidOTP
	}
	s.deps.Metrics.OTPVerifications.WithLabelValues(metrics.OutcomeSuccess).Inc()

	if err := s.deps.Store.MarkParticipantVerified(ctx, registrationID, grNumber); err != nil {
		slog.Warn("Failed to update participant snapshot", "registration_id", registrationID, "gr_number", grNumber, "error", err)
	}

	allVerified, err := s.allVerified(ctx, registrationID)
	if err != nil {
		return false, err
	}
	if !allVerified {
		return false, nil
	}

	if _, err := s.confirm(ctx, registrationID, "otp"); err != nil {
		return false, err
	}
	return true, nil
}

// allVerified requires every non-superseded row to be verified and every
// participant to hold at least one verified row
func (s *OTPService) allVerified(ctx context.Context, registrationID string) (bool, error) {
	otps, err := s.deps.Store.ListOTPs(ctx, registrationID)
	if err != nil {
		return false, fmt.Errorf("failed to list OTPs: %w", err)
	}
	verified := make(map[string]bool)
	for _, otp := range otps {
		if otp.Superseded {
			continue
		}
		if !otp.Verified {
			return false, nil
		}
		verified[otp.GRNumber] = true
	}

	participants, err := s.deps.Store.ListParticipants(ctx, registrationID)
	if err != nil {
		return false, fmt.Errorf("failed to list participants: %w", err)
	}
	for _, p := range participants {
		if !verified[p.GRNumber] {
			return false, nil
		}
	}
	return len(verified) > 0, nil
}
