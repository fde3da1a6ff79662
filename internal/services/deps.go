package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Ananth-NQI/clubhub-backend/internal/metrics"
	"github.com/Ananth-NQI/clubhub-backend/internal/models"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
)

// Settings are the deployment-specific strings the workflows need
type Settings struct {
	EventTitle     string
	SupportContact string
	EmailDomain    string
	PublicBaseURL  string
	// DefaultProgram fills the program field of directory-resolved snapshots
	DefaultProgram string
}

// Dependencies wires the collaborators shared by the services
type Dependencies struct {
	Store     storage.Store
	Mailer    Mailer
	Publisher Publisher
	Metrics   *metrics.Metrics
	Settings  Settings
	// Now defaults to time.Now; tests replace it to move across expiry
	Now func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Publisher == nil {
		d.Publisher = NoopPublisher{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Mailer == nil {
		d.Mailer = &LogMailer{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Settings.EventTitle == "" {
		d.Settings.EventTitle = "Engineer's Day"
	}
	if d.Settings.SupportContact == "" {
		d.Settings.SupportContact = "the ICT Department"
	}
	if d.Settings.EmailDomain == "" {
		d.Settings.EmailDomain = "marwadiuniversity.ac.in"
	}
	if d.Settings.PublicBaseURL == "" {
		d.Settings.PublicBaseURL = "http://localhost:8080"
	}
	if d.Settings.DefaultProgram == "" {
		d.Settings.DefaultProgram = "Engineering"
	}
	return d
}

// inDomain reports whether the email belongs to the institution
func (d Dependencies) inDomain(email string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+strings.ToLower(d.Settings.EmailDomain))
}

// confirmer performs the single shared transition to confirmed
type confirmer struct {
	deps Dependencies
}

// confirm is idempotent: confirming an already-confirmed registration changes nothing
func (c confirmer) confirm(ctx context.Context, registrationID, channel string) (*models.Registration, error) {
	reg, changed, err := c.deps.Store.ConfirmRegistration(ctx, registrationID)
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, c.conflict(ctx, registrationID)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !changed {
		return reg, nil
	}

	c.deps.Metrics.Confirmations.WithLabelValues(channel).Inc()
	slog.Info("✅ Registration confirmed", "registration_id", reg.ID, "event_id", reg.EventID, "channel", channel)

	if err := c.deps.Publisher.PublishConfirmed(ctx, confirmationEvent(reg, channel, c.deps.Now())); err != nil {
		slog.Warn("Failed to publish confirmation", "registration_id", reg.ID, "error", err)
	}
	return reg, nil
}

// conflict names the participant that already holds a confirmed registration elsewhere
func (c confirmer) conflict(ctx context.Context, registrationID string) error {
	participants, err := c.deps.Store.ListParticipants(ctx, registrationID)
	if err != nil {
		return err
	}
	for _, p := range participants {
		taken, err := c.deps.Store.HasConfirmedParticipation(ctx, p.GRNumber)
		if err != nil {
			return err
		}
		if taken {
			return &AlreadyRegisteredError{Identifier: p.GRNumber}
		}
	}
	return &AlreadyRegisteredError{Identifier: registrationID}
}
