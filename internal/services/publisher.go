package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Ananth-NQI/clubhub-backend/internal/models"
)

// SubjectRegistrationConfirmed is published once per registration reaching confirmed
const SubjectRegistrationConfirmed = "clubhub.registration.confirmed"

// RegistrationConfirmed is the payload of SubjectRegistrationConfirmed
type RegistrationConfirmed struct {
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id"`
	LeaderEmail    string    `json:"leader_email"`
	TeamSize       int       `json:"team_size"`
	Channel        string    `json:"channel"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
}

// Publisher announces registration lifecycle events to other systems
type Publisher interface {
	PublishConfirmed(ctx context.Context, event RegistrationConfirmed) error
	Close()
}

// NewPublisher connects to NATS when url is set and otherwise returns a no-op publisher
func NewPublisher(url string) (Publisher, error) {
	if url == "" {
		return NoopPublisher{}, nil
	}
	nc, err := nats.Connect(url,
		nats.Name("clubhub-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	slog.Info("✅ Connected to NATS", "url", nc.ConnectedUrl())
	return &NATSPublisher{conn: nc}, nil
}

// NATSPublisher publishes JSON payloads on core NATS subjects
type NATSPublisher struct {
	conn *nats.Conn
}

func (p *NATSPublisher) PublishConfirmed(ctx context.Context, event RegistrationConfirmed) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}
	if err := p.conn.Publish(SubjectRegistrationConfirmed, data); err != nil {
		return fmt.Errorf("publish confirmation: %w", err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		slog.Warn("NATS drain failed", "error", err)
	}
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) PublishConfirmed(ctx context.Context, event RegistrationConfirmed) error {
	return nil
}

func (NoopPublisher) Close() {}

func confirmationEvent(reg *models.Registration, channel string, at time.Time) RegistrationConfirmed {
	return RegistrationConfirmed{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		LeaderEmail:    reg.TeamLeaderEmail,
		TeamSize:       reg.TeamSize(),
		Channel:        channel,
		ConfirmedAt:    at,
	}
}
