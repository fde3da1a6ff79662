package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Ananth-NQI/clubhub-backend/internal/config"
	"github.com/Ananth-NQI/clubhub-backend/internal/models"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
)

// CatalogService manages clubs and events
type CatalogService struct {
	deps Dependencies
}

func NewCatalogService(deps Dependencies) *CatalogService {
	return &CatalogService{deps: deps.withDefaults()}
}

func validateEventInput(input *models.EventInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.ClubName = strings.TrimSpace(input.ClubName)
	switch {
	case input.Name == "":
		return newValidationError("name", "event name is required")
	case input.ClubName == "":
		return newValidationError("club_name", "club name is required")
	case input.MinTeamSize < 1:
		return newValidationError("min_team_size", "minimum team size must be at least 1")
	case input.MaxTeamSize < input.MinTeamSize:
		return newValidationError("max_team_size", "maximum team size must be at least the minimum (%d)", input.MinTeamSize)
	}
	return nil
}

func applyEventInput(event *models.Event, input models.EventInput) {
	event.Name = input.Name
	event.ClubName = input.ClubName
	event.Description = strings.TrimSpace(input.Description)
	event.PosterURL = input.PosterURL
	if event.PosterURL != nil && strings.TrimSpace(*event.PosterURL) == "" {
		event.PosterURL = nil
	}
	event.MinTeamSize = input.MinTeamSize
	event.MaxTeamSize = input.MaxTeamSize
}

func (s *CatalogService) CreateEvent(ctx context.Context, input models.EventInput) (*models.Event, error) {
	if err := validateEventInput(&input); err != nil {
		return nil, err
	}
	event := &models.Event{}
	applyEventInput(event, input)
	if err := s.deps.Store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	slog.Info("🎉 Event created", "event_id", event.ID, "name", event.Name, "club", event.ClubName)
	return event, nil
}

func (s *CatalogService) UpdateEvent(ctx context.Context, id string, input models.EventInput) (*models.Event, error) {
	if err := validateEventInput(&input); err != nil {
		return nil, err
	}
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	applyEventInput(event, input)
	if err := s.deps.Store.UpdateEvent(ctx, event); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

// DeleteEvent removes the event. Existing registrations keep their event id.
func (s *CatalogService) DeleteEvent(ctx context.Context, id string) error {
	err := s.deps.Store.DeleteEvent(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	slog.Info("🗑️ Event deleted", "event_id", id)
	return nil
}

func (s *CatalogService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.deps.Store.GetEvent(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	return event, nil
}

// ListEvents returns every event, or only one club's when clubName is set
func (s *CatalogService) ListEvents(ctx context.Context, clubName string) ([]models.Event, error) {
	var (
		events []models.Event
		err    error
	)
	if clubName != "" {
		events, err = s.deps.Store.ListEventsByClub(ctx, clubName)
	} else {
		events, err = s.deps.Store.ListEvents(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

func (s *CatalogService) ListClubs(ctx context.Context) ([]models.Club, error) {
	clubs, err := s.deps.Store.ListClubs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	if clubs == nil {
		clubs = []models.Club{}
	}
	return clubs, nil
}

// GetClub returns the club with the events that name it
func (s *CatalogService) GetClub(ctx context.Context, id string) (*models.Club, error) {
	club, err := s.deps.Store.GetClub(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load club: %w", err)
	}
	club.Events, err = s.ListEvents(ctx, club.Name)
	if err != nil {
		return nil, err
	}
	return club, nil
}

// SeedCatalog stores the clubs of a catalog and creates any of its events
// not already present under the same club and name
func (s *CatalogService) SeedCatalog(ctx context.Context, catalog *config.ClubCatalog) (clubs, created int, err error) {
	clubModels := catalog.ClubModels()
	if err := s.deps.Store.UpsertClubs(ctx, clubModels); err != nil {
		return 0, 0, fmt.Errorf("failed to store clubs: %w", err)
	}

	for _, event := range catalog.EventModels() {
		existing, err := s.deps.Store.ListEventsByClub(ctx, event.ClubName)
		if err != nil {
			return 0, created, fmt.Errorf("failed to list events: %w", err)
		}
		if containsEvent(existing, event) {
			continue
		}
		event := event
		if err := s.deps.Store.CreateEvent(ctx, &event); err != nil {
			return 0, created, fmt.Errorf("failed to create event %q: %w", event.Name, err)
		}
		created++
	}
	slog.Info("🌱 Club catalog seeded", "clubs", len(clubModels), "events_created", created)
	return len(clubModels), created, nil
}

func containsEvent(events []models.Event, event models.Event) bool {
	for _, existing := range events {
		if (event.ID != "" && existing.ID == event.ID) || strings.EqualFold(existing.Name, event.Name) {
			return true
		}
	}
	return false
}

// LookupStudent is the public preview of a directory entry
func (s *CatalogService) LookupStudent(ctx context.Context, grNumber string) (*models.Student, error) {
	gr := models.NormalizeGR(grNumber)
	if gr == "" {
		return nil, newValidationError("gr_number", "GR Number is required")
	}
	student, err := s.deps.Store.GetStudent(ctx, gr)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &StudentNotFoundError{Identifier: gr}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}
	return student, nil
}
