package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Ananth-NQI/clubhub-backend/internal/models"
)

// CatalogEvent is an event entry inside a club of the YAML catalog
type CatalogEvent struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	PosterURL   string `yaml:"poster_url"`
	MinTeamSize int    `yaml:"min_team_size"`
	MaxTeamSize int    `yaml:"max_team_size"`
}

// CatalogClub is one club of the YAML catalog
type CatalogClub struct {
	models.Club `yaml:",inline"`
	Events      []CatalogEvent `yaml:"events"`
}

// ClubCatalog is the seed file describing clubs and their events
type ClubCatalog struct {
	Clubs []CatalogClub `yaml:"clubs"`
}

// LoadClubCatalog reads and validates a YAML club catalog
func LoadClubCatalog(path string) (*ClubCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read club catalog: %w", err)
	}
	return ParseClubCatalog(data)
}

// ParseClubCatalog decodes a YAML club catalog
func ParseClubCatalog(data []byte) (*ClubCatalog, error) {
	var catalog ClubCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse club catalog: %w", err)
	}

	seen := make(map[string]bool)
	for i, club := range catalog.Clubs {
		if club.ID == "" || club.Name == "" {
			return nil, fmt.Errorf("club #%d: id and name are required", i+1)
		}
		if seen[club.ID] {
			return nil, fmt.Errorf("club %q listed twice", club.ID)
		}
		seen[club.ID] = true
		for j, ev := range club.Events {
			if ev.Name == "" {
				return nil, fmt.Errorf("club %q event #%d: name is required", club.ID, j+1)
			}
			if ev.MinTeamSize < 1 || ev.MaxTeamSize < ev.MinTeamSize {
				return nil, fmt.Errorf("club %q event %q: invalid team size %d-%d", club.ID, ev.Name, ev.MinTeamSize, ev.MaxTeamSize)
			}
		}
	}
	return &catalog, nil
}

// ClubModels returns the clubs without their events
func (c *ClubCatalog) ClubModels() []models.Club {
	clubs := make([]models.Club, 0, len(c.Clubs))
	for _, club := range c.Clubs {
		clubs = append(clubs, club.Club)
	}
	return clubs
}

// EventModels returns every catalog event attached to its club name
func (c *ClubCatalog) EventModels() []models.Event {
	var events []models.Event
	for _, club := range c.Clubs {
		for _, ev := range club.Events {
			event := models.Event{
				ID:          ev.ID,
				Name:        ev.Name,
				ClubName:    club.Name,
				Description: ev.Description,
				MinTeamSize: ev.MinTeamSize,
				MaxTeamSize: ev.MaxTeamSize,
			}
			if ev.PosterURL != "" {
				poster := ev.PosterURL
				event.PosterURL = &poster
			}
			events = append(events, event)
		}
	}
	return events
}
