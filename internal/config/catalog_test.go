package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
clubs:
  - id: robotics
    name: Robotics Club
    description: Build things that move
    contacts:
      - name: Dr. Shah
        role: Faculty Coordinator
    events:
      - id: robo-race
        name: Robo Race
        poster_url: https://cdn.example.edu/robo.png
        min_team_size: 2
        max_team_size: 4
      - name: Quiz
        min_team_size: 1
        max_team_size: 1
`

func TestLoadClubCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clubs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))

	catalog, err := LoadClubCatalog(path)
	require.NoError(t, err)

	clubs := catalog.ClubModels()
	require.Len(t, clubs, 1)
	assert.Equal(t, "Robotics Club", clubs[0].Name)
	require.Len(t, clubs[0].Contacts, 1)
	assert.Equal(t, "Faculty Coordinator", clubs[0].Contacts[0].Role)

	events := catalog.EventModels()
	require.Len(t, events, 2)
	assert.Equal(t, "robo-race", events[0].ID)
	assert.Equal(t, "Robotics Club", events[0].ClubName)
	require.NotNil(t, events[0].PosterURL)
	assert.Equal(t, "https://cdn.example.edu/robo.png", *events[0].PosterURL)
	assert.Nil(t, events[1].PosterURL)
	assert.True(t, events[1].IsIndividual())
}

func TestParseClubCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing id", "clubs:\n  - name: X\n", "id and name are required"},
		{"duplicate club", "clubs:\n  - {id: a, name: A}\n  - {id: a, name: B}\n", "listed twice"},
		{"unnamed event", "clubs:\n  - id: a\n    name: A\n    events:\n      - {min_team_size: 1, max_team_size: 1}\n", "name is required"},
		{"bad team size", "clubs:\n  - id: a\n    name: A\n    events:\n      - {name: E, min_team_size: 3, max_team_size: 2}\n", "invalid team size 3-2"},
		{"not yaml", "clubs: [", "parse club catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClubCatalog([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadClubCatalog_MissingFile(t *testing.T) {
	_, err := LoadClubCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
