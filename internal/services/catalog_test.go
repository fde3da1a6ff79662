package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/clubhub-backend/internal/config"
	"github.com/Ananth-NQI/clubhub-backend/internal/models"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
)

func TestCreateEvent_Validation(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())

	tests := []struct {
		name  string
		input models.EventInput
		field string
	}{
		{"missing name", models.EventInput{ClubName: "Coding Club", MinTeamSize: 1, MaxTeamSize: 1}, "name"},
		{"missing club", models.EventInput{Name: "Hack", MinTeamSize: 1, MaxTeamSize: 1}, "club_name"},
		{"zero minimum", models.EventInput{Name: "Hack", ClubName: "Coding Club", MinTeamSize: 0, MaxTeamSize: 2}, "min_team_size"},
		{"max below min", models.EventInput{Name: "Hack", ClubName: "Coding Club", MinTeamSize: 3, MaxTeamSize: 2}, "max_team_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.catalog.CreateEvent(context.Background(), tt.input)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.field, validation.Field)
		})
	}
}

func TestEventLifecycle(t *testing.T) {
	eachStore(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		blank := "  "

		event, err := env.catalog.CreateEvent(ctx, models.EventInput{
			Name: " Circuit Sprint ", ClubName: "Electronics Club", PosterURL: &blank, MinTeamSize: 2, MaxTeamSize: 4,
		})
		require.NoError(t, err)
		assert.Equal(t, "Circuit Sprint", event.Name)
		assert.Nil(t, event.PosterURL)

		updated, err := env.catalog.UpdateEvent(ctx, event.ID, models.EventInput{
			Name: "Circuit Sprint", ClubName: "Electronics Club", MinTeamSize: 1, MaxTeamSize: 1,
		})
		require.NoError(t, err)
		assert.True(t, updated.IsIndividual())

		events, err := env.catalog.ListEvents(ctx, "Electronics Club")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, 1, events[0].MaxTeamSize)

		require.NoError(t, env.catalog.DeleteEvent(ctx, event.ID))
		_, err = env.catalog.GetEvent(ctx, event.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, env.catalog.DeleteEvent(ctx, event.ID), ErrNotFound)

		_, err = env.catalog.UpdateEvent(ctx, event.ID, models.EventInput{Name: "X", ClubName: "Y", MinTeamSize: 1, MaxTeamSize: 1})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

const testCatalog = `
clubs:
  - id: robotics
    name: Robotics Club
    short_name: RC
    contacts:
      - name: Dr. Shah
        role: Faculty Coordinator
        email: shah@inst.edu
    events:
      - id: robo-race
        name: Robo Race
        min_team_size: 2
        max_team_size: 4
      - name: Line Follower
        min_team_size: 1
        max_team_size: 2
  - id: coding
    name: Coding Club
    events:
      - name: Hackathon
        min_team_size: 1
        max_team_size: 3
`

func TestSeedCatalog_IsIdempotent(t *testing.T) {
	eachStore(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		catalog, err := config.ParseClubCatalog([]byte(testCatalog))
		require.NoError(t, err)

		clubs, created, err := env.catalog.SeedCatalog(ctx, catalog)
		require.NoError(t, err)
		assert.Equal(t, 2, clubs)
		// Hackathon already exists under Coding Club
		assert.Equal(t, 2, created)

		_, created, err = env.catalog.SeedCatalog(ctx, catalog)
		require.NoError(t, err)
		assert.Zero(t, created)

		club, err := env.catalog.GetClub(ctx, "robotics")
		require.NoError(t, err)
		assert.Equal(t, "Robotics Club", club.Name)
		require.Len(t, club.Contacts, 1)
		assert.Equal(t, "Dr. Shah", club.Contacts[0].Name)
		assert.Len(t, club.Events, 2)

		event, err := env.catalog.GetEvent(ctx, "robo-race")
		require.NoError(t, err)
		assert.Equal(t, 2, event.MinTeamSize)

		_, err = env.catalog.GetClub(ctx, "chess")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLookupStudent(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	student, err := env.catalog.LookupStudent(ctx, " gr100 ")
	require.NoError(t, err)
	assert.Equal(t, "Leader", student.Name)
	assert.Equal(t, "l*****@inst.edu", student.MaskedEmail())

	_, err = env.catalog.LookupStudent(ctx, "GR404")
	var missing *StudentNotFoundError
	assert.ErrorAs(t, err, &missing)
}
