package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/clubhub-backend/internal/models"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
)

func TestListRegistrations_CountsAndNames(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	confirmed := env.submit(t, env.teamEvent.ID, "GR100", "GR200").Registration
	env.confirmAll(t, confirmed.ID, "GR100", "GR200")
	env.submit(t, env.individualEvent.ID, "GR300")

	listing, err := env.admin.ListRegistrations(ctx, models.RegistrationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, listing.Total)
	assert.Equal(t, 1, listing.Verified)
	assert.Equal(t, 1, listing.Pending)
	for _, view := range listing.Registrations {
		assert.Equal(t, "Coding Club", view.ClubName)
	}

	listing, err = env.admin.ListRegistrations(ctx, models.RegistrationFilter{Status: "verified"})
	require.NoError(t, err)
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, "Hackathon", listing.Registrations[0].EventName)
}

func TestExportEvent(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	reg := env.submit(t, env.teamEvent.ID, "GR100", "GR200", "GR300").Registration
	env.confirmAll(t, reg.ID, "GR100", "GR200", "GR300")

	export, err := env.admin.ExportEvent(ctx, env.teamEvent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coding Club - Hackathon.csv", export.Filename)

	lines := strings.Split(strings.TrimSuffix(string(export.Data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"Registration ID","Team Leader Name","Team Leader Enrollment","Team Leader Email","Team Leader Department","Team Leader Program","Team Leader Semester","Team Members Count","Team Members Details","Verified","Registration Date"`, lines[0])

	row := lines[1]
	assert.Contains(t, row, `"Member1 (GR200) - member1@inst.edu | Member2 (GR300) - member2@inst.edu"`)
	assert.Contains(t, row, `"Leader","GR100","leader@inst.edu","CE-A","Engineering","5","2"`)
	assert.Regexp(t, `"Yes","\d{2}/\d{2}/\d{4}"$`, row)

	_, err = env.admin.ExportEvent(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExportAll_PrefixesEventAndClub(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())
	env.submit(t, env.individualEvent.ID, "GR400")

	export, err := env.admin.ExportAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "All Registrations.csv", export.Filename)

	lines := strings.Split(strings.TrimSuffix(string(export.Data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], `"Event Name","Club Name","Registration ID"`))
	assert.True(t, strings.HasPrefix(lines[1], `"Quiz","Coding Club","`))
	assert.Contains(t, lines[1], `"0","","No"`)
}

func TestWriteCSVRow_DoublesQuotes(t *testing.T) {
	var buf bytes.Buffer
	writeCSVRow(&buf, []string{`Ada "The Countess" Lovelace`, "plain", ""})
	assert.Equal(t, "\"Ada \"\"The Countess\"\" Lovelace\",\"plain\",\"\"\n", buf.String())
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "AI-ML Club - Build 'n' Break.csv", safeFilename(`AI/ML Club - Build "n" Break.csv`))
}
