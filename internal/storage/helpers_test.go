package storage

import (
	"time"

	"github.com/Ananth-NQI/clubhub-backend/internal/models"
)

func testTime() time.Time {
	return time.Date(2025, 9, 15, 10, 0, 0, 0, time.UTC)
}

func eventFixture() *models.Event {
	return &models.Event{ID: "missing", Name: "Hackathon", ClubName: "Coding Club", MinTeamSize: 1, MaxTeamSize: 4}
}
