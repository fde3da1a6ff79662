package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Ananth-NQI/clubhub-backend/internal/models"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
)

// RegistrationView is a registration with its event's names attached
type RegistrationView struct {
	models.Registration
	EventName string `json:"event_name"`
	ClubName  string `json:"club_name"`
}

// RegistrationListing is the admin dashboard payload
type RegistrationListing struct {
	Registrations []RegistrationView `json:"registrations"`
	Total         int                `json:"total"`
	Verified      int                `json:"verified"`
	Pending       int                `json:"pending"`
}

// Export is a rendered CSV file
type Export struct {
	Filename string
	Data     []byte
}

var exportColumns = []string{
	"Registration ID",
	"Team Leader Name",
	"Team Leader Enrollment",
	"Team Leader Email",
	"Team Leader Department",
	"Team Leader Program",
	"Team Leader Semester",
	"Team Members Count",
	"Team Members Details",
	"Verified",
	"Registration Date",
}

type AdminService struct {
	deps Dependencies
}

func NewAdminService(deps Dependencies) *AdminService {
	return &AdminService{deps: deps.withDefaults()}
}

// ListRegistrations returns the filtered registrations with summary counts
func (s *AdminService) ListRegistrations(ctx context.Context, filter models.RegistrationFilter) (*RegistrationListing, error) {
	regs, err := s.deps.Store.ListRegistrations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	events, err := s.eventIndex(ctx)
	if err != nil {
		return nil, err
	}

	listing := &RegistrationListing{Registrations: make([]RegistrationView, 0, len(regs))}
	for _, reg := range regs {
		view := RegistrationView{Registration: reg}
		if event, ok := events[reg.EventID]; ok {
			view.EventName = event.Name
			view.ClubName = event.ClubName
		}
		listing.Registrations = append(listing.Registrations, view)
		if reg.Verified {
			listing.Verified++
		} else {
			listing.Pending++
		}
	}
	listing.Total = len(regs)
	return listing, nil
}

// ExportEvent renders one event's registrations
func (s *AdminService) ExportEvent(ctx context.Context, eventID string) (*Export, error) {
	event, err := s.deps.Store.GetEvent(ctx, eventID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	regs, err := s.deps.Store.ListRegistrations(ctx, models.RegistrationFilter{EventID: eventID})
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	var buf bytes.Buffer
	writeCSVRow(&buf, exportColumns)
	for i := range regs {
		writeCSVRow(&buf, registrationRow(&regs[i]))
	}
	return &Export{
		Filename: safeFilename(fmt.Sprintf("%s - %s.csv", event.ClubName, event.Name)),
		Data:     buf.Bytes(),
	}, nil
}

// ExportAll renders every registration, prefixed with its event and club
func (s *AdminService) ExportAll(ctx context.Context) (*Export, error) {
	regs, err := s.deps.Store.ListRegistrations(ctx, models.RegistrationFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	events, err := s.eventIndex(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writeCSVRow(&buf, append([]string{"Event Name", "Club Name"}, exportColumns...))
	for i := range regs {
		var eventName, clubName string
		if event, ok := events[regs[i].EventID]; ok {
			eventName, clubName = event.Name, event.ClubName
		}
		writeCSVRow(&buf, append([]string{eventName, clubName}, registrationRow(&regs[i])...))
	}
	return &Export{Filename: "All Registrations.csv", Data: buf.Bytes()}, nil
}

func (s *AdminService) eventIndex(ctx context.Context) (map[string]models.Event, error) {
	events, err := s.deps.Store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	index := make(map[string]models.Event, len(events))
	for _, event := range events {
		index[event.ID] = event
	}
	return index, nil
}

func registrationRow(reg *models.Registration) []string {
	verified := "No"
	if reg.Verified {
		verified = "Yes"
	}
	return []string{
		reg.ID,
		reg.TeamLeaderName,
		reg.TeamLeaderEnrollment,
		reg.TeamLeaderEmail,
		reg.TeamLeaderDepartment,
		reg.TeamLeaderProgram,
		strconv.Itoa(reg.TeamLeaderSemester),
		strconv.Itoa(len(reg.TeamMembers)),
		memberDetails(reg.TeamMembers),
		verified,
		reg.CreatedAt.Format("02/01/2006"),
	}
}

// memberDetails flattens members to "Name (Enrollment) - email | ..."
func memberDetails(members []models.TeamMember) string {
	parts := make([]string, 0, len(members))
	for _, m := range members {
		parts = append(parts, fmt.Sprintf("%s (%s) - %s", m.Name, m.Enrollment, m.Email))
	}
	return strings.Join(parts, " | ")
}

// writeCSVRow quotes every field, doubling embedded quotes
func writeCSVRow(buf *bytes.Buffer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

func safeFilename(name string) string {
	return strings.NewReplacer("/", "-", `\`, "-", `"`, "'").Replace(name)
}
