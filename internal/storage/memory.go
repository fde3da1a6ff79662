package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ananth-NQI/clubhub-backend/internal/models"
)

// MemoryStore holds all data in memory, for local runs without a database
type MemoryStore struct {
	students      map[string]*models.Student
	events        map[string]*models.Event
	clubs         map[string]*models.Club
	registrations map[string]*models.Registration
	participants  map[string][]*models.RegistrationParticipant
	otps          map[string][]*models.OTPVerification
	tokens        map[string]*models.VerificationToken
	admins        map[string]*models.Admin

	// Mutexes for thread safety
	directoryMu    sync.RWMutex
	catalogMu      sync.RWMutex
	registrationMu sync.RWMutex
	otpMu          sync.RWMutex
	adminMu        sync.RWMutex

	participantCounter uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students:      make(map[string]*models.Student),
		events:        make(map[string]*models.Event),
		clubs:         make(map[string]*models.Club),
		registrations: make(map[string]*models.Registration),
		participants:  make(map[string][]*models.RegistrationParticipant),
		otps:          make(map[string][]*models.OTPVerification),
		tokens:        make(map[string]*models.VerificationToken),
		admins:        make(map[string]*models.Admin),
	}
}

// Student operations
func (m *MemoryStore) GetStudent(ctx context.Context, grNumber string) (*models.Student, error) {
	m.directoryMu.RLock()
	defer m.directoryMu.RUnlock()

	student, exists := m.students[models.NormalizeGR(grNumber)]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *student
	return &copied, nil
}

func (m *MemoryStore) UpsertStudents(ctx context.Context, students []models.Student) error {
	m.directoryMu.Lock()
	defer m.directoryMu.Unlock()

	now := time.Now()
	for _, s := range students {
		s.GRNumber = models.NormalizeGR(s.GRNumber)
		s.Email = strings.ToLower(strings.TrimSpace(s.Email))
		s.UpdatedAt = now
		if existing, ok := m.students[s.GRNumber]; ok {
			s.CreatedAt = existing.CreatedAt
		} else {
			s.CreatedAt = now
		}
		student := s
		m.students[s.GRNumber] = &student
	}
	return nil
}

// Event operations
func (m *MemoryStore) CreateEvent(ctx context.Context, event *models.Event) error {
	m.catalogMu.Lock()
	defer m.catalogMu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if _, exists := m.events[event.ID]; exists {
		return ErrDuplicate
	}
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	copied := *event
	m.events[event.ID] = &copied
	return nil
}

func (m *MemoryStore) UpdateEvent(ctx context.Context, event *models.Event) error {
	m.catalogMu.Lock()
	defer m.catalogMu.Unlock()

	existing, exists := m.events[event.ID]
	if !exists {
		return ErrNotFound
	}
	updated := *event
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	m.events[event.ID] = &updated
	return nil
}

func (m *MemoryStore) DeleteEvent(ctx context.Context, id string) error {
	m.catalogMu.Lock()
	defer m.catalogMu.Unlock()

	if _, exists := m.events[id]; !exists {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *MemoryStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	m.catalogMu.RLock()
	defer m.catalogMu.RUnlock()

	event, exists := m.events[id]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (m *MemoryStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	return m.filterEvents(func(*models.Event) bool { return true }), nil
}

func (m *MemoryStore) ListEventsByClub(ctx context.Context, clubName string) ([]models.Event, error) {
	return m.filterEvents(func(e *models.Event) bool { return e.ClubName == clubName }), nil
}

func (m *MemoryStore) filterEvents(keep func(*models.Event) bool) []models.Event {
	m.catalogMu.RLock()
	defer m.catalogMu.RUnlock()

	var events []models.Event
	for _, event := range m.events {
		if keep(event) {
			events = append(events, *event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].ClubName != events[j].ClubName {
			return events[i].ClubName < events[j].ClubName
		}
		return events[i].Name < events[j].Name
	})
	return events
}

// Club operations
func (m *MemoryStore) UpsertClubs(ctx context.Context, clubs []models.Club) error {
	m.catalogMu.Lock()
	defer m.catalogMu.Unlock()

	for _, c := range clubs {
		club := c
		m.clubs[club.ID] = &club
	}
	return nil
}

func (m *MemoryStore) ListClubs(ctx context.Context) ([]models.Club, error) {
	m.catalogMu.RLock()
	defer m.catalogMu.RUnlock()

	clubs := make([]models.Club, 0, len(m.clubs))
	for _, club := range m.clubs {
		clubs = append(clubs, *club)
	}
	sort.Slice(clubs, func(i, j int) bool { return clubs[i].Name < clubs[j].Name })
	return clubs, nil
}

func (m *MemoryStore) GetClub(ctx context.Context, id string) (*models.Club, error) {
	m.catalogMu.RLock()
	defer m.catalogMu.RUnlock()

	club, exists := m.clubs[id]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *club
	return &copied, nil
}

// Registration operations
func (m *MemoryStore) CreateRegistration(ctx context.Context, reg *models.Registration, participants []models.RegistrationParticipant) error {
	m.registrationMu.Lock()
	defer m.registrationMu.Unlock()

	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	if reg.RegistrationStatus == "" {
		reg.RegistrationStatus = models.RegistrationStatusPending
	}
	if reg.Source == "" {
		reg.Source = models.RegistrationSourceGR
	}
	now := time.Now()
	reg.CreatedAt = now
	reg.UpdatedAt = now
	m.registrations[reg.ID] = cloneRegistration(reg)

	for i := range participants {
		m.participantCounter++
		participants[i].ID = m.participantCounter
		participants[i].RegistrationID = reg.ID
		participants[i].GRNumber = models.NormalizeGR(participants[i].GRNumber)
		participants[i].CreatedAt = now
		p := participants[i]
		m.participants[reg.ID] = append(m.participants[reg.ID], &p)
	}
	return nil
}

func (m *MemoryStore) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	m.registrationMu.RLock()
	defer m.registrationMu.RUnlock()

	reg, exists := m.registrations[id]
	if !exists {
		return nil, ErrNotFound
	}
	return cloneRegistration(reg), nil
}

func (m *MemoryStore) UpdateRegistration(ctx context.Context, reg *models.Registration) error {
	m.registrationMu.Lock()
	defer m.registrationMu.Unlock()

	if _, exists := m.registrations[reg.ID]; !exists {
		return ErrNotFound
	}
	reg.UpdatedAt = time.Now()
	m.registrations[reg.ID] = cloneRegistration(reg)
	return nil
}

func (m *MemoryStore) ListRegistrations(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	m.registrationMu.RLock()
	defer m.registrationMu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var regs []models.Registration
	for _, reg := range m.registrations {
		if filter.EventID != "" && reg.EventID != filter.EventID {
			continue
		}
		if filter.Status == "verified" && !reg.Verified {
			continue
		}
		if filter.Status == "pending" && reg.Verified {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(reg.TeamLeaderName), search) &&
			!strings.Contains(strings.ToLower(reg.TeamLeaderEmail), search) &&
			!strings.Contains(strings.ToLower(reg.TeamLeaderEnrollment), search) {
			continue
		}
		regs = append(regs, *cloneRegistration(reg))
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].CreatedAt.After(regs[j].CreatedAt) })
	return regs, nil
}

func (m *MemoryStore) ListParticipants(ctx context.Context, registrationID string) ([]models.RegistrationParticipant, error) {
	m.registrationMu.RLock()
	defer m.registrationMu.RUnlock()

	var participants []models.RegistrationParticipant
	for _, p := range m.participants[registrationID] {
		participants = append(participants, *p)
	}
	return participants, nil
}

func (m *MemoryStore) HasConfirmedParticipation(ctx context.Context, grNumber string) (bool, error) {
	m.registrationMu.RLock()
	defer m.registrationMu.RUnlock()

	return m.confirmedParticipationLocked(models.NormalizeGR(grNumber), ""), nil
}

// confirmedParticipationLocked reports a confirmed participation outside the given registration
func (m *MemoryStore) confirmedParticipationLocked(grNumber, excludeRegistration string) bool {
	for regID, list := range m.participants {
		if regID == excludeRegistration {
			continue
		}
		for _, p := range list {
			if p.GRNumber == grNumber && p.Confirmed {
				return true
			}
		}
	}
	return false
}

func (m *MemoryStore) FindRegistrationByLeaderEmail(ctx context.Context, eventID, email string) (*models.Registration, error) {
	m.registrationMu.RLock()
	defer m.registrationMu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, reg := range m.registrations {
		if reg.EventID == eventID && strings.ToLower(reg.TeamLeaderEmail) == email {
			return cloneRegistration(reg), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) MarkParticipantVerified(ctx context.Context, registrationID, identifier string) error {
	m.registrationMu.Lock()
	defer m.registrationMu.Unlock()

	reg, exists := m.registrations[registrationID]
	if !exists {
		return ErrNotFound
	}
	if !reg.IsConfirmed() && reg.MarkParticipantVerified(identifier) {
		reg.UpdatedAt = time.Now()
	}
	return nil
}

func (m *MemoryStore) ConfirmRegistration(ctx context.Context, id string) (*models.Registration, bool, error) {
	m.registrationMu.Lock()
	defer m.registrationMu.Unlock()

	reg, exists := m.registrations[id]
	if !exists {
		return nil, false, ErrNotFound
	}
	if reg.IsConfirmed() {
		return cloneRegistration(reg), false, nil
	}

	// Same guarantee as the partial unique index in the database store
	for _, p := range m.participants[id] {
		if m.confirmedParticipationLocked(p.GRNumber, id) {
			return nil, false, ErrDuplicate
		}
	}

	reg.Confirm()
	if reg.Source == models.RegistrationSourceGR {
		reg.OTPVerified = true
	}
	reg.UpdatedAt = time.Now()
	for _, p := range m.participants[id] {
		p.Confirmed = true
	}
	return cloneRegistration(reg), true, nil
}

func cloneRegistration(reg *models.Registration) *models.Registration {
	copied := *reg
	if reg.TeamMembers != nil {
		copied.TeamMembers = append(copied.TeamMembers[:0:0], reg.TeamMembers...)
	}
	return &copied
}

// OTP operations
func (m *MemoryStore) CreateOTP(ctx context.Context, otp *models.OTPVerification) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	if otp.ID == "" {
		otp.ID = uuid.NewString()
	}
	if otp.DeliveryStatus == "" {
		otp.DeliveryStatus = models.DeliveryStatusPending
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	otp.GRNumber = models.NormalizeGR(otp.GRNumber)
	copied := *otp
	m.otps[otp.RegistrationID] = append(m.otps[otp.RegistrationID], &copied)
	return nil
}

func (m *MemoryStore) findOTPLocked(id string) *models.OTPVerification {
	for _, list := range m.otps {
		for _, otp := range list {
			if otp.ID == id {
				return otp
			}
		}
	}
	return nil
}

func (m *MemoryStore) UpdateOTPDelivery(ctx context.Context, id, status, deliveryErr string) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp := m.findOTPLocked(id)
	if otp == nil {
		return ErrNotFound
	}
	otp.DeliveryStatus = status
	otp.DeliveryError = deliveryErr
	return nil
}

func (m *MemoryStore) FindUsableOTP(ctx context.Context, registrationID, grNumber, code string, now time.Time) (*models.OTPVerification, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	grNumber = models.NormalizeGR(grNumber)
	var latest *models.OTPVerification
	for _, otp := range m.otps[registrationID] {
		if otp.GRNumber != grNumber || otp.OTPCode != code || !otp.IsUsable(now) {
			continue
		}
		if latest == nil || !otp.CreatedAt.Before(latest.CreatedAt) {
			latest = otp
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (m *MemoryStore) MarkOTPVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp := m.findOTPLocked(id)
	if otp == nil {
		return false, ErrNotFound
	}
	if otp.Verified {
		return false, nil
	}
	otp.Verified = true
	otp.VerifiedAt = &at
	return true, nil
}

func (m *MemoryStore) ListOTPs(ctx context.Context, registrationID string) ([]models.OTPVerification, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	var otps []models.OTPVerification
	for _, otp := range m.otps[registrationID] {
		otps = append(otps, *otp)
	}
	return otps, nil
}

func (m *MemoryStore) SupersedeOTPs(ctx context.Context, registrationID, grNumber string) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	grNumber = models.NormalizeGR(grNumber)
	for _, otp := range m.otps[registrationID] {
		if otp.GRNumber == grNumber && !otp.Verified {
			otp.Superseded = true
		}
	}
	return nil
}

// Verification token operations
func (m *MemoryStore) CreateVerificationToken(ctx context.Context, token *models.VerificationToken) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if _, exists := m.tokens[token.Token]; exists {
		return ErrDuplicate
	}
	token.CreatedAt = time.Now()
	copied := *token
	m.tokens[token.Token] = &copied
	return nil
}

func (m *MemoryStore) GetVerificationToken(ctx context.Context, token string) (*models.VerificationToken, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	vt, exists := m.tokens[token]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *vt
	return &copied, nil
}

func (m *MemoryStore) MarkTokenVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	for _, vt := range m.tokens {
		if vt.ID != id {
			continue
		}
		if vt.Verified {
			return false, nil
		}
		vt.Verified = true
		vt.VerifiedAt = &at
		return true, nil
	}
	return false, ErrNotFound
}

func (m *MemoryStore) ListVerificationTokens(ctx context.Context, registrationID string) ([]models.VerificationToken, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	var tokens []models.VerificationToken
	for _, vt := range m.tokens {
		if vt.RegistrationID == registrationID {
			tokens = append(tokens, *vt)
		}
	}
	return tokens, nil
}

// Admin operations
func (m *MemoryStore) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	m.adminMu.Lock()
	defer m.adminMu.Unlock()

	if _, exists := m.admins[admin.Username]; exists {
		return ErrDuplicate
	}
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	admin.CreatedAt = time.Now()
	copied := *admin
	m.admins[admin.Username] = &copied
	return nil
}

func (m *MemoryStore) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	m.adminMu.RLock()
	defer m.adminMu.RUnlock()

	admin, exists := m.admins[username]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *admin
	return &copied, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
