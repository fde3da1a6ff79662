package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/clubhub-backend/internal/models"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage/storagetest"
)

type fakeMailer struct {
	mu      sync.Mutex
	sent    []Message
	failFor map[string]bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failFor: make(map[string]bool)}
}

func (f *fakeMailer) Send(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To] {
		return errors.New("mail provider unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) messagesTo(to string) []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Message
	for _, msg := range f.sent {
		if msg.To == to {
			out = append(out, msg)
		}
	}
	return out
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []RegistrationConfirmed
}

func (p *recordingPublisher) PublishConfirmed(ctx context.Context, event RegistrationConfirmed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type testEnv struct {
	store     storage.Store
	mailer    *fakeMailer
	clock     *fakeClock
	publisher *recordingPublisher
	deps      Dependencies

	otp           *OTPService
	registrations *RegistrationService
	direct        *DirectRegistrationService
	admin         *AdminService
	catalog       *CatalogService
	roster        *RosterImporter

	teamEvent       *models.Event
	individualEvent *models.Event
}

func newTestEnv(t *testing.T, store storage.Store) *testEnv {
	t.Helper()

	env := &testEnv{
		store:     store,
		mailer:    newFakeMailer(),
		clock:     &fakeClock{now: time.Date(2025, 9, 15, 10, 0, 0, 0, time.UTC)},
		publisher: &recordingPublisher{},
	}
	env.deps = Dependencies{
		Store:     store,
		Mailer:    env.mailer,
		Publisher: env.publisher,
		Settings: Settings{
			EventTitle:     "Engineer's Day",
			SupportContact: "the ICT Department",
			EmailDomain:    "inst.edu",
			PublicBaseURL:  "https://clubs.inst.edu",
		},
		Now: env.clock.Now,
	}
	env.otp = NewOTPService(env.deps)
	env.registrations = NewRegistrationService(env.deps, env.otp)
	env.direct = NewDirectRegistrationService(env.deps)
	env.admin = NewAdminService(env.deps)
	env.catalog = NewCatalogService(env.deps)
	env.roster = NewRosterImporter(env.deps)

	ctx := context.Background()
	require.NoError(t, store.UpsertStudents(ctx, []models.Student{
		{GRNumber: "GR100", Name: "Leader", Email: "leader@inst.edu", Class: "CE-A", Semester: 5},
		{GRNumber: "GR200", Name: "Member1", Email: "member1@inst.edu", Class: "CE-A", Semester: 5},
		{GRNumber: "GR300", Name: "Member2", Email: "member2@inst.edu", Class: "CE-B", Semester: 3},
		{GRNumber: "GR400", Name: "Member3", Email: "member3@inst.edu", Class: "IT-A", Semester: 7},
	}))

	env.teamEvent = &models.Event{Name: "Hackathon", ClubName: "Coding Club", MinTeamSize: 1, MaxTeamSize: 3}
	require.NoError(t, store.CreateEvent(ctx, env.teamEvent))
	env.individualEvent = &models.Event{Name: "Quiz", ClubName: "Coding Club", MinTeamSize: 1, MaxTeamSize: 1}
	require.NoError(t, store.CreateEvent(ctx, env.individualEvent))
	return env
}

// eachStore runs the test against the in-memory and SQLite-backed stores
func eachStore(t *testing.T, fn func(t *testing.T, env *testEnv)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, newTestEnv(t, storage.NewMemoryStore()))
	})
	t.Run("sqlite", func(t *testing.T) {
		fn(t, newTestEnv(t, storagetest.NewSQLiteStore(t)))
	})
}

// codeFor returns the live code issued to a participant
func (env *testEnv) codeFor(t *testing.T, registrationID, gr string) string {
	t.Helper()
	otps, err := env.store.ListOTPs(context.Background(), registrationID)
	require.NoError(t, err)
	var code string
	var latest time.Time
	for _, otp := range otps {
		if otp.GRNumber == gr && !otp.Superseded && !otp.CreatedAt.Before(latest) {
			code, latest = otp.OTPCode, otp.CreatedAt
		}
	}
	require.NotEmpty(t, code, "no code issued to %s", gr)
	return code
}

func (env *testEnv) submit(t *testing.T, eventID, leader string, members ...string) *SubmitResult {
	t.Helper()
	result, err := env.registrations.Submit(context.Background(), SubmitRequest{EventID: eventID, LeaderGR: leader, MemberGRs: members})
	require.NoError(t, err)
	return result
}

// confirmAll verifies every participant of a registration
func (env *testEnv) confirmAll(t *testing.T, registrationID string, grs ...string) {
	t.Helper()
	for _, gr := range grs {
		_, err := env.registrations.SubmitVerificationCode(context.Background(), registrationID, gr, env.codeFor(t, registrationID, gr))
		require.NoError(t, err)
	}
}

// failingOTPStore refuses to persist codes
type failingOTPStore struct {
	storage.Store
}

func (f failingOTPStore) CreateOTP(ctx context.Context, otp *models.OTPVerification) error {
	return errors.New("disk full")
}

// failingTokenStore refuses to persist link tokens for one address
type failingTokenStore struct {
	storage.Store
	failFor string
}

func (f failingTokenStore) CreateVerificationToken(ctx context.Context, token *models.VerificationToken) error {
	if token.Email == f.failFor {
		return errors.New("disk full")
	}
	return f.Store.CreateVerificationToken(ctx, token)
}
