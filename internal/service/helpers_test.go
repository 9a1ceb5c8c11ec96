package service

import (
	"context"
	"sync"

	"agricoop-backend/internal/config"
	"agricoop-backend/internal/domain"
)

var testRetryCfg = config.RetryConfig{MaxAttempts: 3, InitialBackoffMS: 1}

var adminActor = domain.Actor{ID: 99, Email: "admin@coop.test", Role: domain.RoleAdmin}
var staffActor = domain.Actor{ID: 42, Email: "staff@coop.test", Role: domain.RoleStaff}

// recordingNotifier captures Notify calls without touching a store.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []recordedNote
}

type recordedNote struct {
	UserID int32
	Kind   string
	Title  string
}

func (n *recordingNotifier) Notify(ctx context.Context, userID, orgID int32, kind, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, recordedNote{UserID: userID, Kind: kind, Title: title})
}

func (n *recordingNotifier) List(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	return nil, 0, nil
}

func (n *recordingNotifier) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	return nil
}

// recordingEmail captures email sends; Fail makes every send error to prove
// callers treat delivery as best-effort.
type recordingEmail struct {
	mu       sync.Mutex
	statuses []string
	seats    []domain.SeatType
	Fail     error
}

func (e *recordingEmail) SendMemberStatusEmail(ctx context.Context, email, name, orgName, status, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statuses = append(e.statuses, status)
	return e.Fail
}

func (e *recordingEmail) SendSeatChangeEmail(ctx context.Context, email, name, orgName string, seatType domain.SeatType) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seats = append(e.seats, seatType)
	return e.Fail
}

// recordingMirror captures mirror publishes.
type recordingMirror struct {
	mu       sync.Mutex
	profiles []string
	statuses []string
	Fail     error
}

func (m *recordingMirror) PublishMemberProfile(ctx context.Context, member *domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = append(m.profiles, member.MemberCode)
	return m.Fail
}

func (m *recordingMirror) PublishVerificationStatus(ctx context.Context, userID int32, status, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
	return m.Fail
}

// seatFixture wires a seat service over a fresh memStore with one org, one
// ledger and one active member.
type seatFixture struct {
	store  *memStore
	notes  *recordingNotifier
	email  *recordingEmail
	svc    SeatService
	org    domain.Organization
	member domain.Member
}

func newSeatFixture(ledger domain.SeatLedger) *seatFixture {
	store := newMemStore()
	org := store.addOrg(domain.Organization{
		Name:     "Kigezi Growers",
		Features: domain.OrgFeatures{SponsorPools: true, Notifications: true},
	})
	ledger.OrgID = org.ID
	store.addLedger(ledger)
	userID := int32(7)
	member := store.addMember(domain.Member{
		OrgID:     org.ID,
		UserID:    &userID,
		FirstName: "Amina",
		LastName:  "Okello",
		Email:     "amina@example.com",
		Status:    domain.MemberStatusActive,
		SeatType:  domain.SeatTypeNone,
	})
	notes := &recordingNotifier{}
	email := &recordingEmail{}
	return &seatFixture{
		store:  store,
		notes:  notes,
		email:  email,
		svc:    NewSeatService(store, testRetryCfg, notes, email),
		org:    org,
		member: member,
	}
}
