package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/repository"
)

// memStore is an in-memory repository.Store covering the aggregates the jobs
// touch, plus what the seat service needs to drive assignments in tests. One
// mutex serializes transactions and a snapshot restores state when a callback
// fails, so a failed assignment cannot leak partial writes into the counters
// the reconciler checks.
type memStore struct {
	mu sync.Mutex

	members   map[int32]domain.Member
	ledgers   map[int32]domain.SeatLedger
	pools     map[int32]domain.SponsorPool
	joinCodes map[int32]domain.JoinCode
	audit     []domain.AuditLogEntry
	orgs      map[int32]domain.Organization

	nextID      int32
	nextAuditID int64
}

func newMemStore() *memStore {
	return &memStore{
		members:   make(map[int32]domain.Member),
		ledgers:   make(map[int32]domain.SeatLedger),
		pools:     make(map[int32]domain.SponsorPool),
		joinCodes: make(map[int32]domain.JoinCode),
		orgs:      make(map[int32]domain.Organization),
	}
}

func (s *memStore) id() int32 {
	s.nextID++
	return s.nextID
}

func (s *memStore) repositories() repository.Repositories {
	return repository.Repositories{
		Members:   &memMemberRepo{s: s},
		Ledgers:   &memLedgerRepo{s: s},
		Pools:     &memPoolRepo{s: s},
		JoinCodes: &memJoinCodeRepo{s: s},
		Audit:     &memAuditRepo{s: s},
		Orgs:      &memOrgRepo{s: s},
	}
}

func (s *memStore) Repos() repository.Repositories {
	return s.repositories()
}

func (s *memStore) ExecTx(ctx context.Context, fn func(r repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(s.repositories()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	members     map[int32]domain.Member
	ledgers     map[int32]domain.SeatLedger
	pools       map[int32]domain.SponsorPool
	joinCodes   map[int32]domain.JoinCode
	audit       []domain.AuditLogEntry
	nextID      int32
	nextAuditID int64
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		members:     cloneMap(s.members),
		ledgers:     cloneMap(s.ledgers),
		pools:       cloneMap(s.pools),
		joinCodes:   cloneMap(s.joinCodes),
		audit:       append([]domain.AuditLogEntry(nil), s.audit...),
		nextID:      s.nextID,
		nextAuditID: s.nextAuditID,
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.members = snap.members
	s.ledgers = snap.ledgers
	s.pools = snap.pools
	s.joinCodes = snap.joinCodes
	s.audit = snap.audit
	s.nextID = snap.nextID
	s.nextAuditID = snap.nextAuditID
}

// Fixture helpers, called outside any transaction.

func (s *memStore) addOrg(org domain.Organization) domain.Organization {
	if org.ID == 0 {
		org.ID = s.id()
	}
	s.orgs[org.ID] = org
	return org
}

func (s *memStore) addMember(m domain.Member) domain.Member {
	if m.ID == 0 {
		m.ID = s.id()
	}
	if m.MemberCode == "" {
		m.MemberCode = domain.NewMemberCode()
	}
	if m.Version == 0 {
		m.Version = 1
	}
	s.members[m.ID] = m
	return m
}

func (s *memStore) addLedger(l domain.SeatLedger) domain.SeatLedger {
	if l.Version == 0 {
		l.Version = 1
	}
	s.ledgers[l.OrgID] = l
	return l
}

func (s *memStore) addPool(p domain.SponsorPool) domain.SponsorPool {
	if p.ID == 0 {
		p.ID = s.id()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	s.pools[p.ID] = p
	return p
}

func (s *memStore) addJoinCode(c domain.JoinCode) domain.JoinCode {
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.joinCodes[c.ID] = c
	return c
}

// memMemberRepo

type memMemberRepo struct{ s *memStore }

func (r *memMemberRepo) Create(ctx context.Context, m *domain.Member) error {
	m.ID = r.s.id()
	m.Version = 1
	m.CreatedOn = time.Now().UTC()
	m.UpdatedOn = m.CreatedOn
	r.s.members[m.ID] = *m
	return nil
}

func (r *memMemberRepo) GetByID(ctx context.Context, id int32) (*domain.Member, error) {
	m, ok := r.s.members[id]
	if !ok {
		return nil, fmt.Errorf("member: %w", domain.ErrNotFound)
	}
	copy := m
	return &copy, nil
}

func (r *memMemberRepo) GetByCode(ctx context.Context, orgID int32, code string) (*domain.Member, error) {
	for _, m := range r.s.members {
		if m.OrgID == orgID && m.MemberCode == code {
			copy := m
			return &copy, nil
		}
	}
	return nil, fmt.Errorf("member: %w", domain.ErrNotFound)
}

func (r *memMemberRepo) GetByEmail(ctx context.Context, orgID int32, email string) (*domain.Member, error) {
	for _, m := range r.s.members {
		if m.OrgID == orgID && m.Email == email {
			copy := m
			return &copy, nil
		}
	}
	return nil, fmt.Errorf("member: %w", domain.ErrNotFound)
}

func (r *memMemberRepo) Update(ctx context.Context, m *domain.Member) error {
	current, ok := r.s.members[m.ID]
	if !ok {
		return fmt.Errorf("member: %w", domain.ErrNotFound)
	}
	if current.Version != m.Version {
		return fmt.Errorf("member %d: %w", m.ID, domain.ErrConflict)
	}
	m.Version++
	m.UpdatedOn = time.Now().UTC()
	r.s.members[m.ID] = *m
	return nil
}

func (r *memMemberRepo) ListByOrg(ctx context.Context, orgID int32, status domain.MemberStatus, page, pageSize int32) ([]domain.Member, int32, error) {
	var out []domain.Member
	for _, m := range r.s.members {
		if m.OrgID == orgID && (status == "" || m.Status == status) {
			out = append(out, m)
		}
	}
	return out, int32(len(out)), nil
}

func (r *memMemberRepo) CountBySeatType(ctx context.Context, orgID int32, t domain.SeatType) (int32, error) {
	var count int32
	for _, m := range r.s.members {
		if m.OrgID == orgID && m.SeatType == t {
			count++
		}
	}
	return count, nil
}

func (r *memMemberRepo) CountBySponsorPool(ctx context.Context, poolID int32) (int32, error) {
	var count int32
	for _, m := range r.s.members {
		if m.SponsorPoolID != nil && *m.SponsorPoolID == poolID {
			count++
		}
	}
	return count, nil
}

// memLedgerRepo

type memLedgerRepo struct{ s *memStore }

func (r *memLedgerRepo) Get(ctx context.Context, orgID int32) (*domain.SeatLedger, error) {
	l, ok := r.s.ledgers[orgID]
	if !ok {
		return nil, fmt.Errorf("seat ledger: %w", domain.ErrNotFound)
	}
	copy := l
	return &copy, nil
}

func (r *memLedgerRepo) Create(ctx context.Context, l *domain.SeatLedger) error {
	l.Version = 1
	r.s.ledgers[l.OrgID] = *l
	return nil
}

func (r *memLedgerRepo) Update(ctx context.Context, l *domain.SeatLedger) error {
	current, ok := r.s.ledgers[l.OrgID]
	if !ok {
		return fmt.Errorf("seat ledger: %w", domain.ErrNotFound)
	}
	if current.Version != l.Version {
		return fmt.Errorf("seat ledger %d: %w", l.OrgID, domain.ErrConflict)
	}
	l.Version++
	l.UpdatedOn = time.Now().UTC()
	r.s.ledgers[l.OrgID] = *l
	return nil
}

// memPoolRepo

type memPoolRepo struct{ s *memStore }

func (r *memPoolRepo) Create(ctx context.Context, p *domain.SponsorPool) error {
	p.ID = r.s.id()
	p.Version = 1
	p.CreatedOn = time.Now().UTC()
	r.s.pools[p.ID] = *p
	return nil
}

func (r *memPoolRepo) GetByID(ctx context.Context, id int32) (*domain.SponsorPool, error) {
	p, ok := r.s.pools[id]
	if !ok {
		return nil, fmt.Errorf("sponsor pool: %w", domain.ErrNotFound)
	}
	copy := p
	return &copy, nil
}

func (r *memPoolRepo) Update(ctx context.Context, p *domain.SponsorPool) error {
	current, ok := r.s.pools[p.ID]
	if !ok {
		return fmt.Errorf("sponsor pool: %w", domain.ErrNotFound)
	}
	if current.Version != p.Version {
		return fmt.Errorf("sponsor pool %d: %w", p.ID, domain.ErrConflict)
	}
	p.Version++
	r.s.pools[p.ID] = *p
	return nil
}

func (r *memPoolRepo) ListByOrg(ctx context.Context, orgID int32) ([]domain.SponsorPool, error) {
	var out []domain.SponsorPool
	for _, p := range r.s.pools {
		if p.OrgID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

// memJoinCodeRepo

type memJoinCodeRepo struct{ s *memStore }

func (r *memJoinCodeRepo) Create(ctx context.Context, c *domain.JoinCode) error {
	c.ID = r.s.id()
	c.CreatedOn = time.Now().UTC()
	r.s.joinCodes[c.ID] = *c
	return nil
}

func (r *memJoinCodeRepo) GetByCode(ctx context.Context, code string) (*domain.JoinCode, error) {
	for _, c := range r.s.joinCodes {
		if c.Code == code {
			copy := c
			return &copy, nil
		}
	}
	return nil, fmt.Errorf("join code: %w", domain.ErrNotFound)
}

func (r *memJoinCodeRepo) Deactivate(ctx context.Context, id int32) error {
	c, ok := r.s.joinCodes[id]
	if !ok {
		return fmt.Errorf("join code: %w", domain.ErrNotFound)
	}
	c.Active = false
	r.s.joinCodes[id] = c
	return nil
}

func (r *memJoinCodeRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	for id, c := range r.s.joinCodes {
		if c.Active && !now.Before(c.ExpiresOn) {
			c.Active = false
			r.s.joinCodes[id] = c
			count++
		}
	}
	return count, nil
}

// memAuditRepo

type memAuditRepo struct{ s *memStore }

func (r *memAuditRepo) Append(ctx context.Context, e *domain.AuditLogEntry) error {
	r.s.nextAuditID++
	e.ID = r.s.nextAuditID
	e.CreatedOn = time.Now().UTC()
	r.s.audit = append(r.s.audit, *e)
	return nil
}

func (r *memAuditRepo) ListByMemberCode(ctx context.Context, orgID int32, memberCode string, limit int32, beforeID int64) ([]domain.AuditLogEntry, error) {
	var out []domain.AuditLogEntry
	for i := len(r.s.audit) - 1; i >= 0 && int32(len(out)) < limit; i-- {
		e := r.s.audit[i]
		if e.OrgID != orgID || e.MemberCode != memberCode {
			continue
		}
		if beforeID > 0 && e.ID >= beforeID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// memOrgRepo

type memOrgRepo struct{ s *memStore }

func (r *memOrgRepo) Create(ctx context.Context, org *domain.Organization) error {
	org.ID = r.s.id()
	org.CreatedOn = time.Now().UTC()
	r.s.orgs[org.ID] = *org
	return nil
}

func (r *memOrgRepo) GetByID(ctx context.Context, id int32) (*domain.Organization, error) {
	org, ok := r.s.orgs[id]
	if !ok {
		return nil, fmt.Errorf("organization: %w", domain.ErrNotFound)
	}
	copy := org
	return &copy, nil
}

func (r *memOrgRepo) List(ctx context.Context) ([]domain.Organization, error) {
	var out []domain.Organization
	for _, org := range r.s.orgs {
		out = append(out, org)
	}
	return out, nil
}
