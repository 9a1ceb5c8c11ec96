package repository

import (
	"context"
	"time"

	"agricoop-backend/internal/domain"
)

type MemberRepository interface {
	Create(ctx context.Context, m *domain.Member) error
	GetByID(ctx context.Context, id int32) (*domain.Member, error)
	GetByCode(ctx context.Context, orgID int32, code string) (*domain.Member, error)
	GetByEmail(ctx context.Context, orgID int32, email string) (*domain.Member, error)
	// Update is version-guarded: it fails with domain.ErrConflict when the
	// row changed since the member was read.
	Update(ctx context.Context, m *domain.Member) error
	ListByOrg(ctx context.Context, orgID int32, status domain.MemberStatus, page, pageSize int32) ([]domain.Member, int32, error)
	CountBySeatType(ctx context.Context, orgID int32, t domain.SeatType) (int32, error)
	CountBySponsorPool(ctx context.Context, poolID int32) (int32, error)
}

type SeatLedgerRepository interface {
	// Get returns the organization's ledger, lazily materializing it from
	// the legacy quota blob for organizations predating the ledger table.
	Get(ctx context.Context, orgID int32) (*domain.SeatLedger, error)
	Create(ctx context.Context, l *domain.SeatLedger) error
	// Update is version-guarded like MemberRepository.Update.
	Update(ctx context.Context, l *domain.SeatLedger) error
}

type SponsorPoolRepository interface {
	Create(ctx context.Context, p *domain.SponsorPool) error
	GetByID(ctx context.Context, id int32) (*domain.SponsorPool, error)
	Update(ctx context.Context, p *domain.SponsorPool) error
	ListByOrg(ctx context.Context, orgID int32) ([]domain.SponsorPool, error)
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.MemberApplication) error
	GetByID(ctx context.Context, id int32) (*domain.MemberApplication, error)
	Update(ctx context.Context, app *domain.MemberApplication) error
	ListByOrg(ctx context.Context, orgID int32, status domain.ApplicationStatus) ([]domain.MemberApplication, error)
}

type JoinRequestRepository interface {
	Create(ctx context.Context, req *domain.JoinRequest) error
	GetByID(ctx context.Context, id int32) (*domain.JoinRequest, error)
	Update(ctx context.Context, req *domain.JoinRequest) error
	ListByOrg(ctx context.Context, orgID int32, status domain.JoinRequestStatus) ([]domain.JoinRequest, error)
}

type JoinCodeRepository interface {
	Create(ctx context.Context, c *domain.JoinCode) error
	GetByCode(ctx context.Context, code string) (*domain.JoinCode, error)
	Deactivate(ctx context.Context, id int32) error
	// DeactivateExpired disables every active code whose expiry has passed
	// and returns the number of codes affected.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type AuditLogRepository interface {
	Append(ctx context.Context, e *domain.AuditLogEntry) error
	// ListByMemberCode returns entries newest first. A beforeID of zero
	// starts from the most recent entry; passing the last seen id pages
	// further back ("show more").
	ListByMemberCode(ctx context.Context, orgID int32, memberCode string, limit int32, beforeID int64) ([]domain.AuditLogEntry, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}

type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id int32) (*domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
}

// Repositories bundles every aggregate repository bound to one database
// handle (either the shared pool or a single transaction).
type Repositories struct {
	Members       MemberRepository
	Ledgers       SeatLedgerRepository
	Pools         SponsorPoolRepository
	Applications  ApplicationRepository
	JoinRequests  JoinRequestRepository
	JoinCodes     JoinCodeRepository
	Audit         AuditLogRepository
	Notifications NotificationRepository
	Orgs          OrganizationRepository
}

// Store provides repository access plus atomic multi-entity transactions.
// The repositories passed to an ExecTx callback are bound to a single
// transaction; either every write in the callback commits or none do.
// A commit lost to a concurrent writer surfaces as domain.ErrConflict.
type Store interface {
	Repos() Repositories
	ExecTx(ctx context.Context, fn func(r Repositories) error) error
}
