package service

import (
	"context"
	"time"

	"agricoop-backend/internal/domain"
)

// MemberService drives the member lifecycle state machine.
type MemberService interface {
	CreateDraft(ctx context.Context, actor domain.Actor, m *domain.Member) (*domain.Member, error)
	UpdateDraft(ctx context.Context, actor domain.Actor, m *domain.Member) (*domain.Member, error)
	Submit(ctx context.Context, actor domain.Actor, orgID, memberID int32) (*domain.Member, error)
	Approve(ctx context.Context, actor domain.Actor, orgID, memberID int32) (*domain.Member, error)
	Reject(ctx context.Context, actor domain.Actor, orgID, memberID int32, reason string) (*domain.Member, error)
	Suspend(ctx context.Context, actor domain.Actor, orgID, memberID int32) (*domain.Member, error)
	Get(ctx context.Context, orgID, memberID int32) (*domain.Member, error)
	GetByCode(ctx context.Context, orgID int32, code string) (*domain.Member, error)
	List(ctx context.Context, orgID int32, status domain.MemberStatus, page, pageSize int32) ([]domain.Member, int32, error)
}

// SeatService moves members between seat types while keeping the
// per-organization ledger exactly in sync.
type SeatService interface {
	AssignSeat(ctx context.Context, actor domain.Actor, orgID, memberID int32, seatType domain.SeatType) error
	RemoveSeat(ctx context.Context, actor domain.Actor, orgID, memberID int32) error
	AssignFromPool(ctx context.Context, actor domain.Actor, orgID, memberID, poolID int32) error
	GetLedger(ctx context.Context, orgID int32) (*domain.SeatLedger, error)
	CreatePool(ctx context.Context, actor domain.Actor, pool *domain.SponsorPool) error
	ListPools(ctx context.Context, orgID int32) ([]domain.SponsorPool, error)
}

// ApprovalService coordinates the two intake paths: staff-submitted
// applications and self-serve join requests.
type ApprovalService interface {
	CreateApplication(ctx context.Context, actor domain.Actor, app *domain.MemberApplication) error
	ApproveApplication(ctx context.Context, actor domain.Actor, orgID, applicationID int32) (*domain.Member, error)
	RejectApplication(ctx context.Context, actor domain.Actor, orgID, applicationID int32, reason string) error
	ListApplications(ctx context.Context, orgID int32, status domain.ApplicationStatus) ([]domain.MemberApplication, error)

	CreateJoinCode(ctx context.Context, actor domain.Actor, orgID int32, ttl time.Duration) (*domain.JoinCode, error)
	SubmitJoinRequest(ctx context.Context, code string, req *domain.JoinRequest) error
	ApproveJoinRequest(ctx context.Context, actor domain.Actor, orgID, requestID int32) (*domain.Member, error)
	RejectJoinRequest(ctx context.Context, actor domain.Actor, orgID, requestID int32, reason string) error
	ListJoinRequests(ctx context.Context, orgID int32, status domain.JoinRequestStatus) ([]domain.JoinRequest, error)
}

// AuditService is the read-only projection over the append-only history.
type AuditService interface {
	ListMemberHistory(ctx context.Context, orgID int32, memberCode string, limit int32, beforeID int64) ([]domain.AuditLogEntry, error)
}

// NotificationService persists in-app notifications and fans out best-effort
// push delivery. Notify never returns an error; failures are logged.
type NotificationService interface {
	Notify(ctx context.Context, userID, orgID int32, kind, title, message string)
	List(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
}

// EmailService sends member status emails. Best-effort from the caller's
// point of view.
type EmailService interface {
	SendMemberStatusEmail(ctx context.Context, email, name, orgName, status, reason string) error
	SendSeatChangeEmail(ctx context.Context, email, name, orgName string, seatType domain.SeatType) error
}

// PushSender delivers a push notification to a user's registered devices.
type PushSender interface {
	Send(ctx context.Context, userID int32, title, message string, data map[string]string) error
}

// MirrorPublisher pushes member profile snapshots and verification statuses
// to an external directory. All calls are best-effort.
type MirrorPublisher interface {
	PublishMemberProfile(ctx context.Context, m *domain.Member) error
	PublishVerificationStatus(ctx context.Context, userID int32, status, reason string) error
}
