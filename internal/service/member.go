package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agricoop-backend/internal/config"
	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/logger"
	"agricoop-backend/internal/repository"
)

type memberService struct {
	store    repository.Store
	retryCfg config.RetryConfig
	notes    NotificationService
	email    EmailService
	mirror   MirrorPublisher
}

func NewMemberService(store repository.Store, retryCfg config.RetryConfig, notes NotificationService, email EmailService, mirror MirrorPublisher) MemberService {
	return &memberService{
		store:    store,
		retryCfg: retryCfg,
		notes:    notes,
		email:    email,
		mirror:   mirror,
	}
}

func (s *memberService) CreateDraft(ctx context.Context, actor domain.Actor, m *domain.Member) (*domain.Member, error) {
	if strings.TrimSpace(m.FirstName) == "" && strings.TrimSpace(m.LastName) == "" {
		return nil, fmt.Errorf("%w: member name is required", domain.ErrValidation)
	}
	m.MemberCode = domain.NewMemberCode()
	m.Status = domain.MemberStatusDraft
	m.SeatType = domain.SeatTypeNone
	m.SponsorPoolID = nil

	err := s.store.ExecTx(ctx, func(r repository.Repositories) error {
		if _, err := r.Orgs.GetByID(ctx, m.OrgID); err != nil {
			return err
		}
		if err := r.Members.Create(ctx, m); err != nil {
			return err
		}
		return r.Audit.Append(ctx, &domain.AuditLogEntry{
			OrgID:      m.OrgID,
			MemberCode: m.MemberCode,
			Action:     domain.AuditActionCreated,
			ActorID:    actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *memberService) UpdateDraft(ctx context.Context, actor domain.Actor, m *domain.Member) (*domain.Member, error) {
	var updated *domain.Member
	err := runWithRetry(ctx, s.retryCfg, "update draft", func() error {
		return s.store.ExecTx(ctx, func(r repository.Repositories) error {
			current, err := r.Members.GetByID(ctx, m.ID)
			if err != nil {
				return err
			}
			if current.OrgID != m.OrgID {
				return fmt.Errorf("member %d: %w", m.ID, domain.ErrNotFound)
			}
			if current.Status != domain.MemberStatusDraft {
				return fmt.Errorf("%w: only draft members can be edited", domain.ErrInvalidState)
			}
			mergeDraftFields(current, m)
			if err := r.Members.Update(ctx, current); err != nil {
				return err
			}
			updated = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// mergeDraftFields copies the editable intake fields; lifecycle fields
// (status, seat type, verification, member code) are never taken from input.
func mergeDraftFields(dst, src *domain.Member) {
	dst.UserID = src.UserID
	dst.FirstName = src.FirstName
	dst.LastName = src.LastName
	dst.Phone = src.Phone
	dst.Email = src.Email
	dst.NationalID = src.NationalID
	dst.Province = src.Province
	dst.District = src.District
	dst.Village = src.Village
	dst.FarmName = src.FarmName
	dst.FarmSizeAcres = src.FarmSizeAcres
	dst.PrimaryCrop = src.PrimaryCrop
	dst.BankName = src.BankName
	dst.BankAccountNumber = src.BankAccountNumber
	dst.IDFrontURL = src.IDFrontURL
	dst.IDBackURL = src.IDBackURL
	dst.FinancialDocURLs = src.FinancialDocURLs
	dst.IdentityChecked = src.IdentityChecked
	dst.LocationChecked = src.LocationChecked
	dst.FarmChecked = src.FarmChecked
	dst.FinancialChecked = src.FinancialChecked
}

func (s *memberService) Submit(ctx context.Context, actor domain.Actor, orgID, memberID int32) (*domain.Member, error) {
	var member *domain.Member
	err := runWithRetry(ctx, s.retryCfg, "submit member", func() error {
		return s.store.ExecTx(ctx, func(r repository.Repositories) error {
			m, err := getOrgMember(ctx, r, orgID, memberID)
			if err != nil {
				return err
			}
			if err := m.Status.EnsureTransition(domain.MemberStatusSubmitted); err != nil {
				return err
			}
			if err := m.ValidateForSubmission(); err != nil {
				return err
			}
			m.Status = domain.MemberStatusSubmitted
			if err := r.Members.Update(ctx, m); err != nil {
				return err
			}
			if err := r.Audit.Append(ctx, &domain.AuditLogEntry{
				OrgID:      orgID,
				MemberCode: m.MemberCode,
				Action:     domain.AuditActionSubmitted,
				ActorID:    actor.ID,
			}); err != nil {
				return err
			}
			member = m
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *memberService) Approve(ctx context.Context, actor domain.Actor, orgID, memberID int32) (*domain.Member, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: approving members requires the admin capability", domain.ErrUnauthorized)
	}
	var member *domain.Member
	var org *domain.Organization
	err := runWithRetry(ctx, s.retryCfg, "approve member", func() error {
		return s.store.ExecTx(ctx, func(r repository.Repositories) error {
			m, err := getOrgMember(ctx, r, orgID, memberID)
			if err != nil {
				return err
			}
			if err := m.Status.EnsureTransition(domain.MemberStatusActive); err != nil {
				return err
			}
			o, err := r.Orgs.GetByID(ctx, orgID)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			m.Status = domain.MemberStatusActive
			m.VerifiedBy = &actor.ID
			m.VerifiedAt = &now
			m.RejectionReason = ""
			if err := r.Members.Update(ctx, m); err != nil {
				return err
			}
			if err := r.Audit.Append(ctx, &domain.AuditLogEntry{
				OrgID:      orgID,
				MemberCode: m.MemberCode,
				Action:     domain.AuditActionApproved,
				ActorID:    actor.ID,
			}); err != nil {
				return err
			}
			member = m
			org = o
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.announceStatus(ctx, org, member, "approved", "")
	return member, nil
}

func (s *memberService) Reject(ctx context.Context, actor domain.Actor, orgID, memberID int32, reason string) (*domain.Member, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: rejecting members requires the admin capability", domain.ErrUnauthorized)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: a rejection reason is required", domain.ErrValidation)
	}
	var member *domain.Member
	var org *domain.Organization
	err := runWithRetry(ctx, s.retryCfg, "reject member", func() error {
		return s.store.ExecTx(ctx, func(r repository.Repositories) error {
			m, err := getOrgMember(ctx, r, orgID, memberID)
			if err != nil {
				return err
			}
			if err := m.Status.EnsureTransition(domain.MemberStatusRejected); err != nil {
				return err
			}
			o, err := r.Orgs.GetByID(ctx, orgID)
			if err != nil {
				return err
			}
			m.Status = domain.MemberStatusRejected
			m.RejectionReason = reason
			if err := r.Members.Update(ctx, m); err != nil {
				return err
			}
			if err := r.Audit.Append(ctx, &domain.AuditLogEntry{
				OrgID:      orgID,
				MemberCode: m.MemberCode,
				Action:     domain.AuditActionRejected,
				ActorID:    actor.ID,
				Notes:      reason,
			}); err != nil {
				return err
			}
			member = m
			org = o
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.announceStatus(ctx, org, member, "rejected", reason)
	return member, nil
}

func (s *memberService) Suspend(ctx context.Context, actor domain.Actor, orgID, memberID int32) (*domain.Member, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: suspending members requires the admin capability", domain.ErrUnauthorized)
	}
	var member *domain.Member
	var org *domain.Organization
	err := runWithRetry(ctx, s.retryCfg, "suspend member", func() error {
		return s.store.ExecTx(ctx, func(r repository.Repositories) error {
			m, err := getOrgMember(ctx, r, orgID, memberID)
			if err != nil {
				return err
			}
			if err := m.Status.EnsureTransition(domain.MemberStatusSuspended); err != nil {
				return err
			}
			o, err := r.Orgs.GetByID(ctx, orgID)
			if err != nil {
				return err
			}
			m.Status = domain.MemberStatusSuspended
			if err := r.Members.Update(ctx, m); err != nil {
				return err
			}
			if err := r.Audit.Append(ctx, &domain.AuditLogEntry{
				OrgID:      orgID,
				MemberCode: m.MemberCode,
				Action:     domain.AuditActionSuspended,
				ActorID:    actor.ID,
			}); err != nil {
				return err
			}
			member = m
			org = o
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.announceStatus(ctx, org, member, "suspended", "")
	return member, nil
}

func (s *memberService) Get(ctx context.Context, orgID, memberID int32) (*domain.Member, error) {
	m, err := s.store.Repos().Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.OrgID != orgID {
		return nil, fmt.Errorf("member %d: %w", memberID, domain.ErrNotFound)
	}
	return m, nil
}

func (s *memberService) GetByCode(ctx context.Context, orgID int32, code string) (*domain.Member, error) {
	return s.store.Repos().Members.GetByCode(ctx, orgID, code)
}

func (s *memberService) List(ctx context.Context, orgID int32, status domain.MemberStatus, page, pageSize int32) ([]domain.Member, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 25
	}
	return s.store.Repos().Members.ListByOrg(ctx, orgID, status, page, pageSize)
}

// announceStatus fans out the best-effort side effects of a lifecycle
// change. Failures are logged and never surfaced to the caller.
func (s *memberService) announceStatus(ctx context.Context, org *domain.Organization, m *domain.Member, status, reason string) {
	if org == nil || m == nil {
		return
	}
	if org.Features.Notifications && m.UserID != nil {
		s.notes.Notify(ctx, *m.UserID, org.ID, "membership_status",
			"Membership "+status,
			fmt.Sprintf("Your membership with %s has been %s.", org.Name, status))
	}
	if m.Email != "" {
		logger.ExternalServiceCall("email", "member_status", "member_code", m.MemberCode)
		err := s.email.SendMemberStatusEmail(ctx, m.Email, m.FullName(), org.Name, status, reason)
		logger.ExternalServiceResult("email", "member_status", err, "member_code", m.MemberCode)
	}
	if org.Features.MembershipMirror && m.Status == domain.MemberStatusActive {
		logger.ExternalServiceCall("mirror", "publish_profile", "member_code", m.MemberCode)
		err := s.mirror.PublishMemberProfile(ctx, m)
		logger.ExternalServiceResult("mirror", "publish_profile", err, "member_code", m.MemberCode)
	}
}

// getOrgMember loads a member and verifies org ownership; a member from a
// different organization is reported as not found.
func getOrgMember(ctx context.Context, r repository.Repositories, orgID, memberID int32) (*domain.Member, error) {
	m, err := r.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.OrgID != orgID {
		return nil, fmt.Errorf("member %d: %w", memberID, domain.ErrNotFound)
	}
	return m, nil
}
