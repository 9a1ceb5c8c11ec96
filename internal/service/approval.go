package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agricoop-backend/internal/config"
	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/logger"
	"agricoop-backend/internal/repository"
)

type approvalService struct {
	store    repository.Store
	retryCfg config.RetryConfig
	notes    NotificationService
	email    EmailService
	mirror   MirrorPublisher
}

func NewApprovalService(store repository.Store, retryCfg config.RetryConfig, notes NotificationService, email EmailService, mirror MirrorPublisher) ApprovalService {
	return &approvalService{
		store:    store,
		retryCfg: retryCfg,
		notes:    notes,
		email:    email,
		mirror:   mirror,
	}
}

func (s *approvalService) CreateApplication(ctx context.Context, actor domain.Actor, app *domain.MemberApplication) error {
	// Staff vet the candidate before submitting, so the payload must already
	// pass the same validation the self-serve submit gate applies.
	if err := app.Member.ValidateForSubmission(); err != nil {
		return err
	}
	app.Status = domain.ApplicationStatusPending
	app.SubmittedBy = actor.ID
	app.Member.OrgID = app.OrgID
	return s.store.ExecTx(ctx, func(r repository.Repositories) error {
		if _, err := r.Orgs.GetByID(ctx, app.OrgID); err != nil {
			return err
		}
		return r.Applications.Create(ctx, app)
	})
}

// ApproveApplication materializes the application's draft payload as an
// active member. The submitted gate is bypassed because the payload was
// validated at application time; no seat is granted automatically.
func (s *approvalService) ApproveApplication(ctx context.Context, actor domain.Actor, orgID, applicationID int32) (*domain.Member, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: approving applications requires the admin capability", domain.ErrUnauthorized)
	}
	var member *domain.Member
	var org *domain.Organization
	err := runWithRetry(ctx, s.retryCfg, "approve application", func() error {
		return s.store.ExecTx(ctx, func(r repository.Repositories) error {
			app, err := r.Applications.GetByID(ctx, applicationID)
			if err != nil {
				return err
			}
			if app.OrgID != orgID {
				return fmt.Errorf("application %d: %w", applicationID, domain.ErrNotFound)
			}
			if app.Status != domain.ApplicationStatusPending {
				return fmt.Errorf("%w: this application was already handled by someone else", domain.ErrAlreadyProcessed)
			}
			o, err := r.Orgs.GetByID(ctx, orgID)
			if err != nil {
				return err
			}

			m, err := materializeMember(ctx, r, orgID, &app.Member, actor)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			app.Status = domain.ApplicationStatusApproved
			app.ProcessedBy = &actor.ID
			app.ProcessedOn = &now
			if err := r.Applications.Update(ctx, app); err != nil {
				return err
			}
			if err := r.Audit.Append(ctx, &domain.AuditLogEntry{
				OrgID:      orgID,
				MemberCode: m.MemberCode,
				Action:     domain.AuditActionApproved,
				ActorID:    actor.ID,
				Notes:      "staff application",
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
	s.announceApproval(ctx, org, member)
	return member, nil
}

func (s *approvalService) RejectApplication(ctx context.Context, actor domain.Actor, orgID, applicationID int32, reason string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: rejecting applications requires the admin capability", domain.ErrUnauthorized)
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: a rejection reason is required", domain.ErrValidation)
	}
	return runWithRetry(ctx, s.retryCfg, "reject application", func() error {
		return s.store.ExecTx(ctx, func(r repository.Repositories) error {
			app, err := r.Applications.GetByID(ctx, applicationID)
			if err != nil {
				return err
			}
			if app.OrgID != orgID {
				return fmt.Errorf("application %d: %w", applicationID, domain.ErrNotFound)
			}
			if app.Status != domain.ApplicationStatusPending {
				return fmt.Errorf("%w: this application was already handled by someone else", domain.ErrAlreadyProcessed)
			}
			now := time.Now().UTC()
			app.Status = domain.ApplicationStatusRejected
			app.RejectionReason = reason
			app.ProcessedBy = &actor.ID
			app.ProcessedOn = &now
			return r.Applications.Update(ctx, app)
		})
	})
}

func (s *approvalService) ListApplications(ctx context.Context, orgID int32, status domain.ApplicationStatus) ([]domain.MemberApplication, error) {
	return s.store.Repos().Applications.ListByOrg(ctx, orgID, status)
}

func (s *approvalService) CreateJoinCode(ctx context.Context, actor domain.Actor, orgID int32, ttl time.Duration) (*domain.JoinCode, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: creating join codes requires the admin capability", domain.ErrUnauthorized)
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	code := &domain.JoinCode{
		OrgID:     orgID,
		Code:      domain.NewJoinCode(),
		CreatedBy: actor.ID,
		Active:    true,
		ExpiresOn: time.Now().UTC().Add(ttl),
	}
	err := s.store.ExecTx(ctx, func(r repository.Repositories) error {
		if _, err := r.Orgs.GetByID(ctx, orgID); err != nil {
			return err
		}
		return r.JoinCodes.Create(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	return code, nil
}

func (s *approvalService) SubmitJoinRequest(ctx context.Context, code string, req *domain.JoinRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if strings.TrimSpace(req.Email) == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	return s.store.ExecTx(ctx, func(r repository.Repositories) error {
		jc, err := r.JoinCodes.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if !jc.Usable(time.Now().UTC()) {
			return fmt.Errorf("%w: this join code is expired or no longer active", domain.ErrValidation)
		}
		req.OrgID = jc.OrgID
		req.JoinCodeID = &jc.ID
		req.Status = domain.JoinRequestStatusSubmitted
		return r.JoinRequests.Create(ctx, req)
	})
}

// ApproveJoinRequest activates the requester as a member and attempts an
// automatic sponsored-seat assignment from the org-level ledger. When no
// sponsored seats remain the member is activated without a seat; that is a
// success, not a failure.
func (s *approvalService) ApproveJoinRequest(ctx context.Context, actor domain.Actor, orgID, requestID int32) (*domain.Member, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: approving join requests requires the admin capability", domain.ErrUnauthorized)
	}
	var member *domain.Member
	var org *domain.Organization
	err := runWithRetry(ctx, s.retryCfg, "approve join request", func() error {
		return s.store.ExecTx(ctx, func(r repository.Repositories) error {
			req, err := r.JoinRequests.GetByID(ctx, requestID)
			if err != nil {
				return err
			}
			if req.OrgID != orgID {
				return fmt.Errorf("join request %d: %w", requestID, domain.ErrNotFound)
			}
			if req.Status != domain.JoinRequestStatusSubmitted {
				return fmt.Errorf("%w: this request was already handled by someone else", domain.ErrAlreadyProcessed)
			}
			o, err := r.Orgs.GetByID(ctx, orgID)
			if err != nil {
				return err
			}

			draft := memberFromJoinRequest(req)
			m, err := materializeMember(ctx, r, orgID, draft, actor)
			if err != nil {
				return err
			}

			// Automatic sponsored seat from the org-level ledger, if any
			// remain.
			ledger, err := r.Ledgers.Get(ctx, orgID)
			if err != nil {
				return err
			}
			if ledger.Available(domain.SeatTypeSponsored) > 0 && m.SeatType == domain.SeatTypeNone {
				if err := ledger.Acquire(domain.SeatTypeSponsored); err != nil {
					return err
				}
				m.SeatType = domain.SeatTypeSponsored
				if err := r.Members.Update(ctx, m); err != nil {
					return err
				}
				if err := r.Ledgers.Update(ctx, ledger); err != nil {
					return err
				}
				if err := r.Audit.Append(ctx, &domain.AuditLogEntry{
					OrgID:      orgID,
					MemberCode: m.MemberCode,
					Action:     domain.AuditActionSeatAssigned,
					ActorID:    actor.ID,
					SeatType:   domain.SeatTypeSponsored,
					Notes:      "automatic assignment on join approval",
				}); err != nil {
					return err
				}
			}

			now := time.Now().UTC()
			req.Status = domain.JoinRequestStatusApproved
			req.ProcessedBy = &actor.ID
			req.ProcessedOn = &now
			if err := r.JoinRequests.Update(ctx, req); err != nil {
				return err
			}
			if err := r.Audit.Append(ctx, &domain.AuditLogEntry{
				OrgID:      orgID,
				MemberCode: m.MemberCode,
				Action:     domain.AuditActionApproved,
				ActorID:    actor.ID,
				Notes:      "join request",
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
	s.announceApproval(ctx, org, member)
	return member, nil
}

func (s *approvalService) RejectJoinRequest(ctx context.Context, actor domain.Actor, orgID, requestID int32, reason string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: rejecting join requests requires the admin capability", domain.ErrUnauthorized)
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: a rejection reason is required", domain.ErrValidation)
	}
	var req *domain.JoinRequest
	err := runWithRetry(ctx, s.retryCfg, "reject join request", func() error {
		return s.store.ExecTx(ctx, func(r repository.Repositories) error {
			jr, err := r.JoinRequests.GetByID(ctx, requestID)
			if err != nil {
				return err
			}
			if jr.OrgID != orgID {
				return fmt.Errorf("join request %d: %w", requestID, domain.ErrNotFound)
			}
			if jr.Status != domain.JoinRequestStatusSubmitted {
				return fmt.Errorf("%w: this request was already handled by someone else", domain.ErrAlreadyProcessed)
			}
			now := time.Now().UTC()
			jr.Status = domain.JoinRequestStatusRejected
			jr.RejectionReason = reason
			jr.ProcessedBy = &actor.ID
			jr.ProcessedOn = &now
			if err := r.JoinRequests.Update(ctx, jr); err != nil {
				return err
			}
			req = jr
			return nil
		})
	})
	if err != nil {
		return err
	}
	// Verification-status mirror write is best-effort; its failure must not
	// roll back the rejection.
	if req.UserID != nil {
		logger.ExternalServiceCall("mirror", "verification_status", "request_id", req.ID)
		mErr := s.mirror.PublishVerificationStatus(ctx, *req.UserID, "rejected", reason)
		logger.ExternalServiceResult("mirror", "verification_status", mErr, "request_id", req.ID)
	}
	return nil
}

func (s *approvalService) ListJoinRequests(ctx context.Context, orgID int32, status domain.JoinRequestStatus) ([]domain.JoinRequest, error) {
	return s.store.Repos().JoinRequests.ListByOrg(ctx, orgID, status)
}

// materializeMember creates the member for an approved intake record, or
// merges into the existing member when one already exists for the same
// email. Either way the member comes out ACTIVE with verification recorded.
func materializeMember(ctx context.Context, r repository.Repositories, orgID int32, draft *domain.Member, actor domain.Actor) (*domain.Member, error) {
	now := time.Now().UTC()

	existing, err := r.Members.GetByEmail(ctx, orgID, draft.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		mergeDraftFields(existing, draft)
		existing.Status = domain.MemberStatusActive
		existing.RejectionReason = ""
		existing.VerifiedBy = &actor.ID
		existing.VerifiedAt = &now
		if err := r.Members.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	m := *draft
	m.ID = 0
	m.OrgID = orgID
	m.MemberCode = domain.NewMemberCode()
	m.Status = domain.MemberStatusActive
	m.SeatType = domain.SeatTypeNone
	m.SponsorPoolID = nil
	m.VerifiedBy = &actor.ID
	m.VerifiedAt = &now
	m.RejectionReason = ""
	if err := r.Members.Create(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func memberFromJoinRequest(req *domain.JoinRequest) *domain.Member {
	first, last := splitName(req.Name)
	return &domain.Member{
		OrgID:     req.OrgID,
		UserID:    req.UserID,
		FirstName: first,
		LastName:  last,
		Email:     req.Email,
		Phone:     req.Phone,
	}
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func (s *approvalService) announceApproval(ctx context.Context, org *domain.Organization, m *domain.Member) {
	if org == nil || m == nil {
		return
	}
	if org.Features.Notifications && m.UserID != nil {
		message := fmt.Sprintf("Your membership with %s is now active.", org.Name)
		if m.SeatType == domain.SeatTypeSponsored {
			message = fmt.Sprintf("Your membership with %s is now active with a sponsored seat.", org.Name)
		}
		s.notes.Notify(ctx, *m.UserID, org.ID, "membership_status", "Membership approved", message)
	}
	if m.Email != "" {
		logger.ExternalServiceCall("email", "member_status", "member_code", m.MemberCode)
		err := s.email.SendMemberStatusEmail(ctx, m.Email, m.FullName(), org.Name, "approved", "")
		logger.ExternalServiceResult("email", "member_status", err, "member_code", m.MemberCode)
	}
	if org.Features.MembershipMirror {
		logger.ExternalServiceCall("mirror", "publish_profile", "member_code", m.MemberCode)
		err := s.mirror.PublishMemberProfile(ctx, m)
		logger.ExternalServiceResult("mirror", "publish_profile", err, "member_code", m.MemberCode)
	}
}
