package service

import (
	"context"
	"errors"
	"fmt"

	"agricoop-backend/internal/config"
	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/logger"
	"agricoop-backend/internal/repository"
)

// errNoChange short-circuits a seat assignment that requests the type the
// member already holds: no ledger write, no audit entry.
var errNoChange = errors.New("seat type unchanged")

type seatService struct {
	store    repository.Store
	retryCfg config.RetryConfig
	notes    NotificationService
	email    EmailService
}

func NewSeatService(store repository.Store, retryCfg config.RetryConfig, notes NotificationService, email EmailService) SeatService {
	return &seatService{
		store:    store,
		retryCfg: retryCfg,
		notes:    notes,
		email:    email,
	}
}

func (s *seatService) AssignSeat(ctx context.Context, actor domain.Actor, orgID, memberID int32, seatType domain.SeatType) error {
	switch seatType {
	case domain.SeatTypeNone, domain.SeatTypePaid, domain.SeatTypeSponsored:
	default:
		return fmt.Errorf("%w: unknown seat type %q", domain.ErrValidation, seatType)
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: seat assignment requires the admin capability", domain.ErrUnauthorized)
	}

	var member *domain.Member
	var org *domain.Organization
	err := runWithRetry(ctx, s.retryCfg, "assign seat", func() error {
		return s.store.ExecTx(ctx, func(r repository.Repositories) error {
			m, err := getOrgMember(ctx, r, orgID, memberID)
			if err != nil {
				return err
			}
			if m.Status != domain.MemberStatusActive {
				return fmt.Errorf("%w: seat operations require an active member", domain.ErrInvalidState)
			}
			if m.SeatType == seatType {
				return errNoChange
			}
			ledger, err := r.Ledgers.Get(ctx, orgID)
			if err != nil {
				return err
			}

			previous := m.SeatType
			if previous != domain.SeatTypeNone {
				ledger.Release(previous)
				if err := refundPool(ctx, r, m); err != nil {
					return err
				}
			}
			if err := ledger.Acquire(seatType); err != nil {
				return err
			}
			m.SeatType = seatType

			if err := r.Members.Update(ctx, m); err != nil {
				return err
			}
			if err := r.Ledgers.Update(ctx, ledger); err != nil {
				return err
			}

			entry := &domain.AuditLogEntry{
				OrgID:      orgID,
				MemberCode: m.MemberCode,
				ActorID:    actor.ID,
			}
			if seatType == domain.SeatTypeNone {
				entry.Action = domain.AuditActionSeatRemoved
				entry.SeatType = previous
			} else {
				entry.Action = domain.AuditActionSeatAssigned
				entry.SeatType = seatType
			}
			if err := r.Audit.Append(ctx, entry); err != nil {
				return err
			}

			org, err = r.Orgs.GetByID(ctx, orgID)
			if err != nil {
				return err
			}
			member = m
			return nil
		})
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	s.announceSeatChange(ctx, org, member)
	return nil
}

func (s *seatService) RemoveSeat(ctx context.Context, actor domain.Actor, orgID, memberID int32) error {
	return s.AssignSeat(ctx, actor, orgID, memberID, domain.SeatTypeNone)
}

// AssignFromPool funds a sponsored seat from a named sponsor pool. The
// org-level sponsored counter remains the source of truth: the assignment
// consumes both one pool seat and one ledger seat in the same transaction,
// so a pool with funding left still fails when the organization's sponsored
// capacity is exhausted.
func (s *seatService) AssignFromPool(ctx context.Context, actor domain.Actor, orgID, memberID, poolID int32) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: seat assignment requires the admin capability", domain.ErrUnauthorized)
	}

	var member *domain.Member
	var org *domain.Organization
	err := runWithRetry(ctx, s.retryCfg, "assign pool seat", func() error {
		return s.store.ExecTx(ctx, func(r repository.Repositories) error {
			m, err := getOrgMember(ctx, r, orgID, memberID)
			if err != nil {
				return err
			}
			if m.Status != domain.MemberStatusActive {
				return fmt.Errorf("%w: seat operations require an active member", domain.ErrInvalidState)
			}
			o, err := r.Orgs.GetByID(ctx, orgID)
			if err != nil {
				return err
			}
			if !o.Features.SponsorPools {
				return fmt.Errorf("%w: named sponsor pools are not enabled for this organization", domain.ErrValidation)
			}
			pool, err := r.Pools.GetByID(ctx, poolID)
			if err != nil {
				return err
			}
			if pool.OrgID != orgID {
				return fmt.Errorf("sponsor pool %d: %w", poolID, domain.ErrNotFound)
			}
			if m.SeatType == domain.SeatTypeSponsored && m.SponsorPoolID != nil && *m.SponsorPoolID == poolID {
				return errNoChange
			}
			ledger, err := r.Ledgers.Get(ctx, orgID)
			if err != nil {
				return err
			}

			if m.SeatType != domain.SeatTypeNone {
				ledger.Release(m.SeatType)
				if err := refundPool(ctx, r, m); err != nil {
					return err
				}
			}
			if err := pool.Take(); err != nil {
				return err
			}
			if err := ledger.Acquire(domain.SeatTypeSponsored); err != nil {
				return err
			}
			m.SeatType = domain.SeatTypeSponsored
			m.SponsorPoolID = &pool.ID

			if err := r.Members.Update(ctx, m); err != nil {
				return err
			}
			if err := r.Ledgers.Update(ctx, ledger); err != nil {
				return err
			}
			if err := r.Pools.Update(ctx, pool); err != nil {
				return err
			}
			if err := r.Audit.Append(ctx, &domain.AuditLogEntry{
				OrgID:      orgID,
				MemberCode: m.MemberCode,
				Action:     domain.AuditActionSeatAssigned,
				ActorID:    actor.ID,
				SeatType:   domain.SeatTypeSponsored,
				Notes:      "funded by sponsor pool " + pool.Name,
			}); err != nil {
				return err
			}
			member = m
			org = o
			return nil
		})
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	s.announceSeatChange(ctx, org, member)
	return nil
}

// refundPool returns the member's current sponsor-pool seat, if any, and
// clears the pool reference.
func refundPool(ctx context.Context, r repository.Repositories, m *domain.Member) error {
	if m.SponsorPoolID == nil {
		return nil
	}
	pool, err := r.Pools.GetByID(ctx, *m.SponsorPoolID)
	if err != nil {
		return err
	}
	pool.Refund()
	if err := r.Pools.Update(ctx, pool); err != nil {
		return err
	}
	m.SponsorPoolID = nil
	return nil
}

func (s *seatService) GetLedger(ctx context.Context, orgID int32) (*domain.SeatLedger, error) {
	var ledger *domain.SeatLedger
	// Runs in a transaction because the first read for a legacy organization
	// materializes the canonical ledger row.
	err := s.store.ExecTx(ctx, func(r repository.Repositories) error {
		l, err := r.Ledgers.Get(ctx, orgID)
		if err != nil {
			return err
		}
		ledger = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

func (s *seatService) CreatePool(ctx context.Context, actor domain.Actor, pool *domain.SponsorPool) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: creating sponsor pools requires the admin capability", domain.ErrUnauthorized)
	}
	if pool.Name == "" {
		return fmt.Errorf("%w: pool name is required", domain.ErrValidation)
	}
	if pool.Funded <= 0 {
		return fmt.Errorf("%w: pool funding must be positive", domain.ErrValidation)
	}
	pool.Remaining = pool.Funded
	return s.store.ExecTx(ctx, func(r repository.Repositories) error {
		org, err := r.Orgs.GetByID(ctx, pool.OrgID)
		if err != nil {
			return err
		}
		if !org.Features.SponsorPools {
			return fmt.Errorf("%w: named sponsor pools are not enabled for this organization", domain.ErrValidation)
		}
		return r.Pools.Create(ctx, pool)
	})
}

func (s *seatService) ListPools(ctx context.Context, orgID int32) ([]domain.SponsorPool, error) {
	return s.store.Repos().Pools.ListByOrg(ctx, orgID)
}

func (s *seatService) announceSeatChange(ctx context.Context, org *domain.Organization, m *domain.Member) {
	if org == nil || m == nil {
		return
	}
	if org.Features.Notifications && m.UserID != nil {
		title := "Seat updated"
		message := fmt.Sprintf("Your seat with %s has been updated.", org.Name)
		if m.SeatType != domain.SeatTypeNone {
			message = fmt.Sprintf("You now hold a %s seat with %s.", m.SeatType, org.Name)
		}
		s.notes.Notify(ctx, *m.UserID, org.ID, "seat_change", title, message)
	}
	if m.Email != "" {
		logger.ExternalServiceCall("email", "seat_change", "member_code", m.MemberCode)
		err := s.email.SendSeatChangeEmail(ctx, m.Email, m.FullName(), org.Name, m.SeatType)
		logger.ExternalServiceResult("email", "seat_change", err, "member_code", m.MemberCode)
	}
}
