package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/repository"
)

type seatLedgerRepository struct {
	db dbtx
}

func NewSeatLedgerRepository(db dbtx) repository.SeatLedgerRepository {
	return &seatLedgerRepository{db: db}
}

// Get returns the canonical ledger row for the organization. Organizations
// created before the seat_ledgers table existed carry their quota in the
// legacy settings blob on the organizations row; those are normalized into a
// canonical row on first read so the allocator never sees the legacy shape.
func (r *seatLedgerRepository) Get(ctx context.Context, orgID int32) (*domain.SeatLedger, error) {
	l := &domain.SeatLedger{}
	query := `SELECT org_id, paid_total, paid_used, sponsored_total, sponsored_used, version, updated_on
	          FROM seat_ledgers WHERE org_id = $1`
	err := r.db.QueryRowContext(ctx, query, orgID).Scan(
		&l.OrgID, &l.PaidTotal, &l.PaidUsed, &l.SponsoredTotal, &l.SponsoredUsed, &l.Version, &l.UpdatedOn)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return r.migrateLegacyQuota(ctx, orgID)
}

func (r *seatLedgerRepository) migrateLegacyQuota(ctx context.Context, orgID int32) (*domain.SeatLedger, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(settings, '{}') FROM organizations WHERE id = $1`, orgID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("organization %d: %w", orgID, domain.ErrNotFound)
		}
		return nil, err
	}
	l := ledgerFromLegacySettings(orgID, raw)
	if err := r.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// legacySettings covers the field-name shapes the quota blob has gone
// through. Normalization happens here, once, so the allocator logic stays
// schema-agnostic.
type legacySettings struct {
	PaidTotal      *int32 `json:"paid_total"`
	PaidSeats      *int32 `json:"paid_seats"`
	PaidCapacity   *int32 `json:"paidSeatCapacity"`
	SponsoredTotal *int32 `json:"sponsored_total"`
	SponsoredSeats *int32 `json:"sponsored_seats"`
	SponsorSeatCap *int32 `json:"sponsorSeatCapacity"`
}

func ledgerFromLegacySettings(orgID int32, raw []byte) *domain.SeatLedger {
	var s legacySettings
	// A malformed blob degrades to a zero-capacity ledger rather than
	// failing the read.
	_ = json.Unmarshal(raw, &s)

	first := func(candidates ...*int32) int32 {
		for _, c := range candidates {
			if c != nil {
				return *c
			}
		}
		return 0
	}
	return &domain.SeatLedger{
		OrgID:          orgID,
		PaidTotal:      first(s.PaidTotal, s.PaidSeats, s.PaidCapacity),
		SponsoredTotal: first(s.SponsoredTotal, s.SponsoredSeats, s.SponsorSeatCap),
	}
}

func (r *seatLedgerRepository) Create(ctx context.Context, l *domain.SeatLedger) error {
	query := `INSERT INTO seat_ledgers (org_id, paid_total, paid_used, sponsored_total, sponsored_used, version, updated_on)
	          VALUES ($1, $2, $3, $4, $5, 1, $6)`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, l.OrgID, l.PaidTotal, l.PaidUsed, l.SponsoredTotal, l.SponsoredUsed, now); err != nil {
		return err
	}
	l.Version = 1
	l.UpdatedOn = now
	return nil
}

func (r *seatLedgerRepository) Update(ctx context.Context, l *domain.SeatLedger) error {
	query := `UPDATE seat_ledgers SET
		paid_total = $1, paid_used = $2, sponsored_total = $3, sponsored_used = $4,
		version = version + 1, updated_on = $5
	WHERE org_id = $6 AND version = $7`
	result, err := r.db.ExecContext(ctx, query,
		l.PaidTotal, l.PaidUsed, l.SponsoredTotal, l.SponsoredUsed, time.Now().UTC(), l.OrgID, l.Version)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("seat ledger org %d: %w", l.OrgID, domain.ErrConflict)
	}
	l.Version++
	return nil
}
