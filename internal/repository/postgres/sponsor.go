package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/repository"
)

type sponsorPoolRepository struct {
	db dbtx
}

func NewSponsorPoolRepository(db dbtx) repository.SponsorPoolRepository {
	return &sponsorPoolRepository{db: db}
}

func (r *sponsorPoolRepository) Create(ctx context.Context, p *domain.SponsorPool) error {
	query := `INSERT INTO sponsor_pools (org_id, name, partner, funded, remaining, version, created_on)
	          VALUES ($1, $2, $3, $4, $5, 1, $6) RETURNING id`
	now := time.Now().UTC()
	if err := r.db.QueryRowContext(ctx, query, p.OrgID, p.Name, p.Partner, p.Funded, p.Remaining, now).Scan(&p.ID); err != nil {
		return err
	}
	p.Version = 1
	p.CreatedOn = now
	return nil
}

func (r *sponsorPoolRepository) GetByID(ctx context.Context, id int32) (*domain.SponsorPool, error) {
	p := &domain.SponsorPool{}
	query := `SELECT id, org_id, name, COALESCE(partner, ''), funded, remaining, version, created_on
	          FROM sponsor_pools WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.OrgID, &p.Name, &p.Partner, &p.Funded, &p.Remaining, &p.Version, &p.CreatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sponsor pool %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (r *sponsorPoolRepository) Update(ctx context.Context, p *domain.SponsorPool) error {
	query := `UPDATE sponsor_pools SET name = $1, partner = $2, funded = $3, remaining = $4,
	          version = version + 1 WHERE id = $5 AND version = $6`
	result, err := r.db.ExecContext(ctx, query, p.Name, p.Partner, p.Funded, p.Remaining, p.ID, p.Version)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("sponsor pool %d: %w", p.ID, domain.ErrConflict)
	}
	p.Version++
	return nil
}

func (r *sponsorPoolRepository) ListByOrg(ctx context.Context, orgID int32) ([]domain.SponsorPool, error) {
	query := `SELECT id, org_id, name, COALESCE(partner, ''), funded, remaining, version, created_on
	          FROM sponsor_pools WHERE org_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []domain.SponsorPool
	for rows.Next() {
		var p domain.SponsorPool
		if err := rows.Scan(&p.ID, &p.OrgID, &p.Name, &p.Partner, &p.Funded, &p.Remaining, &p.Version, &p.CreatedOn); err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}
