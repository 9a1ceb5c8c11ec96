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

type joinCodeRepository struct {
	db dbtx
}

func NewJoinCodeRepository(db dbtx) repository.JoinCodeRepository {
	return &joinCodeRepository{db: db}
}

func (r *joinCodeRepository) Create(ctx context.Context, c *domain.JoinCode) error {
	query := `INSERT INTO join_codes (org_id, code, created_by, active, expires_on, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	now := time.Now().UTC()
	if err := r.db.QueryRowContext(ctx, query, c.OrgID, c.Code, c.CreatedBy, c.Active, c.ExpiresOn, now).Scan(&c.ID); err != nil {
		return err
	}
	c.CreatedOn = now
	return nil
}

func (r *joinCodeRepository) GetByCode(ctx context.Context, code string) (*domain.JoinCode, error) {
	c := &domain.JoinCode{}
	query := `SELECT id, org_id, code, created_by, active, expires_on, created_on FROM join_codes WHERE code = $1`
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&c.ID, &c.OrgID, &c.Code, &c.CreatedBy, &c.Active, &c.ExpiresOn, &c.CreatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("join code: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func (r *joinCodeRepository) Deactivate(ctx context.Context, id int32) error {
	_, err := r.db.ExecContext(ctx, `UPDATE join_codes SET active = false WHERE id = $1`, id)
	return err
}

func (r *joinCodeRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE join_codes SET active = false WHERE active = true AND expires_on < $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
