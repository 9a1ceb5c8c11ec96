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

type applicationRepository struct {
	db dbtx
}

func NewApplicationRepository(db dbtx) repository.ApplicationRepository {
	return &applicationRepository{db: db}
}

// The draft member payload travels as a JSONB document; only the engine
// reads it, so there is no column-level schema to keep in sync.
func (r *applicationRepository) Create(ctx context.Context, app *domain.MemberApplication) error {
	payload, err := json.Marshal(app.Member)
	if err != nil {
		return fmt.Errorf("marshal application payload: %w", err)
	}
	query := `INSERT INTO member_applications (org_id, submitted_by, status, payload, rejection_reason, version, created_on)
	          VALUES ($1, $2, $3, $4, $5, 1, $6) RETURNING id`
	now := time.Now().UTC()
	if err := r.db.QueryRowContext(ctx, query, app.OrgID, app.SubmittedBy, app.Status, payload, app.RejectionReason, now).Scan(&app.ID); err != nil {
		return err
	}
	app.Version = 1
	app.CreatedOn = now
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id int32) (*domain.MemberApplication, error) {
	app := &domain.MemberApplication{}
	var payload []byte
	query := `SELECT id, org_id, submitted_by, status, payload, COALESCE(rejection_reason, ''), version, created_on, processed_by, processed_on
	          FROM member_applications WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&app.ID, &app.OrgID, &app.SubmittedBy, &app.Status, &payload, &app.RejectionReason,
		&app.Version, &app.CreatedOn, &app.ProcessedBy, &app.ProcessedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("application %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	if err := json.Unmarshal(payload, &app.Member); err != nil {
		return nil, fmt.Errorf("unmarshal application payload: %w", err)
	}
	return app, nil
}

func (r *applicationRepository) Update(ctx context.Context, app *domain.MemberApplication) error {
	payload, err := json.Marshal(app.Member)
	if err != nil {
		return fmt.Errorf("marshal application payload: %w", err)
	}
	query := `UPDATE member_applications SET status = $1, payload = $2, rejection_reason = $3,
	          processed_by = $4, processed_on = $5, version = version + 1
	          WHERE id = $6 AND version = $7`
	result, err := r.db.ExecContext(ctx, query, app.Status, payload, app.RejectionReason,
		app.ProcessedBy, app.ProcessedOn, app.ID, app.Version)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("application %d: %w", app.ID, domain.ErrConflict)
	}
	app.Version++
	return nil
}

func (r *applicationRepository) ListByOrg(ctx context.Context, orgID int32, status domain.ApplicationStatus) ([]domain.MemberApplication, error) {
	query := `SELECT id, org_id, submitted_by, status, payload, COALESCE(rejection_reason, ''), version, created_on, processed_by, processed_on
	          FROM member_applications WHERE org_id = $1 AND ($2 = '' OR status = $2) ORDER BY created_on DESC`
	rows, err := r.db.QueryContext(ctx, query, orgID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.MemberApplication
	for rows.Next() {
		var app domain.MemberApplication
		var payload []byte
		if err := rows.Scan(&app.ID, &app.OrgID, &app.SubmittedBy, &app.Status, &payload, &app.RejectionReason,
			&app.Version, &app.CreatedOn, &app.ProcessedBy, &app.ProcessedOn); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &app.Member); err != nil {
			return nil, fmt.Errorf("unmarshal application payload: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}
