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

type joinRequestRepository struct {
	db dbtx
}

func NewJoinRequestRepository(db dbtx) repository.JoinRequestRepository {
	return &joinRequestRepository{db: db}
}

const joinRequestColumns = `id, org_id, join_code_id, user_id, name, email, phone, COALESCE(note, ''),
	status, COALESCE(rejection_reason, ''), version, created_on, processed_by, processed_on`

func scanJoinRequest(row rowScanner) (*domain.JoinRequest, error) {
	req := &domain.JoinRequest{}
	err := row.Scan(&req.ID, &req.OrgID, &req.JoinCodeID, &req.UserID, &req.Name, &req.Email, &req.Phone, &req.Note,
		&req.Status, &req.RejectionReason, &req.Version, &req.CreatedOn, &req.ProcessedBy, &req.ProcessedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("join request: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return req, nil
}

func (r *joinRequestRepository) Create(ctx context.Context, req *domain.JoinRequest) error {
	query := `INSERT INTO join_requests (org_id, join_code_id, user_id, name, email, phone, note, status, version, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9) RETURNING id`
	now := time.Now().UTC()
	if err := r.db.QueryRowContext(ctx, query, req.OrgID, req.JoinCodeID, req.UserID, req.Name, req.Email, req.Phone, req.Note, req.Status, now).Scan(&req.ID); err != nil {
		return err
	}
	req.Version = 1
	req.CreatedOn = now
	return nil
}

func (r *joinRequestRepository) GetByID(ctx context.Context, id int32) (*domain.JoinRequest, error) {
	query := `SELECT ` + joinRequestColumns + ` FROM join_requests WHERE id = $1`
	return scanJoinRequest(r.db.QueryRowContext(ctx, query, id))
}

func (r *joinRequestRepository) Update(ctx context.Context, req *domain.JoinRequest) error {
	query := `UPDATE join_requests SET status = $1, rejection_reason = $2, user_id = $3,
	          processed_by = $4, processed_on = $5, version = version + 1
	          WHERE id = $6 AND version = $7`
	result, err := r.db.ExecContext(ctx, query, req.Status, req.RejectionReason, req.UserID,
		req.ProcessedBy, req.ProcessedOn, req.ID, req.Version)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("join request %d: %w", req.ID, domain.ErrConflict)
	}
	req.Version++
	return nil
}

func (r *joinRequestRepository) ListByOrg(ctx context.Context, orgID int32, status domain.JoinRequestStatus) ([]domain.JoinRequest, error) {
	query := `SELECT ` + joinRequestColumns + ` FROM join_requests
	          WHERE org_id = $1 AND ($2 = '' OR status = $2) ORDER BY created_on DESC`
	rows, err := r.db.QueryContext(ctx, query, orgID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.JoinRequest
	for rows.Next() {
		req, err := scanJoinRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *req)
	}
	return reqs, rows.Err()
}
