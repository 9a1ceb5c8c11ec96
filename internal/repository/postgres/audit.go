package postgres

import (
	"context"
	"time"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/repository"
)

type auditLogRepository struct {
	db dbtx
}

func NewAuditLogRepository(db dbtx) repository.AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Append inserts one history entry. There is deliberately no update or
// delete path for audit rows.
func (r *auditLogRepository) Append(ctx context.Context, e *domain.AuditLogEntry) error {
	query := `INSERT INTO audit_log (org_id, member_code, action, actor_id, seat_type, notes, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	now := time.Now().UTC()
	if err := r.db.QueryRowContext(ctx, query, e.OrgID, e.MemberCode, e.Action, e.ActorID, string(e.SeatType), e.Notes, now).Scan(&e.ID); err != nil {
		return err
	}
	e.CreatedOn = now
	return nil
}

func (r *auditLogRepository) ListByMemberCode(ctx context.Context, orgID int32, memberCode string, limit int32, beforeID int64) ([]domain.AuditLogEntry, error) {
	query := `SELECT id, org_id, member_code, action, actor_id, seat_type, COALESCE(notes, ''), created_on
	          FROM audit_log
	          WHERE org_id = $1 AND member_code = $2 AND ($3 = 0 OR id < $3)
	          ORDER BY id DESC LIMIT $4`
	rows, err := r.db.QueryContext(ctx, query, orgID, memberCode, beforeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var e domain.AuditLogEntry
		var seatType string
		if err := rows.Scan(&e.ID, &e.OrgID, &e.MemberCode, &e.Action, &e.ActorID, &seatType, &e.Notes, &e.CreatedOn); err != nil {
			return nil, err
		}
		e.SeatType = domain.SeatType(seatType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
