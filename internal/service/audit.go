package service

import (
	"context"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/repository"
)

type auditService struct {
	store repository.Store
}

func NewAuditService(store repository.Store) AuditService {
	return &auditService{store: store}
}

// ListMemberHistory pages backwards through a member's history. Pass the id
// of the oldest entry already shown as beforeID to load the next page.
func (s *auditService) ListMemberHistory(ctx context.Context, orgID int32, memberCode string, limit int32, beforeID int64) ([]domain.AuditLogEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.store.Repos().Audit.ListByMemberCode(ctx, orgID, memberCode, limit, beforeID)
}
