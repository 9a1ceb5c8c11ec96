package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/repository"

	"github.com/lib/pq"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so every repository can run
// against the pool or inside a transaction unchanged.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db    *sql.DB
	repos repository.Repositories
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		repos: newRepositories(db),
	}
}

func newRepositories(q dbtx) repository.Repositories {
	return repository.Repositories{
		Members:       NewMemberRepository(q),
		Ledgers:       NewSeatLedgerRepository(q),
		Pools:         NewSponsorPoolRepository(q),
		Applications:  NewApplicationRepository(q),
		JoinRequests:  NewJoinRequestRepository(q),
		JoinCodes:     NewJoinCodeRepository(q),
		Audit:         NewAuditLogRepository(q),
		Notifications: NewNotificationRepository(q),
		Orgs:          NewOrganizationRepository(q),
	}
}

func (s *Store) Repos() repository.Repositories {
	return s.repos
}

// ExecTx runs fn inside one database transaction. Repositories handed to fn
// are bound to that transaction, so member, ledger, pool and audit writes
// commit or roll back as a unit. Serialization failures and version-guard
// misses both surface as domain.ErrConflict for the caller's retry loop.
func (s *Store) ExecTx(ctx context.Context, fn func(r repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(newRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("commit: %w", domain.ErrConflict)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// isSerializationFailure reports whether err is a postgres serialization or
// deadlock failure, both of which are safe to retry.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
