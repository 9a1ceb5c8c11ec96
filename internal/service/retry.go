package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agricoop-backend/internal/config"
	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/logger"
)

// runWithRetry re-executes fn while it fails with domain.ErrConflict,
// doubling the backoff between attempts. Once the budget is exhausted the
// final conflict error is returned, never swallowed.
func runWithRetry(ctx context.Context, cfg config.RetryConfig, op string, fn func() error) error {
	backoff := cfg.InitialBackoff()
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			return err
		}
		lastErr = err
		logger.Debug("transaction conflict, retrying", "operation", op, "attempt", attempt, "backoff", backoff)

		if attempt == cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	logger.Warn("retry budget exhausted", "operation", op, "attempts", cfg.MaxAttempts)
	return fmt.Errorf("%s failed after %d attempts: %w", op, cfg.MaxAttempts, lastErr)
}
