package jobs

import (
	"context"
	"time"

	"agricoop-backend/internal/logger"
)

// ExpireJoinCodes deactivates every join code whose expiry has passed so the
// public submission endpoint stops accepting it.
func (jr *JobRunner) ExpireJoinCodes() {
	jr.runWithRecovery("ExpireJoinCodes", func() {
		ctx := context.Background()

		count, err := jr.store.Repos().JoinCodes.DeactivateExpired(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Failed to deactivate expired join codes", "error", err)
			return
		}
		logger.Info("Deactivated expired join codes", "count", count)
	})
}
