package jobs

import (
	"context"

	"agricoop-backend/internal/domain"
	"agricoop-backend/internal/logger"
	"agricoop-backend/internal/repository"
)

// ReconcileSeatLedgers compares each organization's ledger counters against
// the actual member rows and reports any drift. The job only observes; a
// mismatch means a bug or manual data surgery, and fixing it automatically
// would hide the evidence.
func (jr *JobRunner) ReconcileSeatLedgers() {
	jr.runWithRecovery("ReconcileSeatLedgers", func() {
		ctx := context.Background()

		orgs, err := jr.store.Repos().Orgs.List(ctx)
		if err != nil {
			logger.Error("Failed to list organizations", "error", err)
			return
		}

		checked, drifted := 0, 0
		for _, org := range orgs {
			ok, err := jr.ReconcileOrg(ctx, org.ID)
			if err != nil {
				logger.Error("Failed to reconcile organization", "org_id", org.ID, "error", err)
				continue
			}
			checked++
			if !ok {
				drifted++
			}
		}
		logger.Info("Seat ledger reconciliation finished", "orgs_checked", checked, "orgs_with_drift", drifted)
	})
}

// ReconcileOrg checks one organization's counters and returns whether they
// match the member rows. Drift details go to the log.
func (jr *JobRunner) ReconcileOrg(ctx context.Context, orgID int32) (bool, error) {
	clean := true
	// Runs in a transaction because the ledger read may materialize the
	// canonical row for a legacy organization.
	err := jr.store.ExecTx(ctx, func(r repository.Repositories) error {
		ledger, err := r.Ledgers.Get(ctx, orgID)
		if err != nil {
			return err
		}

		paidCount, err := r.Members.CountBySeatType(ctx, orgID, domain.SeatTypePaid)
		if err != nil {
			return err
		}
		if paidCount != ledger.PaidUsed {
			clean = false
			logger.Warn("Paid seat counter drift",
				"org_id", orgID,
				"ledger_used", ledger.PaidUsed,
				"member_count", paidCount)
		}

		sponsoredCount, err := r.Members.CountBySeatType(ctx, orgID, domain.SeatTypeSponsored)
		if err != nil {
			return err
		}
		if sponsoredCount != ledger.SponsoredUsed {
			clean = false
			logger.Warn("Sponsored seat counter drift",
				"org_id", orgID,
				"ledger_used", ledger.SponsoredUsed,
				"member_count", sponsoredCount)
		}

		pools, err := r.Pools.ListByOrg(ctx, orgID)
		if err != nil {
			return err
		}
		for i := range pools {
			pool := &pools[i]
			funded, err := r.Members.CountBySponsorPool(ctx, pool.ID)
			if err != nil {
				return err
			}
			if funded != pool.Assigned() {
				clean = false
				logger.Warn("Sponsor pool counter drift",
					"org_id", orgID,
					"pool_id", pool.ID,
					"pool_name", pool.Name,
					"pool_assigned", pool.Assigned(),
					"member_count", funded)
			}
		}
		return nil
	})
	return clean, err
}
