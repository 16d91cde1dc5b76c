package service

import (
	"context"
	"time"

	"github.com/nestlock/nestlock/internal/audit"
	"github.com/nestlock/nestlock/internal/core"
	"github.com/nestlock/nestlock/internal/logging"
	"github.com/nestlock/nestlock/internal/tasks"
)

// SweepTaskName is the registered name of the expired-grant sweep.
const SweepTaskName = "grant-sweep"

// NewSweepTask returns the background task that reconciles expired grants:
// vendor registrations whose validity window has passed are revoked and, once
// past the retention period, the local records are purged. The vendor also
// stops accepting expired codes on its own; the sweep keeps the lock's code
// list and our records tidy.
func NewSweepTask(grants *GrantService, store core.GrantStore, auditor core.Auditor, retention time.Duration) tasks.TaskFunc {
	return func(ctx context.Context, logger logging.InternalLogger) error {
		now := time.Now()

		expired, err := store.ListExpired(ctx, now)
		if err != nil {
			return err
		}
		logger.Info("found %d expired grants", len(expired))

		var revoked int
		for _, rec := range expired {
			outcome := grants.Revoke(ctx, rec.LockID, rec.VendorGrantID)
			if !outcome.Ok {
				// Vendor-side rejections usually mean the code is already
				// gone; mark the record revoked either way so the sweep
				// does not retry forever. Transport faults are retried on
				// the next run.
				if outcome.Kind == "transport-error" {
					logger.Warn("skipping grant for transaction %s: %v", rec.TransactionID, outcome.Err)
					continue
				}
				logger.Info("vendor already dropped grant for transaction %s", rec.TransactionID)
			}

			if err := store.SetRevoked(ctx, rec.TransactionID, now); err != nil {
				logger.Error("marking grant revoked for transaction %s: %v", rec.TransactionID, err)
				continue
			}
			revoked++

			entry := audit.NewEntry("", audit.ActionGrantSweep)
			entry.TransactionID = rec.TransactionID
			entry.LockID = rec.LockID
			entry.VendorGrantID = rec.VendorGrantID
			entry.Success = true
			if err := auditor.Log(entry); err != nil {
				logger.Error("writing audit entry: %v", err)
			}
		}

		cutoff := now
		if retention > 0 {
			cutoff = now.Add(-retention)
		}
		purged, err := store.Purge(ctx, cutoff)
		if err != nil {
			return err
		}

		logger.Info("sweep done: %d revoked, %d purged", revoked, purged)
		return nil
	}
}
