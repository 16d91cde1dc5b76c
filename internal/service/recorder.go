package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nestlock/nestlock/internal/audit"
	"github.com/nestlock/nestlock/internal/core"
	"github.com/nestlock/nestlock/internal/engine"
)

// Recorder orchestrates code issuance for a booking: it loads the transaction,
// validates the listing setup, checks issuance policy, registers the code via
// the grant service and persists the grant metadata. The code itself is handed
// back exactly once and never stored.
type Recorder struct {
	transactions core.TransactionStore
	grants       *GrantService
	store        core.GrantStore
	auditor      core.Auditor
	policy       *engine.Engine

	// inflight holds one lease per transaction so concurrent issuance for
	// the same booking collapses to a single vendor registration.
	inflight sync.Map

	now func() time.Time
}

func NewRecorder(
	transactions core.TransactionStore,
	grants *GrantService,
	store core.GrantStore,
	auditor core.Auditor,
	policy *engine.Engine,
) *Recorder {
	return &Recorder{
		transactions: transactions,
		grants:       grants,
		store:        store,
		auditor:      auditor,
		policy:       policy,
		now:          time.Now,
	}
}

// GrantForBooking issues an access code for the booking transaction.
func (r *Recorder) GrantForBooking(ctx context.Context, transactionID string) (*GrantResponse, error) {
	logger := log.Ctx(ctx)
	reqID, _ := ctx.Value("correlation_id").(string)

	auditEntry := audit.NewEntry(reqID, audit.ActionGrantIssue)
	auditEntry.TransactionID = transactionID
	defer func() {
		if err := r.auditor.Log(auditEntry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for grant issuance")
		}
	}()

	if _, loaded := r.inflight.LoadOrStore(transactionID, struct{}{}); loaded {
		auditEntry.Error = "issuance already in progress"
		return nil, httpError(http.StatusConflict,
			fmt.Errorf("a grant for this booking is already being issued"))
	}
	defer r.inflight.Delete(transactionID)

	bc, err := r.transactions.FetchTransaction(ctx, transactionID)
	if err != nil {
		auditEntry.Error = "fetching transaction failed"
		return nil, httpError(http.StatusBadGateway,
			fmt.Errorf("fetching transaction: %w", err))
	}

	if bc.Listing == nil || bc.Listing.LockID == "" {
		auditEntry.Error = "lock not configured"
		return nil, httpError(http.StatusUnprocessableEntity,
			fmt.Errorf("Lock ID not configured for this listing"))
	}
	if bc.Booking == nil || bc.Booking.Start.IsZero() || bc.Booking.End.IsZero() {
		auditEntry.Error = "booking dates missing"
		return nil, httpError(http.StatusUnprocessableEntity,
			fmt.Errorf("Booking dates not found"))
	}
	auditEntry.LockID = bc.Listing.LockID

	var guest string
	if bc.Customer != nil {
		guest = bc.Customer.DisplayName
	}

	if err := r.policy.Evaluate(engine.Env{
		TransactionID: transactionID,
		LockID:        bc.Listing.LockID,
		Guest:         guest,
		Nights:        bc.Booking.End.Sub(bc.Booking.Start).Hours() / 24,
	}); err != nil {
		var denied engine.DeniedError
		if errors.As(err, &denied) {
			auditEntry.Error = "policy denied"
			auditEntry.Metadata = map[string]any{"rule": denied.Rule.Name}
			return nil, httpError(http.StatusForbidden, err)
		}
		auditEntry.Error = "policy engine error"
		return nil, httpError(http.StatusInternalServerError, err)
	}

	// A second grant for the same booking replaces the previous one: revoke
	// the old vendor registration best-effort, the new record wins.
	if prev, err := r.store.Get(ctx, transactionID); err == nil && prev.RevokedAt == nil {
		logger.Info().
			Int64("vendor_grant_id", prev.VendorGrantID).
			Msg("replacing existing grant for booking")
		r.grants.Revoke(ctx, prev.LockID, prev.VendorGrantID)
	}

	result, err := r.grants.Register(ctx, RegisterRequest{
		LockID:    bc.Listing.LockID,
		GuestName: guest,
		Start:     bc.Booking.Start,
		End:       bc.Booking.End,
	})
	if err != nil {
		auditEntry.Error = "code generation failed"
		return nil, httpError(http.StatusInternalServerError, err)
	}
	if !result.Success {
		auditEntry.Error = "vendor registration failed"
		return nil, httpError(http.StatusBadGateway,
			fmt.Errorf("registering code with lock vendor: %w", result.Err))
	}
	grant := result.Grant
	auditEntry.VendorGrantID = grant.VendorGrantID

	createdAt := r.now()
	if err := r.transactions.UpdateMetadata(ctx, transactionID, grantMetadata(grant, createdAt)); err != nil {
		// The vendor registration succeeded but we cannot record it: revoke
		// the fresh grant best-effort so no orphaned code stays on the lock.
		auditEntry.Error = "persisting grant metadata failed"
		r.grants.Revoke(ctx, grant.LockID, grant.VendorGrantID)
		return nil, httpError(http.StatusBadGateway,
			fmt.Errorf("persisting grant metadata: %w", err))
	}

	record := core.GrantRecord{
		TransactionID: transactionID,
		LockID:        grant.LockID,
		VendorGrantID: grant.VendorGrantID,
		StartDate:     grant.StartDate,
		EndDate:       grant.EndDate,
		CreatedAt:     createdAt,
	}
	if err := r.store.Save(ctx, record); err != nil {
		// The transaction metadata is the source of truth; a failed local
		// save costs us admin listing, not correctness.
		logger.Error().Err(err).Msg("failed to save grant record")
	}

	auditEntry.Success = true
	auditEntry.Metadata = map[string]any{
		"start_date": grant.StartDate,
		"end_date":   grant.EndDate,
	}

	return &GrantResponse{Grant: grant, Record: &record}, nil
}

// RevokeForBooking removes the booking's access code from the lock and clears
// the stored grant metadata.
func (r *Recorder) RevokeForBooking(ctx context.Context, transactionID string) error {
	logger := log.Ctx(ctx)
	reqID, _ := ctx.Value("correlation_id").(string)

	auditEntry := audit.NewEntry(reqID, audit.ActionGrantRevoke)
	auditEntry.TransactionID = transactionID
	defer func() {
		if err := r.auditor.Log(auditEntry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for grant revocation")
		}
	}()

	lockID, vendorGrantID, err := r.resolveGrant(ctx, transactionID)
	if err != nil {
		auditEntry.Error = "no grant recorded"
		return err
	}
	auditEntry.LockID = lockID
	auditEntry.VendorGrantID = vendorGrantID

	if outcome := r.grants.Revoke(ctx, lockID, vendorGrantID); !outcome.Ok {
		auditEntry.Error = "vendor revocation failed"
		return httpError(http.StatusBadGateway,
			fmt.Errorf("revoking code with lock vendor: %w", outcome.Err))
	}

	if err := r.transactions.UpdateMetadata(ctx, transactionID, map[string]any{"ttlock": nil}); err != nil {
		auditEntry.Error = "clearing grant metadata failed"
		return httpError(http.StatusBadGateway,
			fmt.Errorf("clearing grant metadata: %w", err))
	}

	if err := r.store.SetRevoked(ctx, transactionID, r.now()); err != nil &&
		!errors.Is(err, core.ErrRecordNotFound) {
		logger.Error().Err(err).Msg("failed to mark grant record revoked")
	}

	auditEntry.Success = true
	return nil
}

// resolveGrant finds the vendor-side registration for a booking: the local
// record first, falling back to the transaction's stored metadata so
// revocation works even when the local store was wiped.
func (r *Recorder) resolveGrant(ctx context.Context, transactionID string) (string, int64, error) {
	if rec, err := r.store.Get(ctx, transactionID); err == nil {
		if rec.RevokedAt != nil {
			return "", 0, httpError(http.StatusGone, fmt.Errorf("grant already revoked"))
		}
		return rec.LockID, rec.VendorGrantID, nil
	}

	bc, err := r.transactions.FetchTransaction(ctx, transactionID)
	if err != nil {
		return "", 0, httpError(http.StatusBadGateway,
			fmt.Errorf("fetching transaction: %w", err))
	}
	if lockID, vendorGrantID, ok := grantRefFromMetadata(bc.Transaction.Metadata); ok {
		return lockID, vendorGrantID, nil
	}

	return "", 0, httpError(http.StatusNotFound,
		fmt.Errorf("no grant recorded for this booking"))
}

// grantMetadata is the durable metadata written onto the transaction.
// It never contains the code.
func grantMetadata(grant *core.AccessGrant, createdAt time.Time) map[string]any {
	return map[string]any{
		"ttlock": map[string]any{
			"lockId":        grant.LockID,
			"keyboardPwdId": grant.VendorGrantID,
			"startDate":     grant.StartDate.UnixMilli(),
			"endDate":       grant.EndDate.UnixMilli(),
			"createdAt":     createdAt.UnixMilli(),
		},
	}
}

func grantRefFromMetadata(metadata map[string]any) (string, int64, bool) {
	ttlockMeta, ok := metadata["ttlock"].(map[string]any)
	if !ok {
		return "", 0, false
	}
	lockID, _ := ttlockMeta["lockId"].(string)

	// JSON numbers decode as float64.
	var vendorGrantID int64
	switch v := ttlockMeta["keyboardPwdId"].(type) {
	case float64:
		vendorGrantID = int64(v)
	case int64:
		vendorGrantID = v
	default:
		return "", 0, false
	}

	if lockID == "" || vendorGrantID == 0 {
		return "", 0, false
	}
	return lockID, vendorGrantID, true
}
