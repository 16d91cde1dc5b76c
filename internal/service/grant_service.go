package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nestlock/nestlock/internal/core"
	"github.com/nestlock/nestlock/internal/pincode"
	"github.com/nestlock/nestlock/internal/ttlock"
)

// GrantService turns a registration request into a vendor-side keyboard
// password: it draws the code, labels the grant and talks to the lock vendor.
type GrantService struct {
	vendor core.LockVendor
}

func NewGrantService(vendor core.LockVendor) *GrantService {
	return &GrantService{vendor: vendor}
}

// Register draws a fresh 6-digit code and registers it on the lock for the
// requested window. Vendor rejections come back as an unsuccessful result;
// only local faults (e.g. the random source) surface as errors.
func (s *GrantService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	code, err := pincode.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating code: %w", err)
	}

	guest := req.GuestName
	if guest == "" {
		guest = "Guest"
	}
	name := "Booking - " + guest

	vendorGrantID, err := s.vendor.AddKeyboardPassword(ctx, core.KeyboardPassword{
		LockID: req.LockID,
		Code:   code,
		Name:   name,
		Start:  req.Start,
		End:    req.End,
	})
	if err != nil {
		return &RegisterResult{Success: false, Err: err}, nil
	}

	return &RegisterResult{
		Success: true,
		Grant: &core.AccessGrant{
			Code:          code,
			LockID:        req.LockID,
			StartDate:     req.Start,
			EndDate:       req.End,
			VendorGrantID: vendorGrantID,
		},
	}, nil
}

// Revoke removes a vendor-side registration. The public contract is boolean;
// the outcome tag distinguishes vendor rejections from transport faults so
// callers can log them apart.
func (s *GrantService) Revoke(ctx context.Context, lockID string, vendorGrantID int64) RevokeOutcome {
	err := s.vendor.DeleteKeyboardPassword(ctx, lockID, vendorGrantID)
	if err == nil {
		return RevokeOutcome{Ok: true, Kind: "ok"}
	}

	logger := log.Ctx(ctx)

	var apiErr *ttlock.APIError
	if errors.As(err, &apiErr) {
		logger.Warn().
			Str("lock_id", lockID).
			Int64("vendor_grant_id", vendorGrantID).
			Int("errcode", apiErr.Code).
			Msg("vendor rejected revocation")
		return RevokeOutcome{Ok: false, Kind: "vendor-error", Err: err}
	}

	logger.Warn().
		Str("lock_id", lockID).
		Int64("vendor_grant_id", vendorGrantID).
		Err(err).
		Msg("revocation transport failure")
	return RevokeOutcome{Ok: false, Kind: "transport-error", Err: err}
}
