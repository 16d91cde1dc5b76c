package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nestlock/nestlock/internal/api/presenter"
)

type CreateGrantPayload struct {
	// TransactionID is the booking transaction to issue a code for.
	TransactionID string `json:"transaction_id"`
}

// CreateGrantResponse is the sanitized issuance payload returned to the
// requester. The pin appears here exactly once; vendor-side identifiers
// stay on the server.
type CreateGrantResponse struct {
	Success   bool      `json:"success"`
	Pin       string    `json:"pin"`
	LockID    string    `json:"lock_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type RevokeGrantResponse struct {
	Revoked bool `json:"revoked"`
}

func DecodePayload(r *http.Request, dest any, allowEmpty bool) error {
	switch r.Header.Get("Content-Type") {
	case "application/json", "":
		// strict encoding for JSON
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(dest); err != nil {
			if !errors.Is(err, io.EOF) || !allowEmpty {
				return err
			}
		}
		// ensure there's no extra data
		if dec.More() {
			return errors.New("extra data in request body")
		}
		return nil
	default:
		return errors.New("unsupported content type")
	}
}

// handleCreateGrant issues an access code for a booking. The response is the
// only place the code ever appears.
func (s *Server) handleCreateGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	var payload CreateGrantPayload
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode grant request payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.TransactionID == "" {
		presenter.Error(w, r, "missing transaction_id", http.StatusBadRequest)
		return
	}

	resp, err := s.recorder.GrantForBooking(ctx, payload.TransactionID)
	if err != nil {
		logger.Warn().Err(err).Str("transaction_id", payload.TransactionID).Msg("grant issuance failed")
		presenter.Err(w, r, err, "grant issuance failed")
		return
	}

	logger.Info().
		Str("transaction_id", payload.TransactionID).
		Str("lock_id", resp.Grant.LockID).
		Msg("access code issued")

	presenter.JSON(w, r, CreateGrantResponse{
		Success:   true,
		Pin:       resp.Grant.Code,
		LockID:    resp.Grant.LockID,
		StartDate: resp.Grant.StartDate,
		EndDate:   resp.Grant.EndDate,
	}, http.StatusCreated)
}

// handleRevokeGrant removes the access code for a booking.
func (s *Server) handleRevokeGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	transactionID := r.PathValue("id")
	if transactionID == "" {
		presenter.Error(w, r, "missing transaction id", http.StatusBadRequest)
		return
	}

	if err := s.recorder.RevokeForBooking(ctx, transactionID); err != nil {
		logger.Warn().Err(err).Str("transaction_id", transactionID).Msg("grant revocation failed")
		presenter.Err(w, r, err, "grant revocation failed")
		return
	}

	logger.Info().Str("transaction_id", transactionID).Msg("access code revoked")
	presenter.JSON(w, r, RevokeGrantResponse{Revoked: true}, http.StatusOK)
}
