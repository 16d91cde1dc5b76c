package store

import (
	"context"
	"sync"
	"time"

	"github.com/nestlock/nestlock/internal/core"
)

// InMemoryGrantStore keeps grant records in a map keyed by transaction ID.
// Records do not survive restarts; the transaction metadata remains the
// durable source of truth.
type InMemoryGrantStore struct {
	mu      sync.RWMutex
	records map[string]core.GrantRecord
}

var _ core.GrantStore = (*InMemoryGrantStore)(nil)

func NewInMemoryGrantStore() *InMemoryGrantStore {
	return &InMemoryGrantStore{
		records: make(map[string]core.GrantRecord),
	}
}

func (s *InMemoryGrantStore) Save(_ context.Context, rec core.GrantRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.TransactionID] = rec
	return nil
}

func (s *InMemoryGrantStore) Get(_ context.Context, transactionID string) (*core.GrantRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[transactionID]
	if !ok {
		return nil, core.ErrRecordNotFound
	}
	return &rec, nil
}

func (s *InMemoryGrantStore) SetRevoked(_ context.Context, transactionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[transactionID]
	if !ok {
		return core.ErrRecordNotFound
	}
	rec.RevokedAt = &at
	s.records[transactionID] = rec
	return nil
}

func (s *InMemoryGrantStore) ListActive(_ context.Context, now time.Time) ([]core.GrantRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]core.GrantRecord, 0)
	for _, rec := range s.records {
		if rec.Active(now) {
			active = append(active, rec)
		}
	}
	return active, nil
}

func (s *InMemoryGrantStore) ListExpired(_ context.Context, now time.Time) ([]core.GrantRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expired := make([]core.GrantRecord, 0)
	for _, rec := range s.records {
		if rec.RevokedAt == nil && rec.Expired(now) {
			expired = append(expired, rec)
		}
	}
	return expired, nil
}

func (s *InMemoryGrantStore) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for id, rec := range s.records {
		revokedBefore := rec.RevokedAt != nil && !rec.RevokedAt.After(cutoff)
		expiredUnrevoked := rec.RevokedAt == nil && rec.Expired(cutoff)
		if revokedBefore || expiredUnrevoked {
			delete(s.records, id)
			purged++
		}
	}
	return purged, nil
}

func (s *InMemoryGrantStore) Close() error {
	return nil
}
