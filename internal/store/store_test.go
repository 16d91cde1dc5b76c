package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nestlock/nestlock/internal/config"
	"github.com/nestlock/nestlock/internal/core"
)

// grantStoreSuite runs the shared contract tests against any driver.
func grantStoreSuite(t *testing.T, newStore func(t *testing.T) core.GrantStore) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

	active := core.GrantRecord{
		TransactionID: "tx-active",
		LockID:        "12345",
		VendorGrantID: 999,
		StartDate:     now.Add(-24 * time.Hour),
		EndDate:       now.Add(48 * time.Hour),
		CreatedAt:     now.Add(-24 * time.Hour),
	}
	expired := core.GrantRecord{
		TransactionID: "tx-expired",
		LockID:        "12345",
		VendorGrantID: 1000,
		StartDate:     now.Add(-96 * time.Hour),
		EndDate:       now.Add(-48 * time.Hour),
		CreatedAt:     now.Add(-96 * time.Hour),
	}

	t.Run("save and get", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()
		ctx := context.Background()

		if err := s.Save(ctx, active); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := s.Get(ctx, "tx-active")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.VendorGrantID != 999 || got.LockID != "12345" {
			t.Errorf("Get() = %+v", got)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()

		_, err := s.Get(context.Background(), "tx-unknown")
		if !errors.Is(err, core.ErrRecordNotFound) {
			t.Fatalf("Get() error = %v, want ErrRecordNotFound", err)
		}
	})

	t.Run("save replaces existing record", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()
		ctx := context.Background()

		if err := s.Save(ctx, active); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		updated := active
		updated.VendorGrantID = 1234
		if err := s.Save(ctx, updated); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := s.Get(ctx, "tx-active")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.VendorGrantID != 1234 {
			t.Errorf("VendorGrantID = %d, want 1234", got.VendorGrantID)
		}
	})

	t.Run("set revoked", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()
		ctx := context.Background()

		if err := s.Save(ctx, active); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := s.SetRevoked(ctx, "tx-active", now); err != nil {
			t.Fatalf("SetRevoked() error = %v", err)
		}

		got, err := s.Get(ctx, "tx-active")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.RevokedAt == nil {
			t.Fatal("RevokedAt = nil, want set")
		}
		if got.Active(now) {
			t.Error("record still active after revocation")
		}

		if err := s.SetRevoked(ctx, "tx-unknown", now); !errors.Is(err, core.ErrRecordNotFound) {
			t.Errorf("SetRevoked(unknown) error = %v, want ErrRecordNotFound", err)
		}
	})

	t.Run("list active and expired", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()
		ctx := context.Background()

		for _, rec := range []core.GrantRecord{active, expired} {
			if err := s.Save(ctx, rec); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		}

		got, err := s.ListActive(ctx, now)
		if err != nil {
			t.Fatalf("ListActive() error = %v", err)
		}
		if len(got) != 1 || got[0].TransactionID != "tx-active" {
			t.Errorf("ListActive() = %+v, want only tx-active", got)
		}

		got, err = s.ListExpired(ctx, now)
		if err != nil {
			t.Fatalf("ListExpired() error = %v", err)
		}
		if len(got) != 1 || got[0].TransactionID != "tx-expired" {
			t.Errorf("ListExpired() = %+v, want only tx-expired", got)
		}
	})

	t.Run("purge", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close() }()
		ctx := context.Background()

		for _, rec := range []core.GrantRecord{active, expired} {
			if err := s.Save(ctx, rec); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		}

		purged, err := s.Purge(ctx, now)
		if err != nil {
			t.Fatalf("Purge() error = %v", err)
		}
		if purged != 1 {
			t.Errorf("Purge() = %d, want 1", purged)
		}
		if _, err := s.Get(ctx, "tx-expired"); !errors.Is(err, core.ErrRecordNotFound) {
			t.Errorf("expired record still present after purge")
		}
		if _, err := s.Get(ctx, "tx-active"); err != nil {
			t.Errorf("active record purged: %v", err)
		}
	})
}

func TestInMemoryGrantStore(t *testing.T) {
	grantStoreSuite(t, func(t *testing.T) core.GrantStore {
		return NewInMemoryGrantStore()
	})
}

func TestSQLiteGrantStore(t *testing.T) {
	grantStoreSuite(t, func(t *testing.T) core.GrantStore {
		s, err := NewSQLiteGrantStore(SQLiteOptions{
			Path: filepath.Join(t.TempDir(), "grants.db"),
		})
		if err != nil {
			t.Fatalf("NewSQLiteGrantStore() error = %v", err)
		}
		return s
	})
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr bool
	}{
		{name: "default memory", cfg: config.StoreConfig{}},
		{name: "memory", cfg: config.StoreConfig{Type: "memory"}},
		{name: "sqlite without path", cfg: config.StoreConfig{Type: "sqlite"}, wantErr: true},
		{name: "unknown", cfg: config.StoreConfig{Type: "postgres"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Open() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			_ = s.Close()
		})
	}
}

func TestOpen_SQLite(t *testing.T) {
	s, err := Open(config.StoreConfig{
		Type:   "sqlite",
		Config: map[string]any{"path": filepath.Join(t.TempDir(), "grants.db")},
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = s.Close() }()

	if _, ok := s.(*SQLiteGrantStore); !ok {
		t.Fatalf("Open() = %T, want *SQLiteGrantStore", s)
	}
}
