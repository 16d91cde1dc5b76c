package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestlock/nestlock/internal/audit"
	"github.com/nestlock/nestlock/internal/core"
	"github.com/nestlock/nestlock/internal/logging"
	"github.com/nestlock/nestlock/internal/store"
)

func TestSweepTask(t *testing.T) {
	now := time.Now()
	vendor := &fakeVendor{}
	grantStore := store.NewInMemoryGrantStore()
	auditor := audit.NewInMemoryAuditor()

	records := []core.GrantRecord{
		{TransactionID: "tx-active", LockID: "12345", VendorGrantID: 1, EndDate: now.Add(48 * time.Hour)},
		{TransactionID: "tx-expired", LockID: "12345", VendorGrantID: 2, EndDate: now.Add(-48 * time.Hour)},
	}
	for _, rec := range records {
		if err := grantStore.Save(context.Background(), rec); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	task := NewSweepTask(NewGrantService(vendor), grantStore, auditor, time.Hour)
	if err := task(context.Background(), logging.NewZLogger(zerolog.Nop())); err != nil {
		t.Fatalf("sweep error = %v", err)
	}

	if len(vendor.deleted) != 1 || vendor.deleted[0] != 2 {
		t.Errorf("deleted = %v, want only the expired grant", vendor.deleted)
	}

	expired, err := grantStore.Get(context.Background(), "tx-expired")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if expired.RevokedAt == nil {
		t.Error("expired record not marked revoked")
	}

	active, err := grantStore.Get(context.Background(), "tx-active")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if active.RevokedAt != nil {
		t.Error("active record was revoked by the sweep")
	}

	entries, _ := auditor.GetRecent(10)
	if len(entries) != 1 || entries[0].Action != audit.ActionGrantSweep {
		t.Errorf("audit entries = %+v, want one sweep entry", entries)
	}
}

func TestSweepTask_TransportFailureRetries(t *testing.T) {
	now := time.Now()
	vendor := &fakeVendor{deleteErr: errors.New("connection refused")}
	grantStore := store.NewInMemoryGrantStore()

	rec := core.GrantRecord{TransactionID: "tx-1", LockID: "12345", VendorGrantID: 2, EndDate: now.Add(-time.Hour)}
	if err := grantStore.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	task := NewSweepTask(NewGrantService(vendor), grantStore, audit.NewNoopAuditor(), time.Hour)
	if err := task(context.Background(), logging.NewZLogger(zerolog.Nop())); err != nil {
		t.Fatalf("sweep error = %v", err)
	}

	// The record stays unrevoked so the next run retries it.
	got, err := grantStore.Get(context.Background(), "tx-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.RevokedAt != nil {
		t.Error("record marked revoked despite transport failure")
	}
}
