package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nestlock/nestlock/internal/audit"
	"github.com/nestlock/nestlock/internal/core"
	"github.com/nestlock/nestlock/internal/engine"
	"github.com/nestlock/nestlock/internal/service"
	"github.com/nestlock/nestlock/internal/store"
	"github.com/nestlock/nestlock/internal/tasks"
)

var testSigningKey = []byte("test-signing-key")

type stubVendor struct {
	addErr error
}

func (s *stubVendor) AddKeyboardPassword(_ context.Context, _ core.KeyboardPassword) (int64, error) {
	if s.addErr != nil {
		return 0, s.addErr
	}
	return 999, nil
}

func (s *stubVendor) DeleteKeyboardPassword(_ context.Context, _ string, _ int64) error {
	return nil
}

type stubTransactions struct {
	booking *core.BookingContext
}

func (s *stubTransactions) FetchTransaction(_ context.Context, _ string) (*core.BookingContext, error) {
	return s.booking, nil
}

func (s *stubTransactions) UpdateMetadata(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

func newTestServer(t *testing.T, vendor core.LockVendor) (*Server, core.GrantStore) {
	t.Helper()

	policy, err := engine.New(nil)
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}

	txs := &stubTransactions{
		booking: &core.BookingContext{
			Transaction: core.Transaction{ID: "tx-1"},
			Listing:     &core.Listing{ID: "l-1", LockID: "12345"},
			Booking: &core.Booking{
				Start: time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 6, 5, 11, 0, 0, 0, time.UTC),
			},
			Customer: &core.Customer{DisplayName: "Ann"},
		},
	}

	grantStore := store.NewInMemoryGrantStore()
	recorder := service.NewRecorder(txs, service.NewGrantService(vendor), grantStore, audit.NewInMemoryAuditor(), policy)
	return NewServer(recorder, tasks.NewManager(), audit.NewInMemoryAuditor(), grantStore), grantStore
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"roles": []string{"admin"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("signing admin token: %v", err)
	}
	return token
}

func TestCreateGrant(t *testing.T) {
	srv, _ := newTestServer(t, &stubVendor{})
	handler := srv.Routes(testSigningKey)

	req := httptest.NewRequest(http.MethodPost, CreateGrantRoute,
		strings.NewReader(`{"transaction_id": "tx-1"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	var resp CreateGrantResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || len(resp.Pin) != 6 || resp.LockID != "12345" {
		t.Errorf("response = %+v", resp)
	}
	// the payload is sanitized: no vendor-side identifiers leak out
	if strings.Contains(body, "vendor_grant_id") || strings.Contains(body, "999") {
		t.Errorf("response leaks vendor grant id: %s", body)
	}
}

func TestCreateGrant_BadPayloads(t *testing.T) {
	srv, _ := newTestServer(t, &stubVendor{})
	handler := srv.Routes(testSigningKey)

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "missing transaction id", body: `{}`},
		{name: "unknown field", body: `{"transactionId": "tx-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, CreateGrantRoute, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRevokeGrant(t *testing.T) {
	srv, _ := newTestServer(t, &stubVendor{})
	handler := srv.Routes(testSigningKey)

	// issue first
	req := httptest.NewRequest(http.MethodPost, CreateGrantRoute,
		strings.NewReader(`{"transaction_id": "tx-1"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("issue status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, GrantParent+"/tx-1", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp RevokeGrantResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Revoked {
		t.Error("revoked = false, want true")
	}
}

func TestAdminRoutes_RequireAuth(t *testing.T) {
	srv, _ := newTestServer(t, &stubVendor{})
	handler := srv.Routes(testSigningKey)

	req := httptest.NewRequest(http.MethodGet, ListGrantsRoute, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, ListGrantsRoute, nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminGrants_ListsActiveRecords(t *testing.T) {
	srv, grantStore := newTestServer(t, &stubVendor{})
	handler := srv.Routes(testSigningKey)

	rec := core.GrantRecord{
		TransactionID: "tx-1",
		LockID:        "12345",
		VendorGrantID: 999,
		EndDate:       time.Now().Add(24 * time.Hour),
		CreatedAt:     time.Now(),
	}
	if err := grantStore.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, ListGrantsRoute, nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var records []core.GrantRecord
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(records) != 1 || records[0].TransactionID != "tx-1" {
		t.Errorf("records = %+v", records)
	}
}

func TestHealthAndAbout(t *testing.T) {
	srv, _ := newTestServer(t, &stubVendor{})
	handler := srv.Routes(testSigningKey)

	req := httptest.NewRequest(http.MethodGet, HealthCheckRoute, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, AboutRoute, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("about status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Nestlock") {
		t.Errorf("about body = %s", rec.Body.String())
	}
}
