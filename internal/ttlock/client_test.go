package ttlock

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/nestlock/nestlock/internal/core"
)

// newVendorServer serves both the token endpoint and a handler for the
// keyboard password endpoints.
func newVendorServer(t *testing.T, handle func(t *testing.T, path string, form url.Values) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if r.URL.Path == tokenEndpoint {
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1"})
			return
		}
		_ = json.NewEncoder(w).Encode(handle(t, r.URL.Path, r.PostForm))
	}))
}

func TestAddKeyboardPassword_Success(t *testing.T) {
	start := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 5, 11, 0, 0, 0, time.UTC)

	srv := newVendorServer(t, func(t *testing.T, path string, form url.Values) any {
		if path != addEndpoint {
			t.Errorf("path = %q, want %q", path, addEndpoint)
		}
		for key, want := range map[string]string{
			"clientId":        "cid",
			"accessToken":     "tok-1",
			"lockId":          "12345",
			"keyboardPwd":     "654321",
			"keyboardPwdName": "Booking - Ann",
			"startDate":       strconv.FormatInt(start.UnixMilli(), 10),
			"endDate":         strconv.FormatInt(end.UnixMilli(), 10),
		} {
			if got := form.Get(key); got != want {
				t.Errorf("form[%s] = %q, want %q", key, got, want)
			}
		}
		if form.Get("date") == "" {
			t.Error("form[date] missing")
		}
		return map[string]any{"errcode": 0, "keyboardPwdId": 999}
	})
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, ClientID: "cid"})
	id, err := client.AddKeyboardPassword(context.Background(), core.KeyboardPassword{
		LockID: "12345",
		Code:   "654321",
		Name:   "Booking - Ann",
		Start:  start,
		End:    end,
	})
	if err != nil {
		t.Fatalf("AddKeyboardPassword() error = %v", err)
	}
	if id != 999 {
		t.Errorf("keyboardPwdId = %d, want 999", id)
	}
}

func TestAddKeyboardPassword_VendorError(t *testing.T) {
	srv := newVendorServer(t, func(t *testing.T, path string, form url.Values) any {
		return map[string]any{"errcode": 10003, "errmsg": "invalid accessToken"}
	})
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL})
	_, err := client.AddKeyboardPassword(context.Background(), core.KeyboardPassword{LockID: "1"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Code != 10003 || apiErr.Message != "invalid accessToken" {
		t.Errorf("APIError = %+v, want code 10003 with vendor message", apiErr)
	}
}

func TestAddKeyboardPassword_SuccessWithoutErrcode(t *testing.T) {
	// some responses omit errcode but carry the keyboardPwdId
	srv := newVendorServer(t, func(t *testing.T, path string, form url.Values) any {
		return map[string]any{"errcode": 1, "keyboardPwdId": 42}
	})
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL})
	id, err := client.AddKeyboardPassword(context.Background(), core.KeyboardPassword{LockID: "1"})
	if err != nil {
		t.Fatalf("AddKeyboardPassword() error = %v", err)
	}
	if id != 42 {
		t.Errorf("keyboardPwdId = %d, want 42", id)
	}
}

func TestDeleteKeyboardPassword(t *testing.T) {
	tests := []struct {
		name    string
		errcode int
		wantErr bool
	}{
		{name: "zero errcode", errcode: 0, wantErr: false},
		{name: "vendor error", errcode: 20002, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newVendorServer(t, func(t *testing.T, path string, form url.Values) any {
				if path != deleteEndpoint {
					t.Errorf("path = %q, want %q", path, deleteEndpoint)
				}
				if got := form.Get("keyboardPwdId"); got != "999" {
					t.Errorf("form[keyboardPwdId] = %q, want 999", got)
				}
				return map[string]any{"errcode": tt.errcode}
			})
			defer srv.Close()

			client := New(Config{BaseURL: srv.URL})
			err := client.DeleteKeyboardPassword(context.Background(), "12345", 999)
			if (err != nil) != tt.wantErr {
				t.Errorf("DeleteKeyboardPassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := newVendorServer(t, func(t *testing.T, path string, form url.Values) any {
		return map[string]any{}
	})
	srv.Close() // connection refused from here on

	client := New(Config{BaseURL: srv.URL})
	if _, err := client.AddKeyboardPassword(context.Background(), core.KeyboardPassword{LockID: "1"}); err == nil {
		t.Fatal("AddKeyboardPassword() expected transport error")
	}
}
