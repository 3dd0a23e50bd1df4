package identity

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestHTTPClientResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/identity" {
			t.Errorf("path = %s, want /identity", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good-token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"sub":"user-1","name":"  Alice  ","picture":"https://img.test/alice.png"}`))
		case "Bearer bare-token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"sub":"user-2","name":null,"picture":"  "}`))
		case "Bearer broken-token":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, "test-key", 2*time.Second, quietLogger())
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	ctx := context.Background()

	ident, err := client.Resolve(ctx, "good-token")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ident.Subject != "user-1" {
		t.Fatalf("subject = %q, want user-1", ident.Subject)
	}
	if ident.DisplayName != "Alice" {
		t.Fatalf("display name = %q, want trimmed Alice", ident.DisplayName)
	}
	if ident.PhotoURL == nil || *ident.PhotoURL != "https://img.test/alice.png" {
		t.Fatalf("photo url = %v", ident.PhotoURL)
	}

	ident, err = client.Resolve(ctx, "bare-token")
	if err != nil {
		t.Fatalf("resolve bare: %v", err)
	}
	if ident.DisplayName == "" {
		t.Fatalf("expected fallback display name")
	}
	if ident.PhotoURL != nil {
		t.Fatalf("blank picture should map to nil, got %v", ident.PhotoURL)
	}

	if _, err := client.Resolve(ctx, "bad-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("bad token err = %v, want ErrInvalidToken", err)
	}

	if _, err := client.Resolve(ctx, "broken-token"); err == nil || errors.Is(err, ErrInvalidToken) {
		t.Fatalf("upstream failure err = %v, want generic error", err)
	}
}

func TestConvertToIdentityMissingSubject(t *testing.T) {
	if _, err := convertToIdentity(apiResponse{Sub: "   "}); err == nil {
		t.Fatalf("expected error for blank subject")
	}
}

func FuzzConvertToIdentity(f *testing.F) {
	f.Add("user-1", "Alice", "https://img.test/alice.png")
	f.Add("user-2", "", "")

	f.Fuzz(func(t *testing.T, sub, name, picture string) {
		resp := apiResponse{Sub: sub}
		if name != "" {
			resp.Name = &name
		}
		if picture != "" {
			resp.Picture = &picture
		}

		ident, err := convertToIdentity(resp)
		if err != nil {
			return
		}
		if ident.Subject == "" {
			t.Fatalf("accepted identity must carry a subject")
		}
		if ident.DisplayName == "" {
			t.Fatalf("display name should never be empty")
		}
	})
}
