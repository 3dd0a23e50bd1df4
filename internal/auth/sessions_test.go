package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSessionsRoundTrip(t *testing.T) {
	sessions := NewSessions("test-secret", time.Hour)

	token, err := sessions.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := sessions.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("user id = %q, want user-1", userID)
	}
}

func TestSessionsExpired(t *testing.T) {
	sessions := NewSessions("test-secret", time.Hour)

	issued := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return issued }

	token, err := sessions.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	sessions.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := sessions.Verify(token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expired token err = %v, want ErrInvalidSession", err)
	}
}

func TestSessionsRejectsWrongSecret(t *testing.T) {
	token, err := NewSessions("secret-a", time.Hour).Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewSessions("secret-b", time.Hour).Verify(token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("wrong secret err = %v, want ErrInvalidSession", err)
	}
}

func TestSessionsRejectsGarbage(t *testing.T) {
	sessions := NewSessions("test-secret", time.Hour)
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := sessions.Verify(token); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("Verify(%q) err = %v, want ErrInvalidSession", token, err)
		}
	}
}
