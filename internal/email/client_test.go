package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestSendWelcome(t *testing.T) {
	var got message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/email" {
			t.Errorf("path = %q, want /email", r.URL.Path)
		}
		if tok := r.Header.Get("X-Postmark-Server-Token"); tok != "test-token" {
			t.Errorf("server token = %q", tok)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-token", "noreply@example.com", WithBaseURL(srv.URL))
	if err := c.SendWelcome(context.Background(), "alice@example.com", "alice"); err != nil {
		t.Fatalf("send welcome: %v", err)
	}

	if got.To != "alice@example.com" || got.From != "noreply@example.com" {
		t.Errorf("addressing = %q -> %q", got.From, got.To)
	}
	if !strings.Contains(got.TextBody, "alice") {
		t.Errorf("body missing username: %q", got.TextBody)
	}
}

func TestSendRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-token", "noreply@example.com", WithBaseURL(srv.URL))
	if err := c.SendPasswordChanged(context.Background(), "alice@example.com", "alice"); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestSendDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-token", "noreply@example.com", WithBaseURL(srv.URL))
	if err := c.SendWelcome(context.Background(), "alice@example.com", "alice"); err == nil {
		t.Fatal("expected error for 422 response")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", calls.Load())
	}
}

func TestSendUnconfigured(t *testing.T) {
	c := NewClient("", "noreply@example.com")
	if c.Configured() {
		t.Error("client without token should not report configured")
	}
	if err := c.SendWelcome(context.Background(), "alice@example.com", "alice"); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}
