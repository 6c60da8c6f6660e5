package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListSessionsPreservesWireOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/campaigns/5/sessions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"session_id": 42, "campaign_id": 5, "created_at": "2024-01-01T00:00:00Z"},
			{"session_id": 17, "campaign_id": 5, "created_at": "2024-02-01T00:00:00Z"}
		]`))
	}))
	defer srv.Close()

	c := mustClient(t, Options{ServerURL: srv.URL, APIKey: "secret"})
	sessions, err := c.ListSessions(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(sessions))
	}
	if sessions[0].SessionID != 42 || sessions[1].SessionID != 17 {
		t.Fatalf("wire order not preserved: %+v", sessions)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !sessions[0].CreatedAt.Equal(want) {
		t.Fatalf("CreatedAt = %v, want %v", sessions[0].CreatedAt, want)
	}
}

func TestListSessionsSingleEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"session_id": 42, "created_at": "2024-01-01T00:00:00Z"}]`))
	}))
	defer srv.Close()

	c := mustClient(t, Options{ServerURL: srv.URL, APIKey: "secret"})
	sessions, err := c.ListSessions(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != 42 {
		t.Fatalf("sessions = %+v, want single entry with id 42", sessions)
	}
}

func TestListSessionsFailureIsAdvisory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := mustClient(t, Options{ServerURL: srv.URL, APIKey: "secret"})
	sessions, err := c.ListSessions(context.Background(), 5)
	if err == nil {
		t.Fatalf("ListSessions() expected diagnostic error")
	}
	if len(sessions) != 0 {
		t.Fatalf("sessions = %+v, want empty on failure", sessions)
	}
}
