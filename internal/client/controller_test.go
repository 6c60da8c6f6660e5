package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fakeServer is a minimal dmhub stand-in that counts calls per endpoint.
type fakeServer struct {
	*httptest.Server
	probes    atomic.Int32
	starts    atomic.Int32
	interacts atomic.Int32
	ends      atomic.Int32

	probeDown    bool
	interactFail bool
	dmResponse   string
	recap        *string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{dmResponse: "You enter the tavern."}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		fs.probes.Add(1)
		if fs.probeDown {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /sessions/start", func(w http.ResponseWriter, r *http.Request) {
		fs.starts.Add(1)
		json.NewEncoder(w).Encode(map[string]int64{"session_id": 99})
	})
	mux.HandleFunc("POST /sessions/99/interact", func(w http.ResponseWriter, r *http.Request) {
		fs.interacts.Add(1)
		if fs.interactFail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"dm_response": fs.dmResponse})
	})
	mux.HandleFunc("POST /sessions/99/end", func(w http.ResponseWriter, r *http.Request) {
		fs.ends.Add(1)
		json.NewEncoder(w).Encode(map[string]*string{"recap": fs.recap})
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func TestStartSessionActivatesIdentity(t *testing.T) {
	fs := newFakeServer(t)
	c := mustClient(t, Options{ServerURL: fs.URL, APIKey: "secret"})

	if err := c.StartSession(context.Background(), 3, 7); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	ref, ok := c.Session()
	if !ok {
		t.Fatalf("Session() not active after StartSession")
	}
	want := SessionRef{CampaignID: 3, WorldID: 7, SessionID: 99}
	if ref != want {
		t.Fatalf("Session() = %+v, want %+v", ref, want)
	}
}

func TestStartSessionUnreachableLeavesIdentityUnset(t *testing.T) {
	fs := newFakeServer(t)
	fs.probeDown = true
	c := mustClient(t, Options{
		ServerURL:    fs.URL,
		APIKey:       "secret",
		StartupWait:  20 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	})

	err := c.StartSession(context.Background(), 3, 7)
	if !errors.Is(err, ErrServerUnavailable) {
		t.Fatalf("StartSession() err = %v, want ErrServerUnavailable", err)
	}
	if _, ok := c.Session(); ok {
		t.Fatalf("Session() active after failed StartSession")
	}
	if got := fs.starts.Load(); got != 0 {
		t.Fatalf("start calls = %d, want 0", got)
	}
}

func TestStartSessionCreateFailureLeavesIdentityUnset(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("POST /sessions/start", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"campaign not found"}`, http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := mustClient(t, Options{ServerURL: srv.URL, APIKey: "secret"})
	err := c.StartSession(context.Background(), 404, 1)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("StartSession() err = %v, want wrapped *TransportError", err)
	}
	if _, ok := c.Session(); ok {
		t.Fatalf("Session() active after failed create")
	}
}

func TestResumeSessionSkipsRemoteValidation(t *testing.T) {
	fs := newFakeServer(t)
	c := mustClient(t, Options{ServerURL: fs.URL, APIKey: "secret"})

	// Resume takes the ids on faith; only the probe hits the network.
	if err := c.ResumeSession(context.Background(), 99, 3, 7); err != nil {
		t.Fatalf("ResumeSession() error = %v", err)
	}
	ref, ok := c.Session()
	if !ok || ref.SessionID != 99 {
		t.Fatalf("Session() = %+v/%v, want session 99 active", ref, ok)
	}
	if got := fs.starts.Load() + fs.interacts.Load() + fs.ends.Load(); got != 0 {
		t.Fatalf("non-probe calls = %d, want 0", got)
	}

	reply, err := c.Interact(context.Background(), "look around")
	if err != nil {
		t.Fatalf("Interact() after resume error = %v", err)
	}
	if reply != "You enter the tavern." {
		t.Fatalf("Interact() = %q, want %q", reply, "You enter the tavern.")
	}
}

func TestInteractBeforeSessionIsLocal(t *testing.T) {
	fs := newFakeServer(t)
	c := mustClient(t, Options{ServerURL: fs.URL, APIKey: "secret"})

	_, err := c.Interact(context.Background(), "hello")
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("Interact() err = %v, want ErrNoActiveSession", err)
	}
	if got := fs.probes.Load() + fs.interacts.Load(); got != 0 {
		t.Fatalf("network calls = %d, want 0", got)
	}
}

func TestInteractNormalizesLineBreaks(t *testing.T) {
	fs := newFakeServer(t)
	fs.dmResponse = "line1<br>line2"
	c := mustClient(t, Options{ServerURL: fs.URL, APIKey: "secret"})
	if err := c.StartSession(context.Background(), 3, 7); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	reply, err := c.Interact(context.Background(), "speak")
	if err != nil {
		t.Fatalf("Interact() error = %v", err)
	}
	if reply != "line1\nline2" {
		t.Fatalf("Interact() = %q, want %q", reply, "line1\nline2")
	}
}

func TestInteractFailureDistinguishesConnectionLoss(t *testing.T) {
	fs := newFakeServer(t)
	c := mustClient(t, Options{ServerURL: fs.URL, APIKey: "secret"})
	if err := c.StartSession(context.Background(), 3, 7); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	// Server still answers probes: plain transport failure.
	fs.interactFail = true
	_, err := c.Interact(context.Background(), "swing sword")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Interact() err = %v, want *TransportError", err)
	}
	if errors.Is(err, ErrConnectionLost) {
		t.Fatalf("Interact() err = %v, connection loss reported while server is up", err)
	}

	// Server gone entirely: the failure is wrapped as connection lost.
	fs.probeDown = true
	_, err = c.Interact(context.Background(), "swing sword")
	if !errors.Is(err, ErrConnectionLost) {
		t.Fatalf("Interact() err = %v, want ErrConnectionLost", err)
	}

	// The controller reports but does not retry.
	if got := fs.interacts.Load(); got != 2 {
		t.Fatalf("interact calls = %d, want 2", got)
	}
}

func TestEndSessionTwice(t *testing.T) {
	fs := newFakeServer(t)
	recap := "The heroes met in a tavern."
	fs.recap = &recap
	c := mustClient(t, Options{ServerURL: fs.URL, APIKey: "secret"})
	if err := c.StartSession(context.Background(), 3, 7); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	got, err := c.EndSession(context.Background())
	if err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}
	if got != recap {
		t.Fatalf("EndSession() recap = %q, want %q", got, recap)
	}
	if _, ok := c.Session(); ok {
		t.Fatalf("Session() still active after EndSession")
	}

	got, err = c.EndSession(context.Background())
	if err != nil || got != "" {
		t.Fatalf("second EndSession() = (%q, %v), want (\"\", nil)", got, err)
	}
	if calls := fs.ends.Load(); calls != 1 {
		t.Fatalf("end calls = %d, want 1", calls)
	}
}

func TestEndSessionNullRecap(t *testing.T) {
	fs := newFakeServer(t)
	c := mustClient(t, Options{ServerURL: fs.URL, APIKey: "secret"})
	if err := c.StartSession(context.Background(), 3, 7); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	got, err := c.EndSession(context.Background())
	if err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}
	if got != "" {
		t.Fatalf("EndSession() recap = %q, want empty for null recap", got)
	}
}

func TestEndSessionClearsIdentityOnFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("POST /sessions/start", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int64{"session_id": 99})
	})
	mux.HandleFunc("POST /sessions/99/end", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := mustClient(t, Options{ServerURL: srv.URL, APIKey: "secret"})
	if err := c.StartSession(context.Background(), 3, 7); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	if _, err := c.EndSession(context.Background()); err == nil {
		t.Fatalf("EndSession() expected error from failing endpoint")
	}
	if _, ok := c.Session(); ok {
		t.Fatalf("Session() still active after failed EndSession")
	}
}

func TestResponseSegments(t *testing.T) {
	got := responseSegments("a<br>b<br>c")
	if strings.Join(got, "|") != "a|b|c" {
		t.Fatalf("responseSegments() = %v, want [a b c]", got)
	}
	if got := responseSegments("plain"); len(got) != 1 || got[0] != "plain" {
		t.Fatalf("responseSegments(plain) = %v", got)
	}
}
