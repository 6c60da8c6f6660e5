package play

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/avezina/dmhub/internal/client"
)

type spyService struct {
	sessions []client.SessionSummary
	listErr  error

	started []int64 // campaign ids
	resumed []int64 // session ids
}

func (s *spyService) ListSessions(context.Context, int64) ([]client.SessionSummary, error) {
	return s.sessions, s.listErr
}

func (s *spyService) StartSession(_ context.Context, campaignID, _ int64) error {
	s.started = append(s.started, campaignID)
	return nil
}

func (s *spyService) ResumeSession(_ context.Context, sessionID, _, _ int64) error {
	s.resumed = append(s.resumed, sessionID)
	return nil
}

func pick(t *testing.T, svc *spyService, input string) string {
	t.Helper()
	var out bytes.Buffer
	err := PickSession(context.Background(), svc, 3, 7, bufio.NewScanner(strings.NewReader(input)), &out)
	if err != nil {
		t.Fatalf("PickSession() error = %v", err)
	}
	return out.String()
}

func twoSessions() []client.SessionSummary {
	return []client.SessionSummary{
		{SessionID: 42, CampaignID: 3, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{SessionID: 57, CampaignID: 3, CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestPickSessionResumeByNumber(t *testing.T) {
	svc := &spyService{sessions: twoSessions()}
	out := pick(t, svc, "2\n")
	if len(svc.resumed) != 1 || svc.resumed[0] != 57 {
		t.Fatalf("resumed = %v, want [57]", svc.resumed)
	}
	if len(svc.started) != 0 {
		t.Fatalf("started = %v, want none", svc.started)
	}
	if !strings.Contains(out, "1. Session 42") || !strings.Contains(out, "2. Session 57") {
		t.Fatalf("listing missing from output: %q", out)
	}
}

func TestPickSessionEnterStartsNew(t *testing.T) {
	svc := &spyService{sessions: twoSessions()}
	pick(t, svc, "\n")
	if len(svc.started) != 1 || svc.started[0] != 3 {
		t.Fatalf("started = %v, want [3]", svc.started)
	}
	if len(svc.resumed) != 0 {
		t.Fatalf("resumed = %v, want none", svc.resumed)
	}
}

func TestPickSessionOutOfRangeStartsNew(t *testing.T) {
	svc := &spyService{sessions: twoSessions()}
	pick(t, svc, "9\n")
	if len(svc.started) != 1 || len(svc.resumed) != 0 {
		t.Fatalf("started=%v resumed=%v, want a new session", svc.started, svc.resumed)
	}
}

func TestPickSessionNoSessionsStartsNew(t *testing.T) {
	svc := &spyService{}
	out := pick(t, svc, "")
	if len(svc.started) != 1 {
		t.Fatalf("started = %v, want one new session", svc.started)
	}
	if !strings.Contains(out, "No existing sessions") {
		t.Fatalf("output = %q, want no-sessions notice", out)
	}
}

func TestPickSessionListFailureIsAdvisory(t *testing.T) {
	svc := &spyService{listErr: errors.New("server not reachable")}
	out := pick(t, svc, "")
	if len(svc.started) != 1 {
		t.Fatalf("started = %v, want new session despite listing failure", svc.started)
	}
	if !strings.Contains(out, "Could not list sessions") {
		t.Fatalf("output = %q, want listing diagnostic", out)
	}
}
