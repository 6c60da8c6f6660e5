package play

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/avezina/dmhub/internal/client"
)

// spyController records calls and scripts per-turn results.
type spyController struct {
	interactCalls []string
	interactErrs  []error
	reply         string
	endCalls      int
	recap         string
	endErr        error
}

func (s *spyController) Interact(_ context.Context, input string) (string, error) {
	s.interactCalls = append(s.interactCalls, input)
	if len(s.interactErrs) > 0 {
		err := s.interactErrs[0]
		s.interactErrs = s.interactErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return s.reply, nil
}

func (s *spyController) EndSession(context.Context) (string, error) {
	s.endCalls++
	return s.recap, s.endErr
}

func runLoop(t *testing.T, ctrl *spyController, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	loop := NewLoop(ctrl, bufio.NewScanner(strings.NewReader(input)), &out)
	err := loop.Run(context.Background())
	return out.String(), err
}

func TestLoopQuitEndsSessionOnce(t *testing.T) {
	ctrl := &spyController{reply: "The door creaks open.", recap: "A short adventure."}
	out, err := runLoop(t, ctrl, "open the door\nQUIT\n")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(ctrl.interactCalls) != 1 || ctrl.interactCalls[0] != "open the door" {
		t.Fatalf("interact calls = %v, want one turn", ctrl.interactCalls)
	}
	if ctrl.endCalls != 1 {
		t.Fatalf("end calls = %d, want 1", ctrl.endCalls)
	}
	if !strings.Contains(out, "The door creaks open.") {
		t.Fatalf("output missing DM reply: %q", out)
	}
	if !strings.Contains(out, "A short adventure.") {
		t.Fatalf("output missing recap: %q", out)
	}
}

func TestLoopExitTokenCaseInsensitive(t *testing.T) {
	for _, token := range []string{"exit", "Exit", "quit", "qUIt"} {
		ctrl := &spyController{}
		if _, err := runLoop(t, ctrl, token+"\n"); err != nil {
			t.Fatalf("Run(%q) error = %v", token, err)
		}
		if len(ctrl.interactCalls) != 0 {
			t.Fatalf("token %q was dispatched as a turn", token)
		}
		if ctrl.endCalls != 1 {
			t.Fatalf("end calls = %d after %q, want 1", ctrl.endCalls, token)
		}
	}
}

func TestLoopEOFEndsSession(t *testing.T) {
	ctrl := &spyController{}
	if _, err := runLoop(t, ctrl, ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ctrl.endCalls != 1 {
		t.Fatalf("end calls = %d, want 1", ctrl.endCalls)
	}
}

func TestLoopTransportFailureIsRecoverable(t *testing.T) {
	ctrl := &spyController{
		reply:        "You press on.",
		interactErrs: []error{&client.TransportError{Op: "interact", Status: 500, Err: errors.New("boom")}},
	}
	out, err := runLoop(t, ctrl, "first\nsecond\nquit\n")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(ctrl.interactCalls) != 2 {
		t.Fatalf("interact calls = %v, want the loop to continue after a failed turn", ctrl.interactCalls)
	}
	if !strings.Contains(out, "Error sending message") {
		t.Fatalf("output missing failure report: %q", out)
	}
	if ctrl.endCalls != 1 {
		t.Fatalf("end calls = %d, want 1", ctrl.endCalls)
	}
}

func TestLoopConnectionLossIsRecoverable(t *testing.T) {
	ctrl := &spyController{
		interactErrs: []error{client.ErrConnectionLost},
	}
	_, err := runLoop(t, ctrl, "hello\nquit\n")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(ctrl.interactCalls) != 1 || ctrl.endCalls != 1 {
		t.Fatalf("calls = %d interact / %d end, want 1/1", len(ctrl.interactCalls), ctrl.endCalls)
	}
}

func TestLoopUnclassifiedErrorStopsLoop(t *testing.T) {
	boom := errors.New("unexpected")
	ctrl := &spyController{interactErrs: []error{boom}}
	_, err := runLoop(t, ctrl, "hello\nnever sent\nquit\n")
	if !errors.Is(err, boom) {
		t.Fatalf("Run() err = %v, want the unclassified error", err)
	}
	if len(ctrl.interactCalls) != 1 {
		t.Fatalf("interact calls = %v, want loop to stop after unclassified error", ctrl.interactCalls)
	}
	if ctrl.endCalls != 1 {
		t.Fatalf("end calls = %d, want finalization to still run", ctrl.endCalls)
	}
}

func TestLoopCancelledContextEndsSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ctrl := &spyController{recap: "cut short"}
	var out bytes.Buffer
	loop := NewLoop(ctrl, bufio.NewScanner(strings.NewReader("hello\n")), &out)
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(ctrl.interactCalls) != 0 {
		t.Fatalf("interact calls = %v, want none after cancellation", ctrl.interactCalls)
	}
	if ctrl.endCalls != 1 {
		t.Fatalf("end calls = %d, want 1", ctrl.endCalls)
	}
	if !strings.Contains(out.String(), "cut short") {
		t.Fatalf("output missing recap after interrupt: %q", out.String())
	}
}

func TestLoopBlankInputReprompts(t *testing.T) {
	ctrl := &spyController{}
	if _, err := runLoop(t, ctrl, "\n   \nquit\n"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(ctrl.interactCalls) != 0 {
		t.Fatalf("interact calls = %v, want none for blank input", ctrl.interactCalls)
	}
}
