// Package play implements the terminal-facing side of a session: picking or
// starting a session and the read-interact-print loop that drives it.
package play

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/avezina/dmhub/internal/client"
)

// Controller is the slice of the session client the loop drives.
type Controller interface {
	Interact(ctx context.Context, input string) (string, error)
	EndSession(ctx context.Context) (string, error)
}

// Loop reads player input, dispatches it synchronously and renders the
// response, one turn at a time.
type Loop struct {
	ctrl Controller
	in   *bufio.Scanner
	out  io.Writer
}

func NewLoop(ctrl Controller, in *bufio.Scanner, out io.Writer) *Loop {
	return &Loop{ctrl: ctrl, in: in, out: out}
}

// Run drives the loop until the player types an exit token, input ends, ctx
// is cancelled or a turn fails with an error it cannot classify. Every exit
// path converges on the same finalization: the session is ended exactly once
// and the recap, when present, is printed.
func (l *Loop) Run(ctx context.Context) error {
	runErr := l.turns(ctx)
	l.finish(ctx)
	return runErr
}

func (l *Loop) turns(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(l.out, "\nYou: ")
		// Cancellation during a blocked Scan is observed after the next
		// line arrives; finalization still runs exactly once.
		if !l.in.Scan() {
			return l.in.Err()
		}
		input := strings.TrimSpace(l.in.Text())
		if input == "" {
			continue
		}
		if isExitToken(input) {
			return nil
		}

		reply, err := l.ctrl.Interact(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if recoverable(err) {
				fmt.Fprintf(l.out, "\nError sending message: %v\n", err)
				continue
			}
			return err
		}
		if reply != "" {
			fmt.Fprintf(l.out, "\nDM: %s\n", reply)
		}
	}
}

// finish runs even after ctx cancellation so an interrupted session still
// gets ended and its recap shown.
func (l *Loop) finish(ctx context.Context) {
	fmt.Fprintln(l.out, "\nEnding session...")
	recap, err := l.ctrl.EndSession(context.WithoutCancel(ctx))
	if err != nil {
		fmt.Fprintf(l.out, "Error ending session: %v\n", err)
		return
	}
	if recap != "" {
		fmt.Fprintf(l.out, "\nSession recap:\n%s\n", recap)
	}
}

func isExitToken(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit":
		return true
	default:
		return false
	}
}

// recoverable reports whether a turn failure should keep the loop running.
// Transport failures and connection loss are recoverable; anything else ends
// the loop.
func recoverable(err error) bool {
	if errors.Is(err, client.ErrConnectionLost) {
		return true
	}
	var te *client.TransportError
	return errors.As(err, &te)
}
