package play

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/avezina/dmhub/internal/client"
)

// SessionService is the slice of the session client the picker needs.
type SessionService interface {
	ListSessions(ctx context.Context, campaignID int64) ([]client.SessionSummary, error)
	StartSession(ctx context.Context, campaignID, worldID int64) error
	ResumeSession(ctx context.Context, sessionID, campaignID, worldID int64) error
}

// PickSession lists the campaign's prior sessions and either resumes the
// chosen one or starts fresh. Listing is advisory: when it fails the picker
// reports the problem and starts a new session.
func PickSession(ctx context.Context, svc SessionService, campaignID, worldID int64, in *bufio.Scanner, out io.Writer) error {
	sessions, err := svc.ListSessions(ctx, campaignID)
	if err != nil {
		fmt.Fprintf(out, "Could not list sessions: %v\n", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No existing sessions found. Starting a new session...")
		return svc.StartSession(ctx, campaignID, worldID)
	}

	fmt.Fprintln(out, "Existing sessions for this campaign:")
	for i, s := range sessions {
		fmt.Fprintf(out, "%d. Session %d (created %s)\n", i+1, s.SessionID, s.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprint(out, "\nEnter a session number to resume, or press Enter for a new session: ")

	choice := ""
	if in.Scan() {
		choice = strings.TrimSpace(in.Text())
	}
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(sessions) {
		picked := sessions[n-1]
		fmt.Fprintf(out, "Resuming session %d...\n", picked.SessionID)
		return svc.ResumeSession(ctx, picked.SessionID, campaignID, worldID)
	}

	fmt.Fprintln(out, "Starting a new session...")
	return svc.StartSession(ctx, campaignID, worldID)
}
