package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SessionRef is a fully established session identity.
type SessionRef struct {
	CampaignID int64
	WorldID    int64
	SessionID  int64
}

var (
	// ErrNoActiveSession is returned when a session-scoped call is made
	// before a session has been established. No network call is attempted.
	ErrNoActiveSession = errors.New("no active session")

	// ErrServerUnavailable is returned when the bounded startup wait
	// exhausted without the server answering a probe.
	ErrServerUnavailable = errors.New("server unavailable")

	// ErrConnectionLost marks an interact failure where a follow-up probe
	// confirmed the server is no longer reachable.
	ErrConnectionLost = errors.New("server connection lost")
)

// The wire encodes newlines in narrative text as a literal <br> marker.
const lineBreakMarker = "<br>"

// StartSession asks the server to create a new session for the campaign and
// activates it. On any failure the session identity stays unset.
func (c *Client) StartSession(ctx context.Context, campaignID, worldID int64) error {
	if !c.ensureReachable(ctx) {
		return ErrServerUnavailable
	}

	var out struct {
		SessionID int64 `json:"session_id"`
	}
	req := map[string]int64{"campaign_id": campaignID}
	if err := c.transport.postJSON(ctx, "start session", "/sessions/start", req, &out); err != nil {
		return fmt.Errorf("start session (verify the campaign exists, the server is healthy and the API key is correct): %w", err)
	}

	c.identity = &SessionRef{CampaignID: campaignID, WorldID: worldID, SessionID: out.SessionID}
	return nil
}

// ResumeSession activates a previously created session from caller-supplied
// identifiers. The session id is taken on faith; a stale or foreign id
// surfaces on the next Interact as an ordinary transport failure.
func (c *Client) ResumeSession(ctx context.Context, sessionID, campaignID, worldID int64) error {
	if !c.ensureReachable(ctx) {
		return ErrServerUnavailable
	}
	c.identity = &SessionRef{CampaignID: campaignID, WorldID: worldID, SessionID: sessionID}
	return nil
}

// Interact sends one player input and returns the narrated response with
// wire line-break markers normalized to real newlines. It never retries; on
// failure it probes once and wraps the error with ErrConnectionLost when the
// server has gone away.
func (c *Client) Interact(ctx context.Context, userInput string) (string, error) {
	if c.identity == nil {
		return "", ErrNoActiveSession
	}

	req := struct {
		UserInput  string `json:"user_input"`
		CampaignID int64  `json:"campaign_id"`
		WorldID    int64  `json:"world_id"`
	}{userInput, c.identity.CampaignID, c.identity.WorldID}

	var out struct {
		DMResponse string `json:"dm_response"`
	}
	path := fmt.Sprintf("/sessions/%d/interact", c.identity.SessionID)
	if err := c.transport.postJSON(ctx, "interact", path, req, &out); err != nil {
		if !c.ProbeOnce(ctx) {
			return "", fmt.Errorf("%w: %v", ErrConnectionLost, err)
		}
		return "", err
	}

	return strings.Join(responseSegments(out.DMResponse), "\n"), nil
}

// EndSession ends the active session and returns the recap when the server
// produced one. The session identity is cleared unconditionally, even when
// the end call fails. With no active session it is a no-op.
func (c *Client) EndSession(ctx context.Context) (string, error) {
	if c.identity == nil {
		return "", nil
	}
	sessionID := c.identity.SessionID
	c.identity = nil

	var out struct {
		Recap *string `json:"recap"`
	}
	path := fmt.Sprintf("/sessions/%d/end", sessionID)
	if err := c.transport.postJSON(ctx, "end session", path, nil, &out); err != nil {
		return "", err
	}
	if out.Recap == nil {
		return "", nil
	}
	return *out.Recap, nil
}

// Session exposes the current session identity for display.
func (c *Client) Session() (SessionRef, bool) {
	if c.identity == nil {
		return SessionRef{}, false
	}
	return *c.identity, true
}

// ensureReachable is the precondition for session-establishing calls: one
// immediate probe, then the bounded startup wait.
func (c *Client) ensureReachable(ctx context.Context) bool {
	if c.ProbeOnce(ctx) {
		return true
	}
	return c.WaitUntilAvailable(ctx, c.startupWait)
}

func responseSegments(text string) []string {
	return strings.Split(text, lineBreakMarker)
}
