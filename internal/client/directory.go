package client

import (
	"context"
	"fmt"
	"time"
)

// SessionSummary is one entry of a campaign's session listing, sourced
// entirely from the server and used only for display and selection.
type SessionSummary struct {
	SessionID  int64     `json:"session_id"`
	CampaignID int64     `json:"campaign_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListSessions returns the campaign's sessions in the order the server sent
// them. Listing is advisory: on transport failure it returns an empty slice
// together with the error so callers can report it and continue.
func (c *Client) ListSessions(ctx context.Context, campaignID int64) ([]SessionSummary, error) {
	var out []SessionSummary
	path := fmt.Sprintf("/campaigns/%d/sessions", campaignID)
	if err := c.transport.get(ctx, "list sessions", path, &out); err != nil {
		return nil, err
	}
	return out, nil
}
