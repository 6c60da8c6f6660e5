package httpapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/avezina/dmhub/internal/store"
)

// buildGameContext assembles the narrator prompt context: world and campaign
// summaries, the party roster and the tail of the session log. Missing
// pieces degrade to placeholders; a turn never fails on context assembly.
func (s *Server) buildGameContext(ctx context.Context, sess store.GameSession, worldID int64) string {
	var b strings.Builder

	if world, err := s.store.GetWorld(ctx, worldID); err == nil {
		fmt.Fprintf(&b, "World: %s\nDescription: %s\n", world.Name, world.Description)
	} else {
		b.WriteString("World: Unknown\nDescription: No data.\n")
	}

	if campaign, err := s.store.GetCampaign(ctx, sess.CampaignID); err == nil {
		fmt.Fprintf(&b, "Campaign: %s\nDescription: %s\n", campaign.Title, campaign.Description)
	} else {
		b.WriteString("Campaign: Unknown\nDescription: No data.\n")
	}

	if players, err := s.store.ListPlayers(ctx, sess.CampaignID); err == nil && len(players) > 0 {
		b.WriteString("\nParty:\n")
		for _, p := range players {
			fmt.Fprintf(&b, "- %s, level %d %s %s (played by %s)\n",
				p.CharacterName, p.Level, p.Race, p.Class, p.Name)
		}
	}

	if tail := logTail(sess.Log, s.cfg.ContextLogChars); tail != "" {
		b.WriteString("\nRecent events:\n")
		b.WriteString(tail)
	}

	return b.String()
}

// logTail returns at most max bytes from the end of log, trimmed to the
// first full line so the narrator never sees a half interaction.
func logTail(log string, max int) string {
	if max <= 0 || len(log) <= max {
		return log
	}
	cut := log[len(log)-max:]
	if i := strings.IndexByte(cut, '\n'); i >= 0 {
		cut = cut[i+1:]
	}
	return cut
}
