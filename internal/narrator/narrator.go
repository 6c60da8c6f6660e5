// Package narrator generates game-master prose for interaction turns and
// end-of-session recaps.
package narrator

import (
	"context"
	"fmt"
	"strings"
)

// Request carries everything the narrator needs for one turn.
type Request struct {
	// Context is the assembled game state: world, campaign, party and the
	// tail of the session log.
	Context   string
	UserInput string
}

// Narrator produces narrative text. Implementations must be safe for
// concurrent use across sessions.
type Narrator interface {
	Narrate(ctx context.Context, req Request) (string, error)
	Recap(ctx context.Context, sessionLog string) (string, error)
}

// Config controls narrator construction.
type Config struct {
	Mode   string
	APIKey string
	Model  string
}

// New builds a narrator for the configured mode. "auto" prefers the
// Anthropic backend when an API key is present and falls back to the mock.
func New(cfg Config) (Narrator, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewAnthropicNarrator(cfg.APIKey, cfg.Model), nil
		}
		return NewMockNarrator(), nil
	case "anthropic":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("anthropic narrator requires ANTHROPIC_API_KEY")
		}
		return NewAnthropicNarrator(cfg.APIKey, cfg.Model), nil
	case "mock":
		return NewMockNarrator(), nil
	default:
		return nil, fmt.Errorf("unsupported narrator mode %q", cfg.Mode)
	}
}
