package narrator

import (
	"context"
	"fmt"
	"strings"
)

// MockNarrator provides deterministic local replies when no narrator backend
// is configured.
type MockNarrator struct{}

func NewMockNarrator() *MockNarrator { return &MockNarrator{} }

func (n *MockNarrator) Narrate(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	action := strings.TrimSpace(req.UserInput)
	if action == "" {
		action = "wait and observe"
	}
	return fmt.Sprintf("You %s.\nThe world holds its breath, waiting for your next move.", action), nil
}

func (n *MockNarrator) Recap(ctx context.Context, sessionLog string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	turns := strings.Count(sessionLog, "\nPlayer: ")
	if turns == 0 {
		return "The session ended before the adventure began.", nil
	}
	return fmt.Sprintf("An adventure of %d turns, remembered fondly by all who played.", turns), nil
}
