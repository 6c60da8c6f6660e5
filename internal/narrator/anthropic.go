package narrator

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

const defaultModel = "claude-3-5-sonnet-latest"

const dmSystemPrompt = "You are an experienced Dungeons & Dragons game master. " +
	"Narrate the consequences of the player's action within the provided game state. " +
	"Stay in character, keep continuity with the session log, and end with a hook " +
	"the player can act on."

const recapSystemPrompt = "You are a D&D session summarizer. Create a clear, engaging " +
	"recap that players can use to remember what happened in their last session."

// AnthropicNarrator generates responses with the Anthropic Messages API.
type AnthropicNarrator struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewAnthropicNarrator(apiKey, model string) *AnthropicNarrator {
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &AnthropicNarrator{
		client: anthropic.NewClient(apiKey),
		model:  anthropic.Model(model),
	}
}

func (n *AnthropicNarrator) Narrate(ctx context.Context, req Request) (string, error) {
	prompt := req.UserInput
	if strings.TrimSpace(req.Context) != "" {
		prompt = req.Context + "\n\nPlayer action: " + req.UserInput
	}
	return n.complete(ctx, dmSystemPrompt, prompt)
}

func (n *AnthropicNarrator) Recap(ctx context.Context, sessionLog string) (string, error) {
	prompt := "Please provide a concise summary of this D&D session, highlighting key events, " +
		"important decisions, and any significant character developments:\n\n" + sessionLog
	return n.complete(ctx, recapSystemPrompt, prompt)
}

func (n *AnthropicNarrator) complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := n.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     n.model,
		MaxTokens: 1024,
		MultiSystem: []anthropic.MessageSystemPart{
			{Type: "text", Text: system},
		},
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(prompt)},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			out.WriteString(*block.Text)
		}
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("anthropic messages: empty response")
	}
	return text, nil
}
