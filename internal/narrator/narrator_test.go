package narrator

import (
	"context"
	"strings"
	"testing"
)

func TestNewModeSelection(t *testing.T) {
	n, err := New(Config{Mode: "mock"})
	if err != nil {
		t.Fatalf("New(mock) error = %v", err)
	}
	if _, ok := n.(*MockNarrator); !ok {
		t.Fatalf("New(mock) type = %T, want *MockNarrator", n)
	}

	n, err = New(Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("New(auto) error = %v", err)
	}
	if _, ok := n.(*MockNarrator); !ok {
		t.Fatalf("New(auto, no key) type = %T, want *MockNarrator", n)
	}

	n, err = New(Config{Mode: "auto", APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("New(auto, key) error = %v", err)
	}
	if _, ok := n.(*AnthropicNarrator); !ok {
		t.Fatalf("New(auto, key) type = %T, want *AnthropicNarrator", n)
	}

	if _, err := New(Config{Mode: "anthropic"}); err == nil {
		t.Fatalf("New(anthropic, no key) expected error")
	}
	if _, err := New(Config{Mode: "bard"}); err == nil {
		t.Fatalf("New(bard) expected error for unsupported mode")
	}
}

func TestMockNarrate(t *testing.T) {
	n := NewMockNarrator()
	text, err := n.Narrate(context.Background(), Request{UserInput: "open the door"})
	if err != nil {
		t.Fatalf("Narrate() error = %v", err)
	}
	if !strings.Contains(text, "open the door") {
		t.Fatalf("Narrate() = %q, want it to echo the action", text)
	}
}

func TestMockRecapCountsTurns(t *testing.T) {
	n := NewMockNarrator()
	log := "\nPlayer: hi\nDM: hello\n\nPlayer: go\nDM: you go\n"
	recap, err := n.Recap(context.Background(), log)
	if err != nil {
		t.Fatalf("Recap() error = %v", err)
	}
	if !strings.Contains(recap, "2 turns") {
		t.Fatalf("Recap() = %q, want mention of 2 turns", recap)
	}
}

func TestMockHonorsCancelledContext(t *testing.T) {
	n := NewMockNarrator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := n.Narrate(ctx, Request{UserInput: "x"}); err == nil {
		t.Fatalf("Narrate() expected error for cancelled context")
	}
}
