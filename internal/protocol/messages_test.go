package protocol

import (
	"errors"
	"testing"
)

func TestParseServerMessageTurn(t *testing.T) {
	raw := []byte(`{"type":"turn","session_id":7,"turn_id":"t-1","player_input":"look around","dm_response":"You see a door."}`)
	parsed, err := ParseServerMessage(raw)
	if err != nil {
		t.Fatalf("ParseServerMessage() error = %v", err)
	}
	turn, ok := parsed.(Turn)
	if !ok {
		t.Fatalf("parsed type = %T, want Turn", parsed)
	}
	if turn.SessionID != 7 || turn.DMResponse != "You see a door." {
		t.Fatalf("unexpected turn: %+v", turn)
	}
}

func TestParseServerMessageSessionEvent(t *testing.T) {
	raw := []byte(`{"type":"session_event","session_id":7,"event":"ended","has_recap":true}`)
	parsed, err := ParseServerMessage(raw)
	if err != nil {
		t.Fatalf("ParseServerMessage() error = %v", err)
	}
	evt, ok := parsed.(SessionEvent)
	if !ok {
		t.Fatalf("parsed type = %T, want SessionEvent", parsed)
	}
	if evt.Event != EventSessionEnded || !evt.HasRecap {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestParseServerMessageRejectsInvalid(t *testing.T) {
	if _, err := ParseServerMessage([]byte(`{"type":"turn","session_id":0,"turn_id":""}`)); err == nil {
		t.Fatalf("expected error for turn without id")
	}
	if _, err := ParseServerMessage([]byte(`{"type":"telemetry"}`)); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("err = %v, want ErrUnsupportedType", err)
	}
	if _, err := ParseServerMessage([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
