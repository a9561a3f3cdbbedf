package event

import (
	"errors"
	"testing"
)

func TestDecodePlain(t *testing.T) {
	raw := `{"type":"session.idle","properties":{"sessionID":"ses_1"}}`
	ev, dir, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if ev.Type != "session.idle" {
		t.Errorf("Type = %q, want %q", ev.Type, "session.idle")
	}
	if dir != "" {
		t.Errorf("directory = %q, want empty", dir)
	}
	if got := ev.String("sessionID"); got != "ses_1" {
		t.Errorf("sessionID = %q, want %q", got, "ses_1")
	}
}

func TestDecodeMultiplexed(t *testing.T) {
	raw := `{"directory":"/home/u/proj","payload":{"type":"session.idle","properties":{"sessionID":"ses_1"}}}`
	ev, dir, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if ev.Type != "session.idle" {
		t.Errorf("Type = %q, want %q", ev.Type, "session.idle")
	}
	if dir != "/home/u/proj" {
		t.Errorf("directory = %q, want %q", dir, "/home/u/proj")
	}
}

// A plain event and the multiplexed envelope wrapping it must decode to the
// same envelope.
func TestDecodeShapeInvariance(t *testing.T) {
	plain := `{"type":"message.updated","properties":{"info":{"role":"assistant","finish":"stop","id":"msg_9"}}}`
	wrapped := `{"payload":` + plain + `}`

	pv, _, err := Decode([]byte(plain))
	if err != nil {
		t.Fatalf("Decode(plain) error: %v", err)
	}
	wv, _, err := Decode([]byte(wrapped))
	if err != nil {
		t.Fatalf("Decode(wrapped) error: %v", err)
	}

	if pv.Type != wv.Type {
		t.Errorf("types differ: %q vs %q", pv.Type, wv.Type)
	}
	for _, path := range [][]string{{"info", "role"}, {"info", "finish"}, {"info", "id"}} {
		if pv.String(path...) != wv.String(path...) {
			t.Errorf("property %v differs: %q vs %q", path, pv.String(path...), wv.String(path...))
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed", `{"type":`},
		{"no type either shape", `{"properties":{}}`},
		{"multiplexed without payload type", `{"directory":"/p","payload":{"properties":{}}}`},
		{"non-object", `42`},
	}
	for _, tt := range tests {
		if _, _, err := Decode([]byte(tt.raw)); err == nil {
			t.Errorf("%s: Decode(%q) succeeded, want error", tt.name, tt.raw)
		}
	}

	_, _, err := Decode([]byte(`{"payload":{"properties":{}}}`))
	if !errors.Is(err, ErrNoType) {
		t.Errorf("err = %v, want ErrNoType", err)
	}
}

func TestPropertyLookup(t *testing.T) {
	ev, _, err := Decode([]byte(`{"type":"session.status","properties":{"sessionID":"s","status":{"type":"busy"},"count":3}}`))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	if got := ev.String("status", "type"); got != "busy" {
		t.Errorf(`String("status","type") = %q, want "busy"`, got)
	}
	if got := ev.String("status", "missing"); got != "" {
		t.Errorf("missing nested key = %q, want empty", got)
	}
	if got := ev.String("count"); got != "" {
		t.Errorf("non-string value = %q, want empty", got)
	}
	if !ev.Has("status") {
		t.Error(`Has("status") = false, want true`)
	}
	if ev.Has("status", "type", "deeper") {
		t.Error("Has through a string leaf = true, want false")
	}
}
