package event

import (
	"encoding/json"
	"errors"
)

// ErrNoType is returned when a frame decodes as JSON but carries no event
// type in either wire shape.
var ErrNoType = errors.New("event has no type")

// Envelope is one decoded event from the agent service's stream: a type tag
// plus an opaque property document the dispatchers pick fields out of.
type Envelope struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// multiplexed is the alternate wire shape used when one stream carries
// several working-directory scopes.
type multiplexed struct {
	Directory string   `json:"directory"`
	Payload   Envelope `json:"payload"`
}

// Decode parses one SSE frame payload. It tries the plain envelope shape
// first and falls back to the multiplexed shape, unwrapping its payload.
// The directory hint is empty for plain envelopes.
func Decode(raw []byte) (Envelope, string, error) {
	var ev Envelope
	if err := json.Unmarshal(raw, &ev); err == nil && ev.Type != "" {
		return ev, "", nil
	}

	var mux multiplexed
	if err := json.Unmarshal(raw, &mux); err != nil {
		return Envelope{}, "", err
	}
	if mux.Payload.Type == "" {
		return Envelope{}, "", ErrNoType
	}
	return mux.Payload, mux.Directory, nil
}

// String walks the property document along path and returns the string at
// the end, or "" if any step is missing or the wrong kind.
func (e Envelope) String(path ...string) string {
	v, ok := e.lookup(path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Has reports whether the property document contains a value (of any kind)
// at path.
func (e Envelope) Has(path ...string) bool {
	_, ok := e.lookup(path)
	return ok
}

func (e Envelope) lookup(path []string) (any, bool) {
	var cur any = e.Properties
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
