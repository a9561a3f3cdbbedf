package activity

import (
	"sync"
	"time"

	"github.com/agent-pulse/backend/internal/event"
)

// DefaultCooldown is the grace period between an assistant turn finishing
// and the session being declared idle.
const DefaultCooldown = 2 * time.Second

// Emitter receives phase changes. Emission is fire-and-forget; the tracker
// never calls it while holding its lock.
type Emitter interface {
	EmitPhase(sessionID string, phase Phase)
}

// streamingPartTypes are the assistant content-part kinds that indicate the
// session is actively producing output.
var streamingPartTypes = map[string]bool{
	"step-start": true,
	"text":       true,
	"tool":       true,
	"reasoning":  true,
	"file":       true,
	"patch":      true,
}

// Tracker derives a stable per-session phase from noisy upstream signals.
// Sessions appear in the map on their first observed signal and are never
// deleted; at most one cooldown timer is live per session, and arming a new
// one replaces the old.
type Tracker struct {
	mu        sync.Mutex
	phases    map[string]Phase
	cooldowns map[string]*time.Timer
	cooldown  time.Duration
	emitter   Emitter
}

func NewTracker(emitter Emitter, cooldown time.Duration) *Tracker {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Tracker{
		phases:    make(map[string]Phase),
		cooldowns: make(map[string]*time.Timer),
		cooldown:  cooldown,
		emitter:   emitter,
	}
}

// HandleEvent dispatches one decoded event into the state machine. Unknown
// event types are ignored.
func (t *Tracker) HandleEvent(ev event.Envelope) {
	switch ev.Type {
	case "session.status":
		id := ev.String("sessionID")
		status := ev.String("status", "type")
		if id == "" || status == "" {
			return
		}
		if status == "busy" || status == "retry" {
			t.SetPhase(id, Busy)
		} else {
			t.SetPhase(id, Idle)
		}

	case "session.idle":
		if id := ev.String("sessionID"); id != "" {
			t.SetPhase(id, Idle)
		}

	case "message.updated":
		if !ev.Has("info") || ev.String("info", "role") != "assistant" {
			return
		}
		if ev.String("info", "finish") != "stop" {
			return
		}
		if id := ev.String("info", "sessionID"); id != "" {
			t.enterCooldownIfBusy(id)
		}

	case "message.part.updated":
		if !ev.Has("info") || ev.String("info", "role") != "assistant" {
			return
		}
		id := ev.String("info", "sessionID")
		if id == "" {
			return
		}
		// Streaming parts mark the session busy even when session.status
		// events are missing from the upstream source.
		if streamingPartTypes[ev.String("part", "type")] {
			t.SetPhase(id, Busy)
		}
		if ev.String("info", "finish") == "stop" {
			t.enterCooldownIfBusy(id)
		}
	}
}

// Phase returns the session's current phase. Sessions never observed are
// implicitly Idle.
func (t *Tracker) Phase(sessionID string) Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phases[sessionID]
}

// Snapshot returns a copy of all tracked session phases.
func (t *Tracker) Snapshot() map[string]Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Phase, len(t.phases))
	for id, p := range t.phases {
		out[id] = p
	}
	return out
}

// SetPhase transitions the session to phase. A transition into the current
// phase is a no-op: no timer side effects, no emission. Any transition out
// of Cooldown cancels the session's pending cooldown timer.
func (t *Tracker) SetPhase(sessionID string, phase Phase) {
	t.mu.Lock()
	current, tracked := t.phases[sessionID]
	if tracked && current == phase {
		t.mu.Unlock()
		return
	}
	t.phases[sessionID] = phase
	if phase != Cooldown {
		t.cancelCooldownLocked(sessionID)
	}
	t.mu.Unlock()

	t.emitter.EmitPhase(sessionID, phase)
}

// enterCooldownIfBusy arms the busy→cooldown→idle debounce. A session that
// is not currently Busy is left alone so a finish signal cannot resurrect a
// timer for a session that already settled.
func (t *Tracker) enterCooldownIfBusy(sessionID string) {
	t.mu.Lock()
	if t.phases[sessionID] != Busy {
		t.mu.Unlock()
		return
	}
	t.phases[sessionID] = Cooldown

	timer := time.AfterFunc(t.cooldown, func() {
		t.settle(sessionID)
	})
	if prev, ok := t.cooldowns[sessionID]; ok {
		prev.Stop()
	}
	t.cooldowns[sessionID] = timer
	t.mu.Unlock()

	t.emitter.EmitPhase(sessionID, Cooldown)
}

// settle fires when a cooldown timer expires: if the session is still in
// Cooldown it collapses to Idle, otherwise a newer signal already won.
func (t *Tracker) settle(sessionID string) {
	t.mu.Lock()
	if t.phases[sessionID] != Cooldown {
		t.mu.Unlock()
		return
	}
	t.phases[sessionID] = Idle
	t.cancelCooldownLocked(sessionID)
	t.mu.Unlock()

	t.emitter.EmitPhase(sessionID, Idle)
}

// Reset forces every tracked session back to Idle and cancels all cooldown
// timers. Sessions that were not already Idle are re-emitted so the UI
// cannot stay stuck on a phase from before a dropped stream.
func (t *Tracker) Reset() {
	t.mu.Lock()
	for _, timer := range t.cooldowns {
		timer.Stop()
	}
	t.cooldowns = make(map[string]*time.Timer)

	var changed []string
	for id, p := range t.phases {
		if p != Idle {
			changed = append(changed, id)
		}
		t.phases[id] = Idle
	}
	t.mu.Unlock()

	for _, id := range changed {
		t.emitter.EmitPhase(id, Idle)
	}
}

func (t *Tracker) cancelCooldownLocked(sessionID string) {
	if timer, ok := t.cooldowns[sessionID]; ok {
		timer.Stop()
		delete(t.cooldowns, sessionID)
	}
}
