package mock

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/agent-pulse/backend/internal/activity"
	"github.com/agent-pulse/backend/internal/event"
	"github.com/agent-pulse/backend/internal/notify"
)

// Generator synthesizes agent service events so the daemon can be exercised
// without a live service. Each mock session cycles busy -> finished -> idle
// on its own cadence; some ask a question mid-turn.
type Generator struct {
	tracker    *activity.Tracker
	dispatcher *notify.Dispatcher
	sessions   []*mockSession
}

type mockSession struct {
	id      string
	mode    string
	model   string
	busyFor int // ticks a turn stays busy before finishing
	restFor int // idle ticks between turns
	asksAt  int // busy tick on which a question fires (0 = never)

	busy bool
	tick int
	turn int
}

var streamedParts = []string{"step-start", "text", "tool", "reasoning"}

func NewGenerator(tracker *activity.Tracker, dispatcher *notify.Dispatcher) *Generator {
	return &Generator{
		tracker:    tracker,
		dispatcher: dispatcher,
	}
}

func (g *Generator) Start(ctx context.Context) {
	g.sessions = []*mockSession{
		{id: "mock-build", mode: "build", model: "claude-sonnet-4-20250514",
			busyFor: 12, restFor: 6},
		{id: "mock-plan", mode: "plan", model: "claude-opus-4-5-20251101",
			busyFor: 20, restFor: 10, asksAt: 8},
		{id: "mock-research", mode: "deep_research", model: "gemini-2.5-pro",
			busyFor: 30, restFor: 4},
	}

	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ms := range g.sessions {
				for _, ev := range g.advance(ms) {
					g.tracker.HandleEvent(ev)
					g.dispatcher.HandleEvent(ev)
				}
			}
		}
	}
}

// advance moves one session forward a tick and returns the events that tick
// produces, in stream order.
func (g *Generator) advance(ms *mockSession) []event.Envelope {
	ms.tick++

	if !ms.busy {
		if ms.tick < ms.restFor {
			return nil
		}
		ms.busy = true
		ms.tick = 0
		ms.turn++
		return []event.Envelope{statusEvent(ms.id, "busy")}
	}

	if ms.asksAt > 0 && ms.tick == ms.asksAt {
		question := fmt.Sprintf("q-%s-%d", ms.id, ms.turn)
		return []event.Envelope{questionEvent(ms.id, question), partEvent(ms.id)}
	}

	if ms.tick < ms.busyFor {
		return []event.Envelope{partEvent(ms.id)}
	}

	ms.busy = false
	ms.tick = 0
	return []event.Envelope{finishEvent(ms)}
}

func statusEvent(sessionID, status string) event.Envelope {
	return event.Envelope{
		Type: "session.status",
		Properties: map[string]any{
			"sessionID": sessionID,
			"status":    map[string]any{"type": status},
		},
	}
}

func partEvent(sessionID string) event.Envelope {
	return event.Envelope{
		Type: "message.part.updated",
		Properties: map[string]any{
			"info": map[string]any{
				"role":      "assistant",
				"sessionID": sessionID,
			},
			"part": map[string]any{
				"type": streamedParts[rand.Intn(len(streamedParts))],
			},
		},
	}
}

func finishEvent(ms *mockSession) event.Envelope {
	return event.Envelope{
		Type: "message.updated",
		Properties: map[string]any{
			"info": map[string]any{
				"role":      "assistant",
				"finish":    "stop",
				"id":        fmt.Sprintf("msg-%s-%d", ms.id, ms.turn),
				"sessionID": ms.id,
				"mode":      ms.mode,
				"modelID":   ms.model,
			},
		},
	}
}

func questionEvent(sessionID, questionID string) event.Envelope {
	return event.Envelope{
		Type: "question.asked",
		Properties: map[string]any{
			"sessionID": sessionID,
			"id":        questionID,
		},
	}
}
