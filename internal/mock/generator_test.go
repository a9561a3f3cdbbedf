package mock

import (
	"fmt"
	"testing"
	"time"

	"github.com/agent-pulse/backend/internal/activity"
	"github.com/agent-pulse/backend/internal/notify"
)

type nullEmitter struct{}

func (nullEmitter) EmitPhase(string, activity.Phase) {}

type recordingNotifier struct {
	titles []string
}

func (r *recordingNotifier) Notify(title, body, sound string) {
	r.titles = append(r.titles, title)
}

// drive runs one session through n ticks, feeding the produced events into
// the real tracker and dispatcher the way Generator.run does.
func drive(g *Generator, ms *mockSession, n int) {
	for i := 0; i < n; i++ {
		for _, ev := range g.advance(ms) {
			g.tracker.HandleEvent(ev)
			g.dispatcher.HandleEvent(ev)
		}
	}
}

func newTestGenerator(rec *recordingNotifier) (*Generator, *activity.Tracker) {
	tracker := activity.NewTracker(nullEmitter{}, 5*time.Millisecond)
	dispatcher := notify.NewDispatcher(rec, nil, "")
	return NewGenerator(tracker, dispatcher), tracker
}

func TestTurnCycleDrivesTracker(t *testing.T) {
	rec := &recordingNotifier{}
	g, tracker := newTestGenerator(rec)
	ms := &mockSession{id: "s1", mode: "build", model: "test-model", busyFor: 3, restFor: 2}

	drive(g, ms, 2) // rest ends, turn starts
	if got := tracker.Phase("s1"); got != activity.Busy {
		t.Fatalf("phase after turn start = %v, want Busy", got)
	}

	drive(g, ms, 3) // streaming parts, then finish
	time.Sleep(30 * time.Millisecond)
	if got := tracker.Phase("s1"); got != activity.Idle {
		t.Errorf("phase after finish and cooldown = %v, want Idle", got)
	}
	if len(rec.titles) != 1 {
		t.Fatalf("notifications = %d, want 1", len(rec.titles))
	}
	if rec.titles[0] != "Build agent is ready" {
		t.Errorf("title = %q, want %q", rec.titles[0], "Build agent is ready")
	}
}

func TestEachTurnNotifiesOnce(t *testing.T) {
	rec := &recordingNotifier{}
	g, _ := newTestGenerator(rec)
	ms := &mockSession{id: "s1", mode: "build", model: "test-model", busyFor: 2, restFor: 1}

	// Three full turns, message ids differ per turn so none dedup away.
	drive(g, ms, 3*(1+2))
	if len(rec.titles) != 3 {
		t.Errorf("notifications = %d, want 3 (one per turn)", len(rec.titles))
	}
}

func TestQuestionFiresMidTurn(t *testing.T) {
	rec := &recordingNotifier{}
	g, tracker := newTestGenerator(rec)
	ms := &mockSession{id: "s1", mode: "plan", model: "test-model", busyFor: 6, restFor: 1, asksAt: 2}

	drive(g, ms, 1+2) // start turn, reach asksAt
	if len(rec.titles) != 1 || rec.titles[0] != "Input needed" {
		t.Fatalf("titles = %v, want [Input needed]", rec.titles)
	}
	// The part event accompanying the question keeps the session busy.
	if got := tracker.Phase("s1"); got != activity.Busy {
		t.Errorf("phase = %v, want Busy", got)
	}
}

func TestAdvanceEmitsNothingWhileResting(t *testing.T) {
	rec := &recordingNotifier{}
	g, _ := newTestGenerator(rec)
	ms := &mockSession{id: "s1", busyFor: 2, restFor: 5}

	for i := 0; i < 4; i++ {
		if evs := g.advance(ms); len(evs) != 0 {
			t.Fatalf("tick %d produced %v, want nothing until rest ends", i, evs)
		}
	}
	evs := g.advance(ms)
	if len(evs) != 1 || evs[0].Type != "session.status" {
		t.Errorf("rest-end tick produced %v, want a single session.status", evs)
	}
}

func TestSyntheticEventsSurviveDecode(t *testing.T) {
	// The generator bypasses the wire, but its envelopes must still look like
	// what Decode produces for the same payloads.
	ms := &mockSession{id: "s1", mode: "build", model: "m", turn: 1}
	ev := finishEvent(ms)

	for _, path := range [][]string{
		{"info", "role"}, {"info", "finish"}, {"info", "id"},
		{"info", "sessionID"}, {"info", "mode"}, {"info", "modelID"},
	} {
		if ev.String(path...) == "" {
			t.Errorf("finish event missing %v", path)
		}
	}

	q := questionEvent("s1", fmt.Sprintf("q-%d", 1))
	if q.String("sessionID") == "" || q.String("id") == "" {
		t.Error("question event missing identifiers")
	}
}
