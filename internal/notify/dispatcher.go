package notify

import (
	"log"
	"sync"

	"github.com/agent-pulse/backend/internal/event"
)

// Notifier displays one system notification. Implementations are
// best-effort: failures are logged by the implementation and never
// propagated.
type Notifier interface {
	Notify(title, body, sound string)
}

// WindowProbe reports the host UI window's focus state. known is false when
// the state cannot be determined, in which case the gate defaults to firing.
type WindowProbe func() (focused, minimized, known bool)

// Dispatcher turns stream events into at-most-once desktop notifications.
// Two independent dedup sets cover the two event kinds: finished assistant
// turns (keyed by message ID) and pending questions (keyed by
// sessionID:questionID). The sets only grow for the process lifetime;
// bounded in practice by session churn.
type Dispatcher struct {
	mu                sync.Mutex
	notifiedMessages  map[string]struct{}
	notifiedQuestions map[string]struct{}

	notifier Notifier
	probe    WindowProbe
	sound    string
}

func NewDispatcher(notifier Notifier, probe WindowProbe, sound string) *Dispatcher {
	return &Dispatcher{
		notifiedMessages:  make(map[string]struct{}),
		notifiedQuestions: make(map[string]struct{}),
		notifier:          notifier,
		probe:             probe,
		sound:             sound,
	}
}

// HandleEvent dispatches one decoded event. Unknown event types are ignored.
func (d *Dispatcher) HandleEvent(ev event.Envelope) {
	switch ev.Type {
	case "message.updated":
		d.handleMessageUpdated(ev)
	case "question.asked":
		d.handleQuestionAsked(ev)
	}
}

func (d *Dispatcher) handleMessageUpdated(ev event.Envelope) {
	if ev.String("info", "role") != "assistant" {
		return
	}
	if ev.String("info", "finish") != "stop" {
		return
	}
	messageID := ev.String("info", "id")
	if messageID == "" {
		return
	}

	if !d.firstSeen(d.notifiedMessages, messageID) {
		return
	}

	mode := ev.String("info", "mode")
	if mode == "" {
		mode = "agent"
	}
	model := ev.String("info", "modelID")
	if model == "" {
		model = "assistant"
	}

	title := FormatMode(mode) + " agent is ready"
	body := FormatModelID(model) + " completed the task"
	d.fire(title, body)
}

func (d *Dispatcher) handleQuestionAsked(ev event.Envelope) {
	sessionID := ev.String("sessionID")
	questionID := ev.String("id")
	if sessionID == "" || questionID == "" {
		return
	}

	if !d.firstSeen(d.notifiedQuestions, sessionID+":"+questionID) {
		return
	}

	d.fire("Input needed", "Agent is waiting for your response")
}

// firstSeen atomically tests and inserts key: exactly one caller observes
// true for a given key even under concurrent delivery.
func (d *Dispatcher) firstSeen(set map[string]struct{}, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, seen := set[key]; seen {
		return false
	}
	set[key] = struct{}{}
	return true
}

// fire applies the focus gate and issues the notification. The notification
// is suppressed only when the UI window is known to be focused and visible.
func (d *Dispatcher) fire(title, body string) {
	if d.probe != nil {
		if focused, minimized, known := d.probe(); known && focused && !minimized {
			log.Printf("[notify] suppressed (window focused): %s", title)
			return
		}
	}
	d.notifier.Notify(title, body, d.sound)
}
