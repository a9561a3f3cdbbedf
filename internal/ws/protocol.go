package ws

import (
	"github.com/agent-pulse/backend/internal/activity"
)

type MessageType string

const (
	MsgSnapshot     MessageType = "snapshot"
	MsgActivity     MessageType = "session-activity"
	MsgNotification MessageType = "notification"
)

type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// SnapshotPayload carries every tracked session's current phase. Sent to
// each client on connect so the UI starts from known state.
type SnapshotPayload struct {
	Sessions map[string]activity.Phase `json:"sessions"`
}

// ActivityPayload is one phase change for one session.
type ActivityPayload struct {
	SessionID string         `json:"sessionId"`
	Phase     activity.Phase `json:"phase"`
}

// NotificationPayload mirrors a desktop notification so a connected UI can
// render it inline.
type NotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
