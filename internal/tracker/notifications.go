package tracker

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/agent-pulse/backend/internal/event"
	"github.com/agent-pulse/backend/internal/notify"
	"github.com/agent-pulse/backend/internal/stream"
)

// Notifications supervises the notification pipeline: it keeps one event
// stream attached to the agent service and feeds decoded events to the
// dedup dispatcher, reconnecting after backoff on any failure.
type Notifications struct {
	Service    ServiceInfo
	Connector  *stream.Connector
	Dispatcher *notify.Dispatcher
	Backoff    time.Duration
}

// Run blocks until ctx is canceled.
func (n *Notifications) Run(ctx context.Context) {
	log.Printf("[notify] tracker started")
	runLoop(ctx, n.Backoff, n.runOnce, func(err error) {
		log.Printf("[notify] stream cycle error: %v", err)
	})
	log.Printf("[notify] shutdown received, stopping tracker")
}

// runOnce runs one connect-frame-decode-dispatch cycle. An unknown service
// port is an expected startup condition, not an error: the cycle is skipped
// and retried after the usual backoff.
func (n *Notifications) runOnce(ctx context.Context) error {
	port, ok := n.Service.Port()
	if !ok {
		log.Printf("[notify] service port unavailable; will retry")
		return nil
	}

	body, scope, err := n.Connector.Connect(ctx, baseURL(port, n.Service.APIPrefix()))
	if err != nil {
		return err
	}
	defer body.Close()
	log.Printf("[notify] connected (%s scope)", scope)

	framer := stream.NewFramer(body)
	defer framer.Close()
	for {
		frame, err := framer.Next(0)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		ev, _, err := event.Decode([]byte(frame))
		if err != nil {
			// One malformed frame never aborts the stream.
			log.Printf("[notify] discarding undecodable frame: %v; raw=%s", err, frame)
			continue
		}
		n.Dispatcher.HandleEvent(ev)
	}
}
