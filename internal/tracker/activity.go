package tracker

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/agent-pulse/backend/internal/activity"
	"github.com/agent-pulse/backend/internal/event"
	"github.com/agent-pulse/backend/internal/stream"
)

// Activity supervises the session-phase pipeline. Unlike the notification
// tracker it reads with a bounded wait so a directory-scoped connection can
// be abandoned when the active working directory moves, and it resets all
// phases before every connect attempt so the UI never stays stuck on a
// phase from before a silently dropped stream.
type Activity struct {
	Service     ServiceInfo
	Connector   *stream.Connector
	Tracker     *activity.Tracker
	Backoff     time.Duration
	IdleTimeout time.Duration
}

// Run blocks until ctx is canceled.
func (a *Activity) Run(ctx context.Context) {
	log.Printf("[activity] tracker started")
	runLoop(ctx, a.Backoff, a.runOnce, func(err error) {
		log.Printf("[activity] stream cycle error: %v", err)
	})
	log.Printf("[activity] shutdown received, stopping tracker")
}

func (a *Activity) runOnce(ctx context.Context) error {
	// Clear stale phases before connecting so the UI doesn't show
	// "busy" from before a host sleep or dropped stream.
	a.Tracker.Reset()

	port, ok := a.Service.Port()
	if !ok {
		log.Printf("[activity] service port unavailable; will retry")
		return nil
	}

	body, scope, err := a.Connector.Connect(ctx, baseURL(port, a.Service.APIPrefix()))
	if err != nil {
		return err
	}
	defer body.Close()
	log.Printf("[activity] connected (%s scope)", scope)

	idle := a.IdleTimeout
	if idle <= 0 {
		idle = 2 * time.Second
	}

	framer := stream.NewFramer(body)
	defer framer.Close()
	for {
		frame, err := framer.Next(idle)
		if errors.Is(err, stream.ErrIdle) {
			// No data recently. If the working directory moved out from
			// under a scoped connection, reconnect so phase tracking
			// follows the new directory. An empty directory means the
			// service can't currently be located, not that it moved.
			if !scope.Global() {
				if dir := a.Service.WorkingDirectory(); dir != "" && dir != scope.Directory {
					log.Printf("[activity] working directory changed from %s; reconnecting", scope.Directory)
					return nil
				}
			}
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		ev, _, err := event.Decode([]byte(frame))
		if err != nil {
			log.Printf("[activity] discarding undecodable frame: %v; raw=%s", err, frame)
			continue
		}
		a.Tracker.HandleEvent(ev)
	}
}
