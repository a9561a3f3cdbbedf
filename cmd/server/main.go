package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agent-pulse/backend/internal/activity"
	"github.com/agent-pulse/backend/internal/config"
	"github.com/agent-pulse/backend/internal/discovery"
	"github.com/agent-pulse/backend/internal/mock"
	"github.com/agent-pulse/backend/internal/notify"
	"github.com/agent-pulse/backend/internal/stream"
	"github.com/agent-pulse/backend/internal/tracker"
	"github.com/agent-pulse/backend/internal/ws"
)

// fanout delivers each notification to every sink: the desktop and the
// WebSocket hub see the same alerts.
type fanout []notify.Notifier

func (f fanout) Notify(title, body, sound string) {
	for _, n := range f {
		n.Notify(title, body, sound)
	}
}

func main() {
	mockMode := flag.Bool("mock", false, "Use synthetic session events instead of a live agent service")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	servicePort := flag.Int("service-port", 0, "Pin the agent service port (skips discovery)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *servicePort > 0 {
		cfg.Service.Port = *servicePort
	}

	locator := &discovery.Locator{
		ProcessName:  cfg.Service.ProcessName,
		Prefix:       cfg.Service.APIPrefix,
		PortOverride: cfg.Service.Port,
	}
	settings := &discovery.Settings{Path: discovery.ExpandTilde(cfg.Service.SettingsPath)}

	// The activity stream scopes to the service's own working directory. The
	// notification stream additionally falls back to the host app settings
	// file when the process can't be inspected (pinned port, failed scan).
	serviceDir := func(ctx context.Context) (string, error) {
		return locator.WorkingDirectory(), nil
	}
	notifySource := &discovery.DirectorySource{
		ServiceDir: locator.WorkingDirectory,
		Settings:   settings,
	}

	hub := ws.NewHub()
	phases := activity.NewTracker(hub, cfg.Activity.Cooldown.Std())
	hub.Snapshot = phases.Snapshot

	// Desktop alerts can be switched off; the hub mirror always runs so the
	// UI stays informed either way.
	var notifier notify.Notifier = hub
	if cfg.Notifications.Enabled {
		notifier = fanout{&notify.Desktop{}, hub}
	}
	dispatcher := notify.NewDispatcher(notifier, nil, cfg.Notifications.Sound)

	client := stream.NewClient()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *mockMode {
		log.Println("Starting in mock mode")
		gen := mock.NewGenerator(phases, dispatcher)
		gen.Start(ctx)
	} else {
		notifications := &tracker.Notifications{
			Service:    locator,
			Connector:  &stream.Connector{Client: client, ResolveDir: notifySource.Resolve, LogPrefix: "[notify]"},
			Dispatcher: dispatcher,
			Backoff:    cfg.Stream.Backoff.Std(),
		}
		go notifications.Run(ctx)

		activityLoop := &tracker.Activity{
			Service:     locator,
			Connector:   &stream.Connector{Client: client, ResolveDir: serviceDir, LogPrefix: "[activity]"},
			Tracker:     phases,
			Backoff:     cfg.Stream.Backoff.Std(),
			IdleTimeout: cfg.Stream.IdleReadTimeout.Std(),
		}
		go activityLoop.Run(ctx)
	}

	server := ws.NewServer(hub)
	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		cancel()
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
