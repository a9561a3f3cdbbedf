package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"
)

// ErrNoEndpoint is returned when every candidate event endpoint is
// unreachable. The supervisor treats it as a retryable condition.
var ErrNoEndpoint = errors.New("no event endpoint reachable")

// Scope records which endpoint variant a connection was made through. The
// zero value is the global scope; a directory-scoped connection must be
// reconnected when the active working directory changes underneath it.
type Scope struct {
	Directory string
}

func (s Scope) Global() bool { return s.Directory == "" }

func (s Scope) String() string {
	if s.Global() {
		return "global"
	}
	return "directory " + s.Directory
}

// Connector establishes the SSE connection to the agent service, trying the
// global endpoint, the legacy unscoped endpoint, and finally a
// directory-scoped endpoint built from ResolveDir.
type Connector struct {
	Client *http.Client

	// ResolveDir supplies the working directory for the scoped fallback.
	// When nil or failing, the fallback is skipped and connection attempts
	// end with ErrNoEndpoint.
	ResolveDir func(ctx context.Context) (string, error)

	// LogPrefix tags connection logs, e.g. "[notify]" or "[activity]".
	LogPrefix string
}

// NewClient builds the HTTP client used for event streams. The overall
// timeout is effectively unbounded so idle periods don't abort the stream;
// TCP keepalives detect dead peers instead. Compression is disabled because
// it defeats incremental framing.
func NewClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Timeout: 24 * time.Hour,
		Transport: &http.Transport{
			DialContext:        dialer.DialContext,
			DisableCompression: true,
		},
	}
}

// Connect tries each candidate endpoint in priority order and returns the
// open stream body plus the scope it was reached through. The caller owns
// the body and must close it.
func (c *Connector) Connect(ctx context.Context, base string) (io.ReadCloser, Scope, error) {
	globalURL := base + "/global/event"
	if body, err := c.try(ctx, globalURL); err == nil {
		return body, Scope{}, nil
	} else {
		log.Printf("%s endpoint unavailable: %s (%v); falling back", c.LogPrefix, globalURL, err)
	}

	eventURL := base + "/event"
	if body, err := c.try(ctx, eventURL); err == nil {
		return body, Scope{}, nil
	} else {
		log.Printf("%s endpoint unavailable: %s (%v); falling back", c.LogPrefix, eventURL, err)
	}

	if c.ResolveDir == nil {
		return nil, Scope{}, ErrNoEndpoint
	}
	dir, err := c.ResolveDir(ctx)
	if err != nil || dir == "" {
		log.Printf("%s no working directory for scoped endpoint (%v)", c.LogPrefix, err)
		return nil, Scope{}, ErrNoEndpoint
	}

	scopedURL, err := withDirectory(eventURL, dir)
	if err != nil {
		return nil, Scope{}, fmt.Errorf("building scoped endpoint: %w", err)
	}
	body, err := c.try(ctx, scopedURL)
	if err != nil {
		log.Printf("%s endpoint unavailable: %s (%v)", c.LogPrefix, scopedURL, err)
		return nil, Scope{}, ErrNoEndpoint
	}
	return body, Scope{Directory: dir}, nil
}

// try issues one streaming GET. A non-success status counts as failure so
// the caller falls through to the next candidate.
func (c *Connector) try(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "text/event-stream")
	req.Header.Set("accept-encoding", "identity")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func withDirectory(rawURL, dir string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := parsed.Query()
	q.Set("directory", dir)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
