package discovery

import (
	"context"
	"errors"
)

// ErrNoDirectory is returned when no source can supply a working directory.
var ErrNoDirectory = errors.New("no working directory source")

// DirectorySource resolves the working directory used to scope an event
// stream: the discovered service directory when known, then the host app
// settings file. The daemon's own working directory is never used; it says
// nothing about where the agent service runs.
type DirectorySource struct {
	// ServiceDir returns the agent service's working directory, or "" while
	// the service hasn't been located.
	ServiceDir func() string
	// Settings is the fallback source. Nil, or an empty path, disables it.
	Settings *Settings
}

func (d *DirectorySource) Resolve(ctx context.Context) (string, error) {
	if d.ServiceDir != nil {
		if dir := d.ServiceDir(); dir != "" {
			return dir, nil
		}
	}
	if d.Settings == nil || d.Settings.Path == "" {
		return "", ErrNoDirectory
	}
	return d.Settings.ProjectDirectory()
}
