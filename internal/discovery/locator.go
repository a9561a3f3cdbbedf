package discovery

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

const portCacheTTL = 5 * time.Second

// Locator finds the locally running agent service: which loopback port it
// listens on and which directory it runs in. The port may legitimately be
// unknown while the service is still starting; callers retry.
type Locator struct {
	// ProcessName matches the agent service binary, e.g. "opencode".
	ProcessName string
	// Prefix is the service's API path prefix, prepended to endpoint paths.
	Prefix string
	// PortOverride pins the port and skips process scanning entirely.
	PortOverride int

	mu       sync.Mutex
	cachedAt time.Time
	port     int
	workDir  string
}

// Port returns the agent service's listening port, or false while the
// service cannot be found.
func (l *Locator) Port() (int, bool) {
	if l.PortOverride > 0 {
		return l.PortOverride, true
	}
	l.refresh()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port, l.port > 0
}

// APIPrefix returns the service's API path prefix, e.g. "" or "/api".
func (l *Locator) APIPrefix() string {
	return l.Prefix
}

// WorkingDirectory returns the agent service's working directory, or ""
// while the service hasn't been located.
func (l *Locator) WorkingDirectory() string {
	l.refresh()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.workDir
}

// refresh rescans the process table unless the cached result is still fresh.
func (l *Locator) refresh() {
	l.mu.Lock()
	if time.Since(l.cachedAt) < portCacheTTL {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	port, dir := l.scan()

	l.mu.Lock()
	l.cachedAt = time.Now()
	l.port = port
	l.workDir = dir
	l.mu.Unlock()
}

// scan walks the process table looking for the agent service and returns
// its lowest listening TCP port and working directory. Individual process
// lookups fail routinely (permissions, races with exits) and are skipped.
func (l *Locator) scan() (int, string) {
	procs, err := process.Processes()
	if err != nil {
		log.Printf("[discovery] process scan failed: %v", err)
		return 0, ""
	}

	for _, p := range procs {
		if !l.matches(p) {
			continue
		}

		conns, err := p.Connections()
		if err != nil {
			continue
		}
		port := 0
		for _, conn := range conns {
			if conn.Status != "LISTEN" {
				continue
			}
			candidate := int(conn.Laddr.Port)
			if candidate == 0 {
				continue
			}
			if port == 0 || candidate < port {
				port = candidate
			}
		}
		if port == 0 {
			continue
		}

		dir, _ := p.Cwd()
		return port, dir
	}
	return 0, ""
}

// matches reports whether p is the agent service. Matches the binary name
// directly, or a runtime (node, bun) whose command line names the service.
func (l *Locator) matches(p *process.Process) bool {
	if l.ProcessName == "" {
		return false
	}
	name, err := p.Name()
	if err != nil {
		return false
	}
	if name == l.ProcessName {
		return true
	}
	if name == "node" || name == "bun" {
		cmdline, err := p.Cmdline()
		if err != nil {
			return false
		}
		return strings.Contains(cmdline, l.ProcessName)
	}
	return false
}
