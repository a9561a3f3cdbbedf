package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Settings reads the host application's settings document. Used only as a
// last-resort source of a working directory for the directory-scoped stream
// fallback.
type Settings struct {
	Path string
}

type settingsDoc struct {
	ActiveProjectID string `json:"activeProjectId"`
	Projects        []struct {
		ID   string `json:"id"`
		Path string `json:"path"`
	} `json:"projects"`
	LastDirectory string `json:"lastDirectory"`
}

// ProjectDirectory resolves the active project's path, falling back to the
// last used directory. Paths are tilde-expanded.
func (s *Settings) ProjectDirectory() (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("reading settings: %w", err)
	}

	var doc settingsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parsing settings: %w", err)
	}

	if doc.ActiveProjectID != "" {
		for _, p := range doc.Projects {
			if p.ID == doc.ActiveProjectID && p.Path != "" {
				return ExpandTilde(p.Path), nil
			}
		}
	}

	if doc.LastDirectory != "" {
		return ExpandTilde(doc.LastDirectory), nil
	}
	return "", fmt.Errorf("settings at %s name no project directory", s.Path)
}

// ExpandTilde replaces a leading ~ with the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
