package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from yaml strings like "2s"
// as well as plain nanosecond integers.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Service       ServiceConfig       `yaml:"service"`
	Stream        StreamConfig        `yaml:"stream"`
	Activity      ActivityConfig      `yaml:"activity"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

// ServerConfig addresses the WebSocket hub UI clients connect to.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// ServiceConfig describes how to find the upstream agent service.
type ServiceConfig struct {
	// ProcessName is the binary to look for when discovering the port.
	ProcessName string `yaml:"process_name"`
	// Port pins the service port, skipping discovery.
	Port int `yaml:"port"`
	// APIPrefix is prepended to event endpoint paths.
	APIPrefix string `yaml:"api_prefix"`
	// SettingsPath is the host app settings file used as the last-resort
	// working-directory source.
	SettingsPath string `yaml:"settings_path"`
}

type StreamConfig struct {
	// Backoff is the pause between supervisor cycles after an error or a
	// skipped cycle.
	Backoff Duration `yaml:"backoff"`
	// IdleReadTimeout bounds each stream read on the activity pipeline so
	// scope staleness can be checked between frames.
	IdleReadTimeout Duration `yaml:"idle_read_timeout"`
}

type ActivityConfig struct {
	// Cooldown is the grace period between a finished assistant turn and
	// the session being declared idle.
	Cooldown Duration `yaml:"cooldown"`
}

type NotificationsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Sound   string `yaml:"sound"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8199,
			Host: "127.0.0.1",
		},
		Service: ServiceConfig{
			ProcessName: "opencode",
		},
		Stream: StreamConfig{
			Backoff:         Duration(2 * time.Second),
			IdleReadTimeout: Duration(2 * time.Second),
		},
		Activity: ActivityConfig{
			Cooldown: Duration(2 * time.Second),
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Sound:   "Glass",
		},
	}
}

// Load reads the yaml config at path over the defaults. A missing file is
// not an error: the daemon runs fine unconfigured.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
