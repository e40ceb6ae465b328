// internal/config/config.go
//
// This package handles configuration and the ~/.appointed directory structure.
// The first run creates the folder with a commented default config the user
// can edit to point at their appointment service.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppDir is the name of the directory we create in the user's home
	AppDir = ".appointed"

	// ServerEnv overrides the configured server URL when set
	ServerEnv = "APPOINTED_SERVER"

	defaultServerURL = "http://localhost:8000"
	defaultTimeout   = 15 * time.Second
)

const defaultConfigYAML = `# appointed configuration
version: 1

# Base URL of the appointment service. The APPOINTED_SERVER environment
# variable takes precedence when set.
server:
  url: http://localhost:8000
  # Per-request timeout, Go duration syntax.
  timeout: 15s
`

// Duration wraps time.Duration so yaml.v3 can decode "15s" style values.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in Go syntax.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// ServerConfig declares how to reach the appointment service.
type ServerConfig struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

// FileConfig models ~/.appointed/config.yaml.
type FileConfig struct {
	Version int          `yaml:"version"`
	Server  ServerConfig `yaml:"server"`
}

// Config holds the runtime configuration for appointed.
type Config struct {
	// HomeDir is the directory that contains the .appointed folder,
	// normally the user's home directory.
	HomeDir string

	// AppointedDir is HomeDir/.appointed
	AppointedDir string

	File FileConfig
}

// InitAppDir creates the ~/.appointed directory structure.
// This is called when the TUI starts up.
//
// Structure created:
// .appointed/
// ├── logs/     <- session log
// └── state/    <- persisted credential slot
func InitAppDir(homeDir string) error {
	appDir := filepath.Join(homeDir, AppDir)

	dirs := []string{
		filepath.Join(appDir, "logs"),
		filepath.Join(appDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return ensureConfigFile(filepath.Join(appDir, "config.yaml"))
}

// NewConfig creates a Config populated from config.yaml and the environment.
func NewConfig(homeDir string) (*Config, error) {
	cfg := &Config{
		HomeDir:      homeDir,
		AppointedDir: filepath.Join(homeDir, AppDir),
		File:         defaultFileConfig(),
	}

	if err := cfg.loadConfigFile(); err != nil {
		return nil, err
	}

	if env := strings.TrimSpace(os.Getenv(ServerEnv)); env != "" {
		cfg.File.Server.URL = env
	}

	if err := cfg.File.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// ServerURL returns the base URL of the appointment service.
func (c *Config) ServerURL() string {
	return strings.TrimRight(c.File.Server.URL, "/")
}

// RequestTimeout returns the per-request timeout for service calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.File.Server.Timeout)
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.AppointedDir, "logs")
}

// StateDir returns the path to the state directory.
func (c *Config) StateDir() string {
	return filepath.Join(c.AppointedDir, "state")
}

// ConfigPath returns the on-disk location for the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.AppointedDir, "config.yaml")
}

func (c *Config) loadConfigFile() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed FileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	c.File = parsed
	return nil
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Version: 1,
		Server: ServerConfig{
			URL:     defaultServerURL,
			Timeout: Duration(defaultTimeout),
		},
	}
}

func (fc *FileConfig) applyDefaults() {
	if fc.Version == 0 {
		fc.Version = 1
	}
	if strings.TrimSpace(fc.Server.URL) == "" {
		fc.Server.URL = defaultServerURL
	}
	if fc.Server.Timeout <= 0 {
		fc.Server.Timeout = Duration(defaultTimeout)
	}
}

func (fc *FileConfig) validate() error {
	parsed, err := url.Parse(fc.Server.URL)
	if err != nil {
		return fmt.Errorf("server url %q: %w", fc.Server.URL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server url %q: scheme must be http or https", fc.Server.URL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("server url %q: missing host", fc.Server.URL)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write default %s: %w", path, err)
	}
	return nil
}
