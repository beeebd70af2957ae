// Package config loads board settings from defaults, an optional YAML file in
// the config directory, and KANBAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"kanban-cli/internal/backend/appsscript"
	"kanban-cli/internal/store"
)

const (
	namespace      = "KANBAN"
	FileName       = "config.yaml"
	DefaultLogName = "kanban.log"
)

const defaultConfigYAML = `# kanban configuration
# Every key can also be set with a KANBAN_ environment variable
# (for example KANBAN_POLL_INTERVAL=30s) or a command-line flag.

# api_base: https://script.google.com/macros/s/.../exec
email_domain: cloverth.net
poll_interval: 60s
# http_timeout: 30s
log_level: info
# log_file: /path/to/kanban.log
web_addr: 127.0.0.1:3336
`

// Config is the resolved runtime configuration.
//
// Env fields carry no envconfig defaults: an unset variable leaves the file
// value in place. Names come from split_words (APIBase -> KANBAN_API_BASE).
type Config struct {
	APIBase      string        `split_words:"true"`
	EmailDomain  string        `split_words:"true"`
	PollInterval time.Duration `split_words:"true"`
	HTTPTimeout  time.Duration `split_words:"true"`
	LogLevel     string        `split_words:"true"`
	LogFile      string        `split_words:"true"`
	WebAddr      string        `split_words:"true"`

	// Dir is the config directory the file was read from. Not loaded from env
	// directly; see store.ConfigDir.
	Dir string `ignored:"true"`
}

// fileConfig models config.yaml. Durations are strings so a bad value can be
// reported with its key.
type fileConfig struct {
	APIBase      string `yaml:"api_base"`
	EmailDomain  string `yaml:"email_domain"`
	PollInterval string `yaml:"poll_interval"`
	HTTPTimeout  string `yaml:"http_timeout"`
	LogLevel     string `yaml:"log_level"`
	LogFile      string `yaml:"log_file"`
	WebAddr      string `yaml:"web_addr"`
}

func Default() *Config {
	return &Config{
		APIBase:      appsscript.DefaultBaseURL,
		EmailDomain:  "cloverth.net",
		PollInterval: 60 * time.Second,
		LogLevel:     "info",
		WebAddr:      "127.0.0.1:3336",
	}
}

// Path returns the config file location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load resolves the config directory (dir wins when non-empty), then applies
// the file and the environment on top of the defaults.
func Load(dir string) (*Config, error) {
	s, err := store.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	cfg := Default()
	cfg.Dir = s.Dir

	if err := cfg.applyFile(Path(s.Dir)); err != nil {
		return nil, err
	}
	if err := envconfig.Process(namespace, cfg); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	setString(&c.APIBase, fc.APIBase)
	setString(&c.EmailDomain, fc.EmailDomain)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFile, fc.LogFile)
	setString(&c.WebAddr, fc.WebAddr)
	if err := setDuration(&c.PollInterval, fc.PollInterval); err != nil {
		return fmt.Errorf("%s: poll_interval: %w", path, err)
	}
	if err := setDuration(&c.HTTPTimeout, fc.HTTPTimeout); err != nil {
		return fmt.Errorf("%s: http_timeout: %w", path, err)
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func (c *Config) normalize() {
	c.APIBase = strings.TrimSpace(c.APIBase)
	c.EmailDomain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.EmailDomain), "@"))
	c.LogLevel = strings.TrimSpace(c.LogLevel)
	c.WebAddr = strings.TrimSpace(c.WebAddr)
}

func (c *Config) Validate() error {
	switch {
	case c.APIBase == "":
		return errors.New("config: api_base is empty")
	case c.EmailDomain == "":
		return errors.New("config: email_domain is empty")
	case c.PollInterval <= 0:
		return fmt.Errorf("config: poll_interval must be positive, got %s", c.PollInterval)
	case c.HTTPTimeout < 0:
		return fmt.Errorf("config: http_timeout must not be negative, got %s", c.HTTPTimeout)
	}
	return nil
}

// SlogLevel parses LogLevel, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	if c == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// LogPath is where the terminal board writes its log.
func (c *Config) LogPath() string {
	if strings.TrimSpace(c.LogFile) != "" {
		return c.LogFile
	}
	return filepath.Join(c.Dir, DefaultLogName)
}

// WriteDefault creates config.yaml in dir with commented defaults. An existing
// file is left alone unless force is set.
func WriteDefault(dir string, force bool) (string, error) {
	path := Path(dir)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fs.ErrExist
		}
	}
	if err := store.WriteFileAtomic(path, []byte(defaultConfigYAML), 0o600); err != nil {
		return "", err
	}
	return path, nil
}
