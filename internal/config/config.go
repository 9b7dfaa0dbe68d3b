// Package config loads drover configuration from an optional drover.yml file
// layered with DROVER_* environment variables. Environment values win over
// the file; credentials are environment-only so they never end up in a
// committed config file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when neither the file nor the environment sets one.
const (
	DefaultBoardURL       = "https://api.trello.com"
	DefaultQueueColumn    = "In Line"
	DefaultRunningColumn  = "Deploying"
	DefaultDoneColumn     = "Completed"
	DefaultPollInterval   = 3 * time.Second
	DefaultNotifyPatience = 5 * time.Minute
	DefaultListenAddr     = ":8080"
)

// Duration accepts Go duration strings ("3s", "5m") in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the top-level drover.yml configuration.
type Config struct {
	Board   BoardConfig   `yaml:"board"`
	Columns ColumnsConfig `yaml:"columns,omitempty"`
	Monitor MonitorConfig `yaml:"monitor,omitempty"`
	API     APIConfig     `yaml:"api,omitempty"`
	Relay   RelayConfig   `yaml:"relay,omitempty"`
}

// BoardConfig identifies the board and how to authenticate against it.
type BoardConfig struct {
	ID    string `yaml:"id"`            // Required: board holding the deploy queue
	URL   string `yaml:"url,omitempty"` // Board API root, default https://api.trello.com
	Key   string `yaml:"-"`             // DROVER_BOARD_KEY only, never from the file
	Token string `yaml:"-"`             // DROVER_BOARD_TOKEN only, never from the file
}

// ColumnsConfig names the three queue columns on the board.
type ColumnsConfig struct {
	Queue   string `yaml:"queue,omitempty"`   // Waiting users, default "In Line"
	Running string `yaml:"running,omitempty"` // Active deploy slot, default "Deploying"
	Done    string `yaml:"done,omitempty"`    // Finished deploys, default "Completed"
}

// MonitorConfig tunes the polling state machine.
type MonitorConfig struct {
	PollInterval   Duration `yaml:"poll_interval,omitempty"`   // Default 3s
	NotifyPatience Duration `yaml:"notify_patience,omitempty"` // Default 5m
}

// APIConfig configures the HTTP command surface of the run daemon.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr,omitempty"` // Default ":8080"
	Token      string `yaml:"-"`                     // DROVER_API_TOKEN only; empty disables auth
}

// RelayConfig configures the optional Redis notification relay.
type RelayConfig struct {
	RedisURL string `yaml:"redis_url,omitempty"` // Empty disables the relay
}

// Load reads drover.yml from path (a missing file is fine), applies
// environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case os.IsNotExist(err):
		// The file is optional; environment plus defaults is a full config.
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyEnv copies DROVER_* environment variables over the file values.
func (c *Config) applyEnv() error {
	setString(&c.Board.ID, "DROVER_BOARD_ID")
	setString(&c.Board.URL, "DROVER_BOARD_URL")
	c.Board.Key = os.Getenv("DROVER_BOARD_KEY")
	c.Board.Token = os.Getenv("DROVER_BOARD_TOKEN")

	setString(&c.Columns.Queue, "DROVER_QUEUE_COLUMN")
	setString(&c.Columns.Running, "DROVER_RUNNING_COLUMN")
	setString(&c.Columns.Done, "DROVER_DONE_COLUMN")

	if err := setDuration(&c.Monitor.PollInterval, "DROVER_POLL_INTERVAL"); err != nil {
		return err
	}
	if err := setDuration(&c.Monitor.NotifyPatience, "DROVER_NOTIFY_PATIENCE"); err != nil {
		return err
	}

	setString(&c.API.ListenAddr, "DROVER_LISTEN_ADDR")
	c.API.Token = os.Getenv("DROVER_API_TOKEN")
	setString(&c.Relay.RedisURL, "DROVER_REDIS_URL")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
	}
	*dst = Duration(parsed)
	return nil
}

// Validate applies defaults and performs strict validation on the
// configuration.
func (c *Config) Validate() error {
	// Required: board identity and credentials
	if c.Board.ID == "" {
		return fmt.Errorf("board.id is required (or set DROVER_BOARD_ID)")
	}
	if c.Board.Key == "" {
		return fmt.Errorf("DROVER_BOARD_KEY is required")
	}
	if c.Board.Token == "" {
		return fmt.Errorf("DROVER_BOARD_TOKEN is required")
	}

	// Apply defaults for everything optional
	if c.Board.URL == "" {
		c.Board.URL = DefaultBoardURL
	}
	if c.Columns.Queue == "" {
		c.Columns.Queue = DefaultQueueColumn
	}
	if c.Columns.Running == "" {
		c.Columns.Running = DefaultRunningColumn
	}
	if c.Columns.Done == "" {
		c.Columns.Done = DefaultDoneColumn
	}
	if c.Monitor.PollInterval == 0 {
		c.Monitor.PollInterval = Duration(DefaultPollInterval)
	}
	if c.Monitor.NotifyPatience == 0 {
		c.Monitor.NotifyPatience = Duration(DefaultNotifyPatience)
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = DefaultListenAddr
	}

	// The three columns must be distinct names or the queue degenerates
	seen := make(map[string]string)
	for role, name := range map[string]string{
		"queue":   c.Columns.Queue,
		"running": c.Columns.Running,
		"done":    c.Columns.Done,
	} {
		if other, exists := seen[name]; exists {
			return fmt.Errorf("columns.%s and columns.%s both named %q: column names must be distinct", other, role, name)
		}
		seen[name] = role
	}

	if c.Monitor.PollInterval < 0 {
		return fmt.Errorf("monitor.poll_interval must be positive, got %s", time.Duration(c.Monitor.PollInterval))
	}
	if c.Monitor.NotifyPatience < 0 {
		return fmt.Errorf("monitor.notify_patience must be positive, got %s", time.Duration(c.Monitor.NotifyPatience))
	}

	return nil
}
