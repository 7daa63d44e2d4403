package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/ibeckermayer/xdrip/internal/types"
)

// Environment overrides, applied after the config file is read
const (
	EnvDebugURL  = "XDRIP_DEBUG_URL"
	EnvOutputDir = "XDRIP_OUTPUT_DIR"
	EnvLogLevel  = "XDRIP_LOG_LEVEL"
	EnvSMTPPass  = "XDRIP_SMTP_PASS"
)

// Config holds all application configuration
type Config struct {
	Version  int            `toml:"version"`
	Browser  BrowserConfig  `toml:"browser"`
	Sending  SendingConfig  `toml:"sending"`
	Output   OutputConfig   `toml:"output"`
	Schedule ScheduleConfig `toml:"schedule"`
	Notify   NotifyConfig   `toml:"notify"`
	Logging  LoggingConfig  `toml:"logging"`
}

type BrowserConfig struct {
	// DebugURL is the remote-debugging endpoint of the already running browser
	DebugURL        string        `toml:"debug_url"`
	BaseURL         string        `toml:"base_url"`
	SiteHosts       []string      `toml:"site_hosts"`
	LocateTimeout   time.Duration `toml:"locate_timeout"`
	PollInterval    time.Duration `toml:"poll_interval"`
	ScrollSettle    time.Duration `toml:"scroll_settle"`
	PageLoadTimeout time.Duration `toml:"page_load_timeout"`
}

type SendingConfig struct {
	types.SendPolicy
	Templates    []string `toml:"templates"`
	SkipExisting bool     `toml:"skip_existing"`
	Workers      int      `toml:"workers"`
}

type OutputConfig struct {
	// OutputDir receives the follower CSV files
	OutputDir string `toml:"output_dir"`
	// DataDir holds the send ledger
	DataDir string `toml:"data_dir"`
}

type ScheduleConfig struct {
	Timezone string `toml:"timezone"`
	At       string `toml:"at"`
}

// NotifyConfig controls the campaign summary email. An empty Provider
// disables it.
type NotifyConfig struct {
	Provider string `toml:"provider"` // "smtp" or ""
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	SMTPUser string `toml:"smtp_user"`
	SMTPPass string `toml:"smtp_pass"`
	FromAddr string `toml:"from_addr"`
	ToAddr   string `toml:"to_addr"`
}

type LoggingConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	dataDir, _ := DataDir()

	return &Config{
		Version: 1,
		Browser: BrowserConfig{
			DebugURL:        "http://127.0.0.1:9222",
			BaseURL:         "https://twitter.com",
			SiteHosts:       []string{"twitter.com", "x.com"},
			LocateTimeout:   10 * time.Second,
			PollInterval:    250 * time.Millisecond,
			ScrollSettle:    2 * time.Second,
			PageLoadTimeout: 20 * time.Second,
		},
		Sending: SendingConfig{
			SendPolicy: types.SendPolicy{
				MinIntervalSeconds:  300,
				MaxIntervalSeconds:  600,
				DailyLimit:          50,
				FollowBeforeMessage: true,
			},
			Templates:    []string{"$${nick_name}さん、はじめまして！"},
			SkipExisting: true,
			Workers:      1,
		},
		Output: OutputConfig{
			OutputDir: filepath.Join(home, "Desktop"),
			DataDir:   dataDir,
		},
		Schedule: ScheduleConfig{
			Timezone: "Local",
			At:       "09:00",
		},
		Notify: NotifyConfig{
			SMTPPort: 587,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "xdrip"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the platform-appropriate directory for the send ledger
func DataDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "xdrip"), nil
}

// Load reads the config file at path, or the default path when empty.
// A missing file is not an error: defaults are used. Environment
// overrides (including a .env in the working directory) are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return nil, err
		}
	}

	_ = godotenv.Load() // optional

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDebugURL); v != "" {
		cfg.Browser.DebugURL = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		cfg.Output.OutputDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvSMTPPass); v != "" {
		cfg.Notify.SMTPPass = v
	}
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	if c.Browser.DebugURL == "" {
		errs = append(errs, errors.New("browser.debug_url is required"))
	}
	if c.Browser.BaseURL == "" {
		errs = append(errs, errors.New("browser.base_url is required"))
	}
	if len(c.Browser.SiteHosts) == 0 {
		errs = append(errs, errors.New("browser.site_hosts must not be empty"))
	}
	if c.Browser.LocateTimeout <= 0 || c.Browser.PollInterval <= 0 {
		errs = append(errs, errors.New("browser.locate_timeout and browser.poll_interval must be > 0"))
	}
	if err := c.Sending.SendPolicy.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sending: %w", err))
	}
	if c.Sending.Workers < 1 {
		errs = append(errs, errors.New("sending.workers must be >= 1"))
	}
	if _, err := time.Parse("15:04", c.Schedule.At); err != nil {
		errs = append(errs, fmt.Errorf("schedule.at: %w", err))
	}
	if c.Output.OutputDir == "" {
		errs = append(errs, errors.New("output.output_dir is required"))
	}
	switch c.Notify.Provider {
	case "":
	case "smtp":
		if c.Notify.SMTPHost == "" || c.Notify.FromAddr == "" || c.Notify.ToAddr == "" {
			errs = append(errs, errors.New("notify: smtp_host, from_addr and to_addr are required for smtp"))
		}
	default:
		errs = append(errs, fmt.Errorf("notify: unknown provider %q", c.Notify.Provider))
	}
	return errors.Join(errs...)
}

// ProfileURL builds the profile address for a handle
func (b BrowserConfig) ProfileURL(handle string) string {
	return strings.TrimRight(b.BaseURL, "/") + "/" + strings.TrimPrefix(handle, "@")
}

// FollowersURL builds the followers listing address for a handle
func (b BrowserConfig) FollowersURL(handle string) string {
	return b.ProfileURL(handle) + "/followers"
}

// Save writes config to path, or the default path when empty
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
