package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the serve mode.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// GoogleConfig holds paths and parameters for the Google Calendar export.
type GoogleConfig struct {
	// CredentialsPath points at an OAuth client credentials JSON file.
	CredentialsPath string `yaml:"credentials_path" json:"credentials_path"`
	// TokenPath is where the exchanged OAuth token is persisted.
	TokenPath string `yaml:"token_path" json:"token_path"`
	// Timezone is the IANA zone attached to inserted recurring events.
	// The Google API requires one; the ICS output itself stays zone-free.
	Timezone string `yaml:"timezone" json:"timezone"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for serve mode.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is the minimum log level ("debug", "info", "error").
	LogLevel string `yaml:"log_level" json:"log_level"`

	// ProductID is the PRODID written into generated calendar files.
	ProductID string `yaml:"product_id" json:"product_id"`

	// PortalURL is the live schedule page captured in serve mode and by
	// `convert --url`. Empty disables capture.
	PortalURL string `yaml:"portal_url" json:"portal_url"`

	// RefreshCron is a cron-style schedule (e.g. "0 6 * * *") for
	// re-capturing the portal page in serve mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// TermEnd is the recurrence cutoff date in "YYYY-MM-DD" form. It may be
	// left empty, in which case the term end detected in the source is used.
	TermEnd string `yaml:"term_end" json:"term_end"`

	// OutputPath, if set, is where serve mode also writes the generated
	// calendar file on every refresh.
	OutputPath string `yaml:"output" json:"output"`

	// CaptureTimeoutSec bounds a single headless-browser capture.
	CaptureTimeoutSec int `yaml:"capture_timeout_sec" json:"capture_timeout_sec"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// Google configures the optional Google Calendar export.
	Google GoogleConfig `yaml:"google" json:"google"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            "127.0.0.1:8080",
		LogLevel:          "info",
		ProductID:         "-//University Schedule Converter//EN",
		RefreshCron:       "0 6 * * *",
		CaptureTimeoutSec: 30,
		Google: GoogleConfig{
			CredentialsPath: "credentials.json",
			TokenPath:       "token.json",
			Timezone:        "UTC",
		},
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// (e.g. hand-edited files) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ProductID == "" {
		c.ProductID = "-//University Schedule Converter//EN"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 6 * * *"
	}
	if c.CaptureTimeoutSec <= 0 {
		c.CaptureTimeoutSec = 30
	}
	if c.Google.CredentialsPath == "" {
		c.Google.CredentialsPath = "credentials.json"
	}
	if c.Google.TokenPath == "" {
		c.Google.TokenPath = "token.json"
	}
	if c.Google.Timezone == "" {
		c.Google.Timezone = "UTC"
	}
}

// applyEnv overlays SCHEDCAL_* environment variables onto the config.
// A .env file in the working directory is honored; existing environment
// variables win over it.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("SCHEDCAL_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("SCHEDCAL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SCHEDCAL_PORTAL_URL"); v != "" {
		c.PortalURL = v
	}
	if v := os.Getenv("SCHEDCAL_REFRESH_CRON"); v != "" {
		c.RefreshCron = v
	}
	if v := os.Getenv("SCHEDCAL_TERM_END"); v != "" {
		c.TermEnd = v
	}
	if v := os.Getenv("SCHEDCAL_OUTPUT"); v != "" {
		c.OutputPath = v
	}
	if v := os.Getenv("SCHEDCAL_CAPTURE_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CaptureTimeoutSec = n
		}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there (0600,
//     parent directory created) and returned.
//   - If the file exists, it is unmarshaled and normalized.
//   - SCHEDCAL_* environment variables override file values in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.applyEnv()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// The write is atomic (temp file + rename in the same directory) and the
// final file carries 0600 permissions since it may hold credentials.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".schedcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
