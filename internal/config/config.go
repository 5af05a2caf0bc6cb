// engine/internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	KindHTML       = "html"
	KindGreenhouse = "greenhouse"
	KindLever      = "lever"
)

// Storage drivers.
const (
	DriverYAML   = "yaml"
	DriverSQLite = "sqlite"
)

// Source describes one job board. The *_re fields only apply to html
// sources and are compiled by the scraper.
type Source struct {
	Name    string `yaml:"name" json:"name"`
	Kind    string `yaml:"kind" json:"kind"`
	URL     string `yaml:"url,omitempty" json:"url,omitempty"`
	Company string `yaml:"company,omitempty" json:"company,omitempty"`
	Slug    string `yaml:"slug,omitempty" json:"slug,omitempty"`

	StartRe      string `yaml:"start_re,omitempty" json:"start_re,omitempty"`
	EndRe        string `yaml:"end_re,omitempty" json:"end_re,omitempty"`
	NextJobRe    string `yaml:"next_job_re,omitempty" json:"next_job_re,omitempty"`
	JobCompanyRe string `yaml:"job_company_re,omitempty" json:"job_company_re,omitempty"`
	JobIDRe      string `yaml:"job_id_re,omitempty" json:"job_id_re,omitempty"`
	JobURLRe     string `yaml:"job_url_re,omitempty" json:"job_url_re,omitempty"`
	JobTitleRe   string `yaml:"job_title_re,omitempty" json:"job_title_re,omitempty"`

	// NextPage is a CSS selector for the pagination link.
	NextPage string `yaml:"next_page,omitempty" json:"next_page,omitempty"`
	// CookieKeyring names the keychain account holding a Cookie header.
	CookieKeyring string `yaml:"cookie_keyring,omitempty" json:"cookie_keyring,omitempty"`
}

// CompanyName is the company used when a posting carries none of its own.
func (s Source) CompanyName() string {
	if c := strings.TrimSpace(s.Company); c != "" {
		return c
	}
	return s.Name
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Storage struct {
		Driver     string `yaml:"driver" json:"driver"`
		Path       string `yaml:"path" json:"path"`
		BackupPath string `yaml:"backup_path" json:"backup_path"`
	} `yaml:"storage" json:"storage"`

	Reconcile struct {
		GraceDays int `yaml:"grace_days" json:"grace_days"`
	} `yaml:"reconcile" json:"reconcile"`

	Polling struct {
		IntervalSeconds      int    `yaml:"interval_seconds" json:"interval_seconds"`
		Cron                 string `yaml:"cron,omitempty" json:"cron,omitempty"`
		SourceTimeoutSeconds int    `yaml:"source_timeout_seconds" json:"source_timeout_seconds"`
	} `yaml:"polling" json:"polling"`

	Scrape struct {
		RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
		Burst             int     `yaml:"burst" json:"burst"`
		UserAgent         string  `yaml:"user_agent" json:"user_agent"`
		MaxPages          int     `yaml:"max_pages" json:"max_pages"`
	} `yaml:"scrape" json:"scrape"`

	Notify struct {
		Telegram struct {
			Enabled       bool   `yaml:"enabled" json:"enabled"`
			Token         string `yaml:"token,omitempty" json:"-"`
			ChatID        int64  `yaml:"chat_id" json:"chat_id"`
			OnlyDesirable bool   `yaml:"only_desirable" json:"only_desirable"`
		} `yaml:"telegram" json:"telegram"`
	} `yaml:"notify" json:"notify"`

	Sources []Source `yaml:"sources" json:"sources"`
}

// Default returns the configuration used for fields a file leaves unset.
func Default() Config {
	var c Config
	c.App.Port = 38471
	c.App.DataDir = "."
	c.Storage.Driver = DriverYAML
	c.Storage.Path = "jobs.yml"
	c.Storage.BackupPath = "jobs.backup.yml"
	c.Reconcile.GraceDays = 3
	c.Polling.IntervalSeconds = 3600
	c.Polling.SourceTimeoutSeconds = 300
	c.Scrape.RequestsPerSecond = 1
	c.Scrape.Burst = 2
	c.Scrape.UserAgent = "jobwatch/1.0 (+https://github.com/jobwatch)"
	c.Scrape.MaxPages = 50
	c.Notify.Telegram.OnlyDesirable = true
	return c
}

// Load reads a YAML config over the defaults and applies environment
// overrides.
func Load(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile is Load without environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads .env without overriding variables already set.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// ApplyEnv overrides config values from JOBWATCH_DATA_DIR,
// TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID.
func ApplyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("JOBWATCH_DATA_DIR")); v != "" {
		cfg.App.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); v != "" {
		cfg.Notify.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Notify.Telegram.ChatID = id
	}
	return nil
}

// Grace is the missing-posting eviction threshold.
func (c Config) Grace() time.Duration {
	d := c.Reconcile.GraceDays
	if d <= 0 {
		d = 3
	}
	return time.Duration(d) * 24 * time.Hour
}

func (c Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.App.DataDir, p)
}

// StorePath is the primary store location, relative paths taken from the
// data dir.
func (c Config) StorePath() string { return c.resolve(c.Storage.Path) }

func (c Config) BackupPath() string { return c.resolve(c.Storage.BackupPath) }

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Polling.IntervalSeconds) * time.Second
}

func (c Config) SourceTimeout() time.Duration {
	if c.Polling.SourceTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Polling.SourceTimeoutSeconds) * time.Second
}

// SourceByName finds a configured source.
func (c Config) SourceByName(name string) (Source, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}
