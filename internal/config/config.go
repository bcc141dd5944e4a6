package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultScrapeURL is the weekly menu page.
const DefaultScrapeURL = "https://meyers.dk/erhverv/frokostordning/ugens-menuer/"

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Scrape struct {
		URL            string `yaml:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"scrape"`

	MenuCache struct {
		CheckIntervalMinutes int `yaml:"check_interval_minutes"`
		RefreshIntervalHours int `yaml:"refresh_interval_hours"`
		StartupDelaySeconds  int `yaml:"startup_delay_seconds"`
	} `yaml:"menu_cache"`

	Redis struct {
		Address             string `yaml:"address"`
		Password            string `yaml:"password"`
		DB                  int    `yaml:"db"`
		FeedCacheTTLSeconds int    `yaml:"feed_cache_ttl_seconds"`
	} `yaml:"redis"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		StoragePath   string `yaml:"storage_path"`
		IntervalHours int    `yaml:"interval_hours"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

// Load reads the YAML config at path, expanding ${ENV_VAR} placeholders, and
// fills in defaults for anything left unset.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// Missing config file is fine; run entirely on defaults.
	} else {
		data = []byte(os.ExpandEnv(string(data)))
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/madkalender.db"
	}
	if cfg.Scrape.URL == "" {
		cfg.Scrape.URL = DefaultScrapeURL
	}
	if cfg.Scrape.TimeoutSeconds <= 0 {
		cfg.Scrape.TimeoutSeconds = 30
	}
	if cfg.MenuCache.CheckIntervalMinutes <= 0 {
		cfg.MenuCache.CheckIntervalMinutes = 30
	}
	if cfg.MenuCache.RefreshIntervalHours <= 0 {
		cfg.MenuCache.RefreshIntervalHours = 6
	}
	if cfg.MenuCache.StartupDelaySeconds <= 0 {
		cfg.MenuCache.StartupDelaySeconds = 30
	}
	if cfg.Backup.StoragePath == "" {
		cfg.Backup.StoragePath = "data/backups"
	}
	if cfg.Backup.IntervalHours <= 0 {
		cfg.Backup.IntervalHours = 24
	}
	if cfg.Backup.RetentionDays <= 0 {
		cfg.Backup.RetentionDays = 30
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSeconds) * time.Second
}

func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.MenuCache.CheckIntervalMinutes) * time.Minute
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.MenuCache.RefreshIntervalHours) * time.Hour
}

func (c *Config) StartupDelay() time.Duration {
	return time.Duration(c.MenuCache.StartupDelaySeconds) * time.Second
}

func (c *Config) FeedCacheTTL() time.Duration {
	return time.Duration(c.Redis.FeedCacheTTLSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
