package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Backend    BackendConfig    `yaml:"backend"`
	Poll       PollConfig       `yaml:"poll"`
	UI         UIConfig         `yaml:"ui"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
// Push is disabled when either key is empty.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port              int     `yaml:"port"`
	RateLimitPerSec   float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst    int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds   int     `yaml:"cache_ttl_seconds"`
	SessionTTLMinutes int     `yaml:"session_ttl_minutes"`
	SecureCookies     bool    `yaml:"secure_cookies"`
}

// BackendConfig describes the reservation backend the dashboard talks to.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 0 leaves the transport default (no timeout)
	HTTPProxy      string `yaml:"http_proxy"`
}

// PollConfig controls the refresh loop.
type PollConfig struct {
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
	// DiscardStale drops refresh results that complete after a newer cycle
	// has already been applied. Off means last-writer-wins.
	DiscardStale bool `yaml:"discard_stale"`
}

// UIConfig holds dashboard behavior knobs.
type UIConfig struct {
	MessageTTLSeconds int           `yaml:"message_ttl_seconds"`
	MessageTTL        time.Duration `yaml:"-"`
	DefaultDuration   int           `yaml:"default_duration"`
	Durations         []int         `yaml:"durations"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path. Values from a .env file
// and the environment (BACKEND_URL, DATABASE_DSN, PORT) override the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			log.Printf("Warning: ignoring invalid PORT %q", v)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}
	if cfg.Server.SessionTTLMinutes <= 0 {
		cfg.Server.SessionTTLMinutes = 30
	}

	if cfg.Poll.IntervalSeconds <= 0 {
		cfg.Poll.IntervalSeconds = 30
	}
	cfg.Poll.Interval = time.Duration(cfg.Poll.IntervalSeconds) * time.Second

	if cfg.UI.MessageTTLSeconds <= 0 {
		cfg.UI.MessageTTLSeconds = 3
	}
	cfg.UI.MessageTTL = time.Duration(cfg.UI.MessageTTLSeconds) * time.Second
	if len(cfg.UI.Durations) == 0 {
		cfg.UI.Durations = []int{30, 45, 60, 90}
	}
	if cfg.UI.DefaultDuration <= 0 {
		cfg.UI.DefaultDuration = 60
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}
