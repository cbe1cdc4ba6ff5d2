package config

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// Host is the listen address. Anything but a loopback address requires APIKey.
	Host      string `env:"HOST,       default=127.0.0.1"`
	Port      string `env:"PORT,       default=8787"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`
	// PublicURL is where the backend redirects provider callbacks to.
	PublicURL string `env:"PUBLIC_URL, default=http://localhost:8787"`
	// APIKey, when set, must be presented as a bearer token on every daemon route
	// except health, metrics and the provider callback.
	APIKey string `env:"DAEMON_API_KEY"`

	API     APIConfig
	Storage StorageConfig
	Polling PollingConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type APIConfig struct {
	BaseURL          string        `env:"API_URL,                 default=http://localhost:3001"`
	Timeout          time.Duration `env:"API_TIMEOUT,             default=12s"`
	AdminTimeout     time.Duration `env:"ADMIN_API_TIMEOUT,       default=10s"`
	DashboardTimeout time.Duration `env:"ADMIN_DASHBOARD_TIMEOUT, default=10s"`
}

type StorageConfig struct {
	// Driver is one of memory, file, redis, mongo.
	Driver     string `env:"STORAGE_DRIVER,     default=file"`
	Path       string `env:"STORAGE_PATH,       default=.walletd/session.json"`
	Passphrase string `env:"STORAGE_PASSPHRASE"`
	Namespace  string `env:"STORAGE_NAMESPACE,  default=walletd"`
}

type PollingConfig struct {
	RechargeInterval    time.Duration `env:"RECHARGE_POLL_INTERVAL, default=10s"`
	RechargeTimeout     time.Duration `env:"RECHARGE_POLL_TIMEOUT,  default=5m"`
	TransactionInterval time.Duration `env:"TX_POLL_INTERVAL,       default=5s"`
	TransactionTimeout  time.Duration `env:"TX_POLL_TIMEOUT,        default=2m"`
}

type MongoConfig struct {
	URI        string `env:"MONGO_URI,        default=mongodb://localhost:27017"`
	Database   string `env:"MONGO_DB,         default=wallet_client"`
	Collection string `env:"MONGO_COLLECTION, default=session_kv"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through the given lookuper. Tests pass an
// envconfig.MapLookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	cfg.API.BaseURL = NormalizeBaseURL(cfg.API.BaseURL)
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	switch cfg.Storage.Driver {
	case "memory", "file", "redis", "mongo":
	default:
		return nil, fmt.Errorf("config: unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"API_TIMEOUT", c.API.Timeout},
		{"ADMIN_API_TIMEOUT", c.API.AdminTimeout},
		{"ADMIN_DASHBOARD_TIMEOUT", c.API.DashboardTimeout},
		{"RECHARGE_POLL_INTERVAL", c.Polling.RechargeInterval},
		{"RECHARGE_POLL_TIMEOUT", c.Polling.RechargeTimeout},
		{"TX_POLL_INTERVAL", c.Polling.TransactionInterval},
		{"TX_POLL_TIMEOUT", c.Polling.TransactionTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", d.name, d.value)
		}
	}
	if c.APIKey == "" && !IsLoopback(c.Host) {
		return fmt.Errorf("config: DAEMON_API_KEY is required when HOST %q is not a loopback address", c.Host)
	}
	return nil
}

// Addr is the listen address for the daemon.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsLoopback reports whether host only accepts local connections.
func IsLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// MustLoad is Load for main: it panics on error.
func MustLoad(ctx context.Context) *Config {
	cfg, err := Load(ctx)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// NormalizeBaseURL trims trailing slashes and defaults the scheme to http.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" {
		return "http://localhost:3001"
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "http://" + u
	}
	return u
}
