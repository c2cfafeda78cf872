package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	defaultPath = "configs/config.toml"
)

type ServerConfig struct {
	Host        string
	GRPCHost    string   `toml:"grpc_host"`
	JWTSecret   string   `toml:"jwt_secret"`
	CORSOrigins []string `toml:"cors_origins"`
	LogFile     string   `toml:"log_file"`
	LogLevel    string   `toml:"log_level"`

	ReadTimeout          time.Duration `toml:"-"`
	WriteTimeout         time.Duration `toml:"-"`
	ReadHeaderTimeout    time.Duration `toml:"-"`
	StrReadTimeout       string        `toml:"read_timeout"`
	StrWriteTimeout      string        `toml:"write_timeout"`
	StrReadHeaderTimeout string        `toml:"read_header_timeout"`
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	User     string
	Password string
	Database string
	SSLMode  string `toml:"ssl_mode"`
	MaxConns int    `toml:"max_conns"`
	DataDir  string `toml:"data_dir"`

	QueryTimeout    time.Duration `toml:"-"`
	StrQueryTimeout string        `toml:"query_timeout"`
}

// DSN renders the connection URL used by pgxpool and golang-migrate.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host,
		Path:   "/" + d.Database,
	}
	if d.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(d.SSLMode)
	}
	return u.String()
}

type RedisConfig struct {
	RedisAddr          string        `toml:"redis_addr"`
	RedisPassword      string        `toml:"redis_password"`
	RedisDB            int           `toml:"redis_db"`
	AccessTokenTTL     time.Duration `toml:"-"`
	RefreshTokenTTL    time.Duration `toml:"-"`
	StrAccessTokenTTL  string        `toml:"access_token_ttl"`
	StrRefreshTokenTTL string        `toml:"refresh_token_ttl"`
}

type QueryConfig struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

type ActivityConfig struct {
	MinDescription int `toml:"min_description"`
	MaxDescription int `toml:"max_description"`
}

// BootstrapConfig describes the admin account seeded into an empty user store.
type BootstrapConfig struct {
	AdminName     string `toml:"admin_name"`
	AdminEmail    string `toml:"admin_email"`
	AdminPassword string `toml:"admin_password"`
}

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Query     QueryConfig
	Activity  ActivityConfig
	Bootstrap BootstrapConfig
}

// Path picks the config file: explicit flag, then CONFIG_PATH, then the default.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return defaultPath
}

func GetConfig(path string, logger *slog.Logger) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Error read config file", slog.String("path", path), slog.String("error", err.Error()))
		return nil, err
	}

	cfg, err := Parse(string(data))
	if err != nil {
		logger.Error("Error decode config file", slog.String("path", path), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Config is loaded", slog.String("path", path), slog.String("driver", cfg.Database.Driver))
	return cfg, nil
}

// Parse decodes TOML, resolves durations and fills defaults.
func Parse(data string) (*Config, error) {
	var cfg Config

	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	durations := []struct {
		name  string
		raw   string
		def   time.Duration
		field *time.Duration
	}{
		{"server.read_timeout", cfg.Server.StrReadTimeout, 10 * time.Second, &cfg.Server.ReadTimeout},
		{"server.write_timeout", cfg.Server.StrWriteTimeout, 10 * time.Second, &cfg.Server.WriteTimeout},
		{"server.read_header_timeout", cfg.Server.StrReadHeaderTimeout, 5 * time.Second, &cfg.Server.ReadHeaderTimeout},
		{"database.query_timeout", cfg.Database.StrQueryTimeout, 5 * time.Second, &cfg.Database.QueryTimeout},
		{"redis.access_token_ttl", cfg.Redis.StrAccessTokenTTL, 15 * time.Minute, &cfg.Redis.AccessTokenTTL},
		{"redis.refresh_token_ttl", cfg.Redis.StrRefreshTokenTTL, 7 * 24 * time.Hour, &cfg.Redis.RefreshTokenTTL},
	}

	for _, d := range durations {
		if d.raw == "" {
			*d.field = d.def
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.field = v
	}

	if cfg.Server.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch cfg.Database.Driver {
	case "":
		cfg.Database.Driver = DriverMemory
	case DriverMemory, DriverPostgres:
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	cfg.applyDefaults()

	if cfg.Query.DefaultPageSize > cfg.Query.MaxPageSize {
		return nil, fmt.Errorf("query.default_page_size %d exceeds max_page_size %d",
			cfg.Query.DefaultPageSize, cfg.Query.MaxPageSize)
	}
	if cfg.Activity.MinDescription > cfg.Activity.MaxDescription {
		return nil, fmt.Errorf("activity.min_description %d exceeds max_description %d",
			cfg.Activity.MinDescription, cfg.Activity.MaxDescription)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = ":8080"
	}
	if c.Server.LogFile == "" {
		c.Server.LogFile = "logs/app.log"
	}
	if c.Database.DataDir == "" {
		c.Database.DataDir = "data"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Query.DefaultPageSize <= 0 {
		c.Query.DefaultPageSize = 10
	}
	if c.Query.MaxPageSize <= 0 {
		c.Query.MaxPageSize = 100
	}
	if c.Activity.MinDescription <= 0 {
		c.Activity.MinDescription = 10
	}
	if c.Activity.MaxDescription <= 0 {
		c.Activity.MaxDescription = 500
	}
	if c.Bootstrap.AdminName == "" {
		c.Bootstrap.AdminName = "Administrator"
	}
}
