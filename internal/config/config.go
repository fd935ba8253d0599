// Package config loads storefront settings from an optional YAML file and
// the process environment. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Login verifiers.
const (
	VerifierSentinel = "sentinel"
	VerifierHash     = "hash"
)

type Config struct {
	Port       string `yaml:"port"`
	ModuleName string `yaml:"module_name"`

	Store    StoreConfig    `yaml:"store"`
	Shopify  ShopifyConfig  `yaml:"shopify"`
	Auth     AuthConfig     `yaml:"auth"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Sessions SessionsConfig `yaml:"sessions"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type StoreConfig struct {
	// Backend is memory, postgres or sqlite. Empty means "postgres when a
	// database is configured, otherwise memory".
	Backend    string         `yaml:"backend"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	URL             string        `yaml:"url"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type ShopifyConfig struct {
	StoreDomain     string        `yaml:"store_domain"`
	StorefrontToken string        `yaml:"storefront_token"`
	APIVersion      string        `yaml:"api_version"`
	Timeout         time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	Verifier         string        `yaml:"verifier"`
	LoginDelay       time.Duration `yaml:"login_delay"`
	SentinelPassword string        `yaml:"sentinel_password"`
	BcryptCost       int           `yaml:"bcrypt_cost"`
}

type CatalogConfig struct {
	PageSize     int           `yaml:"page_size"`
	RelatedLimit int           `yaml:"related_limit"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// SessionsConfig bounds the in-memory session registry. Evicted sessions
// rehydrate from the store on their next request.
type SessionsConfig struct {
	IdleTTL     time.Duration `yaml:"idle_ttl"`
	MaxSessions int           `yaml:"max_sessions"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		Port:       "8080",
		ModuleName: "storefront",
		Store: StoreConfig{
			SQLitePath: filepath.Join("data", "storefront.db"),
			Postgres: PostgresConfig{
				Port:            "5432",
				User:            "postgres",
				Password:        "postgres",
				Name:            "storefront",
				SSLMode:         "disable",
				MaxOpenConns:    60,
				MaxIdleConns:    20,
				ConnMaxIdleTime: 5 * time.Minute,
				ConnMaxLifetime: 30 * time.Minute,
			},
		},
		Shopify: ShopifyConfig{
			APIVersion: "2024-01",
			Timeout:    15 * time.Second,
		},
		Auth: AuthConfig{
			Verifier:         VerifierSentinel,
			LoginDelay:       time.Second,
			SentinelPassword: "password123",
			BcryptCost:       10,
		},
		Catalog: CatalogConfig{
			PageSize:     20,
			RelatedLimit: 4,
			CacheTTL:     45 * time.Second,
		},
		Sessions: SessionsConfig{
			IdleTTL:     30 * time.Minute,
			MaxSessions: 10000,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults and then applies environment
// overrides. A missing file is not an error; an empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Port = env("PORT", c.Port)
	c.ModuleName = env("MODULE_NAME", c.ModuleName)

	c.Store.Backend = strings.ToLower(env("STORE_BACKEND", c.Store.Backend))
	c.Store.SQLitePath = env("SQLITE_PATH", c.Store.SQLitePath)

	pg := &c.Store.Postgres
	pg.URL = env("DATABASE_URL", pg.URL)
	pg.Host = env("DB_HOST", pg.Host)
	pg.Port = env("DB_PORT", pg.Port)
	pg.User = env("DB_USER", pg.User)
	pg.Password = env("DB_PASSWORD", pg.Password)
	pg.Name = env("DB_NAME", pg.Name)
	pg.SSLMode = env("DB_SSLMODE", pg.SSLMode)
	pg.MaxOpenConns = intEnv("DB_MAX_OPEN_CONNS", pg.MaxOpenConns)
	pg.MaxIdleConns = intEnv("DB_MAX_IDLE_CONNS", pg.MaxIdleConns)
	pg.ConnMaxIdleTime = durationEnv("DB_CONN_MAX_IDLE", pg.ConnMaxIdleTime)
	pg.ConnMaxLifetime = durationEnv("DB_CONN_MAX_LIFETIME", pg.ConnMaxLifetime)

	c.Shopify.StoreDomain = env("SHOPIFY_STORE_DOMAIN", c.Shopify.StoreDomain)
	c.Shopify.StorefrontToken = env("SHOPIFY_STOREFRONT_TOKEN", c.Shopify.StorefrontToken)
	c.Shopify.APIVersion = env("SHOPIFY_API_VERSION", c.Shopify.APIVersion)
	c.Shopify.Timeout = durationEnv("SHOPIFY_TIMEOUT", c.Shopify.Timeout)

	c.Auth.Verifier = strings.ToLower(env("AUTH_VERIFIER", c.Auth.Verifier))
	c.Auth.LoginDelay = durationEnv("AUTH_LOGIN_DELAY", c.Auth.LoginDelay)
	c.Auth.SentinelPassword = env("AUTH_SENTINEL_PASSWORD", c.Auth.SentinelPassword)
	c.Auth.BcryptCost = intEnv("AUTH_BCRYPT_COST", c.Auth.BcryptCost)

	c.Catalog.PageSize = intEnv("CATALOG_PAGE_SIZE", c.Catalog.PageSize)
	c.Catalog.RelatedLimit = intEnv("CATALOG_RELATED_LIMIT", c.Catalog.RelatedLimit)
	c.Catalog.CacheTTL = durationEnv("CACHE_TTL", c.Catalog.CacheTTL)

	c.Sessions.IdleTTL = durationEnv("SESSION_IDLE_TTL", c.Sessions.IdleTTL)
	c.Sessions.MaxSessions = intEnv("SESSION_MAX", c.Sessions.MaxSessions)

	c.Logging.Level = env("LOG_LEVEL", c.Logging.Level)
	c.Logging.Development = boolEnv("LOG_DEVELOPMENT", c.Logging.Development)
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "", BackendMemory, BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	switch c.Auth.Verifier {
	case VerifierSentinel, VerifierHash:
	default:
		return fmt.Errorf("config: unknown auth verifier %q", c.Auth.Verifier)
	}
	if c.Auth.LoginDelay < 0 {
		return fmt.Errorf("config: negative login delay %s", c.Auth.LoginDelay)
	}
	if c.Catalog.PageSize < 1 {
		return fmt.Errorf("config: catalog page size must be positive, got %d", c.Catalog.PageSize)
	}
	if c.Sessions.IdleTTL <= 0 {
		return fmt.Errorf("config: session idle ttl must be positive, got %s", c.Sessions.IdleTTL)
	}
	if c.Sessions.MaxSessions < 1 {
		return fmt.Errorf("config: max sessions must be positive, got %d", c.Sessions.MaxSessions)
	}
	return nil
}

// PostgresDSN returns DATABASE_URL if set, otherwise a URL built from the
// DB_* parts. ok is false when neither a URL nor a host is configured.
func (c *Config) PostgresDSN() (dsn string, ok bool) {
	pg := c.Store.Postgres
	if pg.URL != "" {
		return pg.URL, true
	}
	if pg.Host == "" {
		return "", false
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		pg.User, pg.Password, pg.Host, pg.Port, pg.Name, pg.SSLMode), true
}

func env(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func boolEnv(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}
