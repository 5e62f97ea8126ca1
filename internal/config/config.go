// Package config loads the service configuration from YAML with environment
// overrides for deploy-time secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/greenmarket/sso/internal/provider"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env  string `yaml:"env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int32  `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		Issuer     string `yaml:"issuer"`
		Secret     string `yaml:"secret"`
		SessionTTL string `yaml:"session_ttl"`
	} `yaml:"jwt"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Providers struct {
		Kakao  ProviderConfig `yaml:"kakao"`
		Naver  ProviderConfig `yaml:"naver"`
		Google ProviderConfig `yaml:"google"`
	} `yaml:"providers"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`
}

// ProviderConfig is one provider block from the YAML file.
type ProviderConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
	AdminKey     string `yaml:"admin_key"`
}

// Client converts a block into the provider package's config shape.
func (p ProviderConfig) Client() provider.Config {
	return provider.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURI:  p.RedirectURI,
		AdminKey:     p.AdminKey,
	}
}

// SessionTTL parses the configured session duration.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.JWT.SessionTTL)
	if err != nil {
		return 0
	}
	return d
}

// ConnMaxLifetime parses the configured pool lifetime.
func (c *Config) ConnMaxLifetime() time.Duration {
	d, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime)
	if err != nil {
		return 0
	}
	return d
}

// Load reads the file, applies defaults and env overrides, and validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "sso"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.JWT.SessionTTL == "" {
		c.JWT.SessionTTL = "24h"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.Storage.Postgres.ConnMaxLifetime == "" {
		c.Storage.Postgres.ConnMaxLifetime = "30m"
	}

	c.applyEnvOverrides()

	// validate duration strings
	if _, err := time.ParseDuration(c.JWT.SessionTTL); err != nil {
		return nil, fmt.Errorf("jwt.session_ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
		return nil, fmt.Errorf("storage.postgres.conn_max_lifetime: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate enforces the invariants a running service depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("storage.dsn is required")
	}
	if strings.EqualFold(c.App.Env, "prod") && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("jwt.secret must be at least 32 bytes in prod")
	}
	for name, p := range c.EnabledProviders() {
		if p.ClientID == "" {
			return fmt.Errorf("providers.%s.client_id is required when enabled", name)
		}
	}
	return nil
}

// EnabledProviders returns the enabled provider blocks keyed by name.
func (c *Config) EnabledProviders() map[string]ProviderConfig {
	out := make(map[string]ProviderConfig)
	if c.Providers.Kakao.Enabled {
		out["kakao"] = c.Providers.Kakao
	}
	if c.Providers.Naver.Enabled {
		out["naver"] = c.Providers.Naver
	}
	if c.Providers.Google.Enabled {
		out["google"] = c.Providers.Google
	}
	return out
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("SSO_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SSO_DB_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("SSO_JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("SSO_JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("SSO_REDIS_ADDR"); ok {
		c.Cache.Kind = "redis"
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("SSO_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("SSO_APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvBool("SSO_MIGRATE"); ok {
		c.Flags.Migrate = v
	}

	// Provider secrets are usually injected, not committed.
	overrideProvider("KAKAO", &c.Providers.Kakao)
	overrideProvider("NAVER", &c.Providers.Naver)
	overrideProvider("GOOGLE", &c.Providers.Google)
}

func overrideProvider(prefix string, p *ProviderConfig) {
	if v, ok := getEnvStr("SSO_" + prefix + "_CLIENT_ID"); ok {
		p.ClientID = v
	}
	if v, ok := getEnvStr("SSO_" + prefix + "_CLIENT_SECRET"); ok {
		p.ClientSecret = v
	}
	if v, ok := getEnvStr("SSO_" + prefix + "_ADMIN_KEY"); ok {
		p.AdminKey = v
	}
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
