// Package config loads server settings from an optional YAML file plus
// TC_ prefixed environment variables. Environment values win.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries every tunable the server needs at startup.
type Config struct {
	ListenAddr      string
	RunMode         string
	DatabaseDSN     string
	RedisAddr       string
	RedisPassword   string
	SigningKey      string
	TokenIssuer     string
	SessionDuration time.Duration
	CookieSecure    bool
	CookieDomain    string
	LoginMaxPerMin  int
	ReapInterval    time.Duration
	ReapRetention   time.Duration
	LogLevel        string
}

// Load reads configuration from configPath (optional) and the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.run_mode", "release")
	v.SetDefault("database.dsn", "file:tankcatalog.db?_journal_mode=WAL")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("token.issuer", "tankcatalog")
	v.SetDefault("session.duration_minutes", 30)
	v.SetDefault("cookie.secure", true)
	v.SetDefault("cookie.domain", "")
	v.SetDefault("login.max_failures_per_minute", 10)
	v.SetDefault("reaper.interval_minutes", 60)
	v.SetDefault("reaper.retention_hours", 24*30)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("TC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		ListenAddr:      v.GetString("server.listen_addr"),
		RunMode:         v.GetString("server.run_mode"),
		DatabaseDSN:     v.GetString("database.dsn"),
		RedisAddr:       v.GetString("redis.addr"),
		RedisPassword:   v.GetString("redis.password"),
		SigningKey:      v.GetString("token.signing_key"),
		TokenIssuer:     v.GetString("token.issuer"),
		SessionDuration: time.Duration(v.GetInt("session.duration_minutes")) * time.Minute,
		CookieSecure:    v.GetBool("cookie.secure"),
		CookieDomain:    v.GetString("cookie.domain"),
		LoginMaxPerMin:  v.GetInt("login.max_failures_per_minute"),
		ReapInterval:    time.Duration(v.GetInt("reaper.interval_minutes")) * time.Minute,
		ReapRetention:   time.Duration(v.GetInt("reaper.retention_hours")) * time.Hour,
		LogLevel:        v.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SigningKey) < 32 {
		return errors.New("token.signing_key must be at least 32 bytes")
	}
	if c.SessionDuration <= 0 {
		return errors.New("session.duration_minutes must be positive")
	}
	if c.ReapInterval <= 0 || c.ReapRetention <= 0 {
		return errors.New("reaper interval and retention must be positive")
	}
	return nil
}
