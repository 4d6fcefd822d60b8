// Package config loads dashboard settings from .env, the environment, an
// optional spacegui.yaml and command line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "SPACEGUI"

type Config struct {
	Listen         string        `mapstructure:"listen"`
	BackendURL     string        `mapstructure:"backend_url"`
	Token          string        `mapstructure:"token"`
	DatabaseURL    string        `mapstructure:"database_url"`
	DatabaseToken  string        `mapstructure:"database_token"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	LogLevel       string        `mapstructure:"log_level"`
	StaticDir      string        `mapstructure:"static_dir"`
	GatePerSecond  int           `mapstructure:"gate_per_second"`
	GateBurst      int           `mapstructure:"gate_burst"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheIdle      time.Duration `mapstructure:"cache_idle"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Collect        bool          `mapstructure:"collect"`
	CollectEvery   time.Duration `mapstructure:"collect_every"`
}

// SetDefaults registers every key so environment overrides are picked up by
// Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8845")
	v.SetDefault("backend_url", "http://localhost:8000")
	v.SetDefault("token", "")
	v.SetDefault("database_url", "")
	v.SetDefault("database_token", "")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("log_level", "info")
	v.SetDefault("static_dir", "")
	v.SetDefault("gate_per_second", 2)
	v.SetDefault("gate_burst", 30)
	v.SetDefault("cache_ttl", 5*time.Second)
	v.SetDefault("cache_idle", 2*time.Minute)
	v.SetDefault("session_ttl", 12*time.Hour)
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("collect", false)
	v.SetDefault("collect_every", 5*time.Minute)
}

// BindFlags ties command line flags to keys. Flag names use dashes where
// keys use underscores.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// Load reads configuration into a Config. file may be empty, in which case
// spacegui.yaml in the working directory is used when it exists.
func Load(v *viper.Viper, file string) (*Config, error) {
	// a missing .env is normal
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("spacegui")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.AllowedOrigins = splitOrigins(c.AllowedOrigins)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// splitOrigins accepts both a list and a single comma separated entry.
func splitOrigins(in []string) []string {
	out := []string{}
	for _, o := range in {
		for _, p := range strings.Split(o, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend_url %q is not an absolute url", c.BackendURL)
	}
	if c.GatePerSecond <= 0 || c.GateBurst < 0 {
		return fmt.Errorf("gate_per_second must be positive and gate_burst not negative")
	}
	if c.Collect && c.DatabaseURL == "" {
		return fmt.Errorf("collect needs database_url")
	}
	if c.CollectEvery <= 0 {
		return fmt.Errorf("collect_every must be positive")
	}
	return nil
}
