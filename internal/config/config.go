package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	// WebhookSecret is the shared secret the upstream CRVS notifier signs
	// deliveries with.
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET"`

	// AdminJWTSecret guards the delivery-log admin endpoints. When empty
	// the admin surface is not mounted.
	AdminJWTSecret string `mapstructure:"ADMIN_JWT_SECRET"`

	// SearchURL enables the post-commit person-index refresh when set.
	SearchURL      string `mapstructure:"SEARCH_URL"`
	SearchIndex    string `mapstructure:"SEARCH_INDEX"`
	SearchUsername string `mapstructure:"SEARCH_USERNAME"`
	SearchPassword string `mapstructure:"SEARCH_PASSWORD"`
	SearchInsecure bool   `mapstructure:"SEARCH_INSECURE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "9999")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("SEARCH_INDEX", "persons")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("WEBHOOK_SECRET")
	v.BindEnv("ADMIN_JWT_SECRET")
	v.BindEnv("SEARCH_URL")
	v.BindEnv("SEARCH_INDEX")
	v.BindEnv("SEARCH_USERNAME")
	v.BindEnv("SEARCH_PASSWORD")
	v.BindEnv("SEARCH_INSECURE")

	// Try reading .env, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. An unset webhook
// secret would accept unsigned deliveries, so it is always required.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("WEBHOOK_SECRET is required")
	}
	if !c.IsDev() && c.AdminJWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is required outside development")
	}
	return nil
}
