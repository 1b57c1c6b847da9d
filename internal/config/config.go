package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jask/pinlogin/internal/pinfield"
)

// Config holds application configuration.
type Config struct {
	Field    FieldConfig
	Verify   VerifyConfig
	Database DatabaseConfig
	Log      LogConfig
}

// FieldConfig mirrors the pin controller options.
type FieldConfig struct {
	Count           int    `mapstructure:"count" validate:"min=1,max=64"`
	Placeholder     string `mapstructure:"placeholder" validate:"len=1"`
	Autofocus       bool   `mapstructure:"autofocus"`
	MaskInput       bool   `mapstructure:"mask_input"`
	ResetOnComplete bool   `mapstructure:"reset_on_complete"`
}

// VerifyConfig selects what happens to a completed PIN.
type VerifyConfig struct {
	Account       string        `mapstructure:"account" validate:"required"`
	Issuer        string        `mapstructure:"issuer" validate:"required"`
	Period        uint          `mapstructure:"period"`
	Skew          uint          `mapstructure:"skew"`
	MaxFailures   int           `mapstructure:"max_failures" validate:"min=0"`
	Lockout       time.Duration `mapstructure:"lockout"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	QuitOnSuccess bool          `mapstructure:"quit_on_success"`
	SecretsDir    string        `mapstructure:"secrets_dir"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path       string        `mapstructure:"path" validate:"required"`
	Migrations string        `mapstructure:"migrations" validate:"required"`
	Retention  time.Duration `mapstructure:"retention" validate:"min=0"`
}

// LogConfig holds slog settings. An empty path disables logging.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

func defaults(v *viper.Viper) {
	home := os.Getenv("HOME")
	v.SetDefault("field.count", pinfield.DefaultFieldCount)
	v.SetDefault("field.placeholder", pinfield.DefaultPlaceholder)
	v.SetDefault("field.autofocus", true)
	v.SetDefault("field.mask_input", true)
	v.SetDefault("field.reset_on_complete", true)
	v.SetDefault("verify.account", os.Getenv("USER"))
	v.SetDefault("verify.issuer", "pinlogin")
	v.SetDefault("verify.period", 30)
	v.SetDefault("verify.skew", 1)
	v.SetDefault("verify.max_failures", 5)
	v.SetDefault("verify.lockout", "5m")
	v.SetDefault("verify.timeout", "3s")
	v.SetDefault("verify.quit_on_success", true)
	v.SetDefault("verify.secrets_dir", "")
	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "pinlogin", "attempts.db"))
	v.SetDefault("database.migrations", "internal/database/migrations")
	v.SetDefault("database.retention", "720h")
	v.SetDefault("log.path", filepath.Join(home, ".local", "state", "pinlogin", "pinlogin.log"))
	v.SetDefault("log.level", "info")
}

// Load reads configuration from file and env. Env var overrides use prefix PINLOGIN_.
// path overrides PINLOGIN_CONFIG when non-empty.
func Load(path string) (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetConfigType("toml")

	if path == "" {
		path = os.Getenv("PINLOGIN_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "pinlogin"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PINLOGIN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// a missing default file is fine, an explicit or broken one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ControllerOptions maps the field section onto pin controller options.
// Handlers and logger are left for the host to fill.
func (c Config) ControllerOptions() pinfield.Options {
	return pinfield.Options{
		FieldCount:      c.Field.Count,
		Placeholder:     c.Field.Placeholder,
		Autofocus:       c.Field.Autofocus,
		MaskInput:       c.Field.MaskInput,
		ResetOnComplete: c.Field.ResetOnComplete,
	}
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(path string, cfg Config) error {
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "pinlogin", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("field.count", cfg.Field.Count)
	v.Set("field.placeholder", cfg.Field.Placeholder)
	v.Set("field.autofocus", cfg.Field.Autofocus)
	v.Set("field.mask_input", cfg.Field.MaskInput)
	v.Set("field.reset_on_complete", cfg.Field.ResetOnComplete)
	v.Set("verify.account", cfg.Verify.Account)
	v.Set("verify.issuer", cfg.Verify.Issuer)
	v.Set("verify.period", cfg.Verify.Period)
	v.Set("verify.skew", cfg.Verify.Skew)
	v.Set("verify.max_failures", cfg.Verify.MaxFailures)
	v.Set("verify.lockout", cfg.Verify.Lockout.String())
	v.Set("verify.timeout", cfg.Verify.Timeout.String())
	v.Set("verify.quit_on_success", cfg.Verify.QuitOnSuccess)
	v.Set("verify.secrets_dir", cfg.Verify.SecretsDir)
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.migrations", cfg.Database.Migrations)
	v.Set("database.retention", cfg.Database.Retention.String())
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
