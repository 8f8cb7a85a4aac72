// Package config resolves locallink settings from flags, environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	appName = "locallink"

	KeyDB                = "db"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
	KeyExcludeBookmarked = "recommend.exclude_bookmarked"
	KeyStrategy          = "recommend.strategy"
	KeyInteractionLog    = "signals.interaction_log_size"

	DefaultInteractionLogSize = 200
)

// Config is the resolved application configuration.
type Config struct {
	DBPath             string
	LogLevel           string
	LogFormat          string
	Strategy           string
	ExcludeBookmarked  bool
	InteractionLogSize int
}

// Dir returns the per-user configuration directory (e.g. ~/.config/locallink).
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, appName)
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDB, filepath.Join(Dir(), appName+".db"))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyStrategy, "reviews")
	v.SetDefault(KeyExcludeBookmarked, false)
	v.SetDefault(KeyInteractionLog, DefaultInteractionLogSize)
}

// ReadFile wires environment variables (LOCALLINK_DB, LOCALLINK_LOG_LEVEL,
// ...) and reads the config file. An explicit path must exist; the default
// <Dir>/config.yaml is optional.
func ReadFile(v *viper.Viper, path string) error {
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load resolves a Config from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		DBPath:             expandPath(v.GetString(KeyDB)),
		LogLevel:           v.GetString(KeyLogLevel),
		LogFormat:          v.GetString(KeyLogFormat),
		Strategy:           v.GetString(KeyStrategy),
		ExcludeBookmarked:  v.GetBool(KeyExcludeBookmarked),
		InteractionLogSize: v.GetInt(KeyInteractionLog),
	}
	return cfg, cfg.Validate()
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("%s must not be empty", KeyDB)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%s must be console or json, got %q", KeyLogFormat, c.LogFormat)
	}
	if c.InteractionLogSize < 1 {
		return fmt.Errorf("%s must be positive, got %d", KeyInteractionLog, c.InteractionLogSize)
	}
	return nil
}

// expandPath expands a leading ~ and environment variables.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}
