// Package config loads blogd configuration from defaults, an optional file
// and BLOGD_ environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Alp4ka/keypager"
)

const EnvPrefix = "BLOGD"

type Config struct {
	HTTP       HTTPConfig           `mapstructure:"http"`
	Database   DatabaseConfig       `mapstructure:"database"`
	Log        LogConfig            `mapstructure:"log"`
	Pagination keypager.Config      `mapstructure:"pagination"`
	Token      keypager.CodecConfig `mapstructure:"token"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	// Driver is one of "sqlite", "postgres" or "mysql".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	// AutoMigrate creates or updates the tables on startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			DSN:         "file:blogd.db?cache=shared",
			AutoMigrate: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Pagination: keypager.DefaultConfig(),
		Token: keypager.CodecConfig{
			Mode: keypager.CodecModeCBC,
		},
	}
}

// Load reads the configuration. configFile may be empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override keys
// absent from the file.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("http.addr", d.HTTP.Addr)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.auto_migrate", d.Database.AutoMigrate)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("pagination.default_size", d.Pagination.DefaultSize)
	v.SetDefault("pagination.max_size", d.Pagination.MaxSize)
	v.SetDefault("pagination.strict_sort_columns", d.Pagination.StrictSortColumns)

	v.SetDefault("token.mode", string(d.Token.Mode))
	v.SetDefault("token.key", d.Token.Key)
	v.SetDefault("token.iv", d.Token.IV)
}

func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}

	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be one of sqlite, postgres, mysql, got '%s'", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error, got '%s'", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got '%s'", c.Log.Format))
	}

	if c.Pagination.DefaultSize <= 0 || c.Pagination.MaxSize <= 0 {
		errs = append(errs, errors.New("pagination sizes must be positive"))
	} else if c.Pagination.DefaultSize > c.Pagination.MaxSize {
		errs = append(errs, errors.New("pagination.default_size must not exceed pagination.max_size"))
	}

	switch c.Token.Mode {
	case keypager.CodecModeCBC, keypager.CodecModeSealed:
	default:
		errs = append(errs, fmt.Errorf("token.mode must be cbc or sealed, got '%s'", c.Token.Mode))
	}

	return errors.Join(errs...)
}
