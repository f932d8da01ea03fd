package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
	Logger    Logger    `mapstructure:"logger"`
	Bootstrap Bootstrap `mapstructure:"bootstrap"`
	Push      Push      `mapstructure:"push"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Bootstrap tunes the first-sync journal bootstrap heuristic: the journal's
// starting capital is overwritten only when the balance-derived estimate
// drifts from the stored value by more than the threshold, in account
// currency units.
type Bootstrap struct {
	CapitalDriftThreshold float64 `mapstructure:"capital_drift_threshold"`
}

// Push holds the configuration for the EA push client.
type Push struct {
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and environment
// variables still apply.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "journal.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("bootstrap.capital_drift_threshold", 100)
	viper.SetDefault("push.rate_limit", 5) // requests per second
	viper.SetDefault("push.rate_limit_burst", 2)

	err = viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
