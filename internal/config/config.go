package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultKPIServer   = "cas-shared-default"
	DefaultKPICaslib   = "ModelPerformanceData"
	DefaultKPIRowLimit = 10000
)

type Config struct {
	Service ServiceConfig
	KPI     KPIConfig
	Logger  LoggerConfig
}

// ServiceConfig addresses the remote model-management service.
type ServiceConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// KPIConfig holds where the standard KPI table lives when a caller does not say.
type KPIConfig struct {
	Server   string
	Caslib   string
	RowLimit int
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("MODEL_SERVICE_URL", "http://localhost:8080")
	v.SetDefault("MODEL_SERVICE_TOKEN", "")
	v.SetDefault("MODEL_SERVICE_TIMEOUT", "30s")
	v.SetDefault("KPI_SERVER", DefaultKPIServer)
	v.SetDefault("KPI_CASLIB", DefaultKPICaslib)
	v.SetDefault("KPI_ROW_LIMIT", DefaultKPIRowLimit)
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	// Env
	v.AutomaticEnv()

	timeout, err := time.ParseDuration(v.GetString("MODEL_SERVICE_TIMEOUT"))
	if err != nil {
		timeout = 30 * time.Second
	}

	rowLimit := v.GetInt("KPI_ROW_LIMIT")
	if rowLimit <= 0 {
		rowLimit = DefaultKPIRowLimit
	}

	cfg := &Config{
		Service: ServiceConfig{
			URL:     v.GetString("MODEL_SERVICE_URL"),
			Token:   v.GetString("MODEL_SERVICE_TOKEN"),
			Timeout: timeout,
		},
		KPI: KPIConfig{
			Server:   v.GetString("KPI_SERVER"),
			Caslib:   v.GetString("KPI_CASLIB"),
			RowLimit: rowLimit,
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}
