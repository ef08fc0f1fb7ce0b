// Package config reads the service configuration from flags and environment.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config holds the invoicing service configuration. Environment variables win
// over command-line flags.
type Config struct {
	RunAddress           string `env:"RUN_ADDRESS"`
	DatabaseURI          string `env:"DATABASE_URI"`
	RatesProviderAddress string `env:"RATES_PROVIDER_ADDRESS"`
	UploadDir            string `env:"UPLOAD_DIR"`
	JWTSecret            string `env:"JWT_SECRET"`
	AllowedOrigins       string `env:"ALLOWED_ORIGINS"`
	MaxUploadBytes       int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

// Parse reads configuration from command-line flags and environment variables.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envRatesAddress := cfg.RatesProviderAddress
	envUploadDir := cfg.UploadDir

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RatesProviderAddress, "r", "", "currency rate provider address")
	flag.StringVar(&cfg.UploadDir, "u", "", "directory for invoice attachments")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envRatesAddress != "" {
		cfg.RatesProviderAddress = envRatesAddress
	}
	if envUploadDir != "" {
		cfg.UploadDir = envUploadDir
	}

	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "invoicing-secret"
	}

	return cfg, nil
}
