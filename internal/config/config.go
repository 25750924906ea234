package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config agrupa la configuración necesaria para correr la aplicación.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	RedisURL    string `envconfig:"REDIS_URL"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Zona horaria de la tienda: define happy hour y fin de semana.
	StoreTimezone    string        `envconfig:"STORE_TIMEZONE" default:"UTC"`
	PricingRulesFile string        `envconfig:"PRICING_RULES_FILE"`
	UndoWindow       time.Duration `envconfig:"UNDO_WINDOW" default:"10s"`
	CartTTL          time.Duration `envconfig:"CART_TTL" default:"24h"`
	AutoMigrate      bool          `envconfig:"AUTO_MIGRATE" default:"false"`
}

// Location resuelve StoreTimezone.
func (config Config) Location() (*time.Location, error) {
	return time.LoadLocation(config.StoreTimezone)
}

// Load lee variables de entorno (y un .env si existe) y valida lo mínimo indispensable.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	config.Port = strings.TrimSpace(config.Port)
	if config.Port == "" {
		config.Port = "8080"
	}
	// Normalizamos por si alguien manda ":8080"
	config.Port = strings.TrimPrefix(config.Port, ":")

	config.DatabaseURL = strings.TrimSpace(config.DatabaseURL)
	if config.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing required env var: DATABASE_URL")
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)

	if _, err := config.Location(); err != nil {
		return Config{}, fmt.Errorf("invalid STORE_TIMEZONE: %w", err)
	}
	if config.UndoWindow <= 0 {
		return Config{}, fmt.Errorf("UNDO_WINDOW must be positive")
	}

	return config, nil
}
