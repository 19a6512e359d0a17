package config

import (
	"os"
	"strconv"
	"strings"
)

// AppConfig is the process configuration read from the environment.
type AppConfig struct {
	Env         string
	Port        string
	DBDriver    string
	SQLitePath  string
	DBDebug     bool
	RabbitURL   string
	LogLevel    string
	SeedDefault bool
}

func (c AppConfig) IsProduction() bool { return c.Env == "production" }

func Load() AppConfig {
	rabbit := strings.TrimSpace(os.Getenv("RABBITMQ_URL"))
	if rabbit == "" {
		rabbit = strings.TrimSpace(os.Getenv("AMQP_URL"))
	}
	return AppConfig{
		Env:         envOrDefault("APP_ENV", "development"),
		Port:        envOrDefault("PORT", "8080"),
		DBDriver:    strings.ToLower(envOrDefault("DB_DRIVER", "mysql")),
		SQLitePath:  envOrDefault("SQLITE_PATH", "hospitality.db"),
		DBDebug:     envBool("DB_DEBUG", false),
		RabbitURL:   rabbit,
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		SeedDefault: envBool("SEED_DEFAULTS", true),
	}
}

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}
