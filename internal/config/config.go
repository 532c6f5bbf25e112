package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	// StoreBackend selects the session/progress persistence: memory,
	// file or redis.
	StoreBackend string
	StoreDir     string
	RedisURL     string

	// DatabasePath is the sqlite file for the attempt history archive.
	DatabasePath string

	// ContentDir holds assessment definition files served by the API.
	ContentDir string

	TimedMode bool
	AutoSave  bool

	Events EventConfig
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		StoreBackend: getEnv("STORE_BACKEND", "file"),
		StoreDir:     getEnv("STORE_DIR", "./data/sessions"),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		DatabasePath: getEnv("DATABASE_PATH", "./data/history.db"),
		ContentDir:   getEnv("CONTENT_DIR", "./content"),
		TimedMode:    getEnvBool("TIMED_MODE", false),
		AutoSave:     getEnvBool("AUTO_SAVE", true),
		Events: EventConfig{
			Enabled:      getEnvBool("EVENTS_ENABLED", true),
			Publisher:    getEnv("EVENTS_PUBLISHER", "channel"),
			KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
			EventTopic:   getEnv("EVENT_TOPIC", "assessment-events"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
