package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Backend    BackendConfig
	Credential CredentialConfig
	Workflow   WorkflowConfig
}

type AppConfig struct {
	Environment        string
	LogFilePath        string
	BridgePort         string
	CorsAllowedOrigins string
	NatsURL            string
	NatsEnabled        bool
	RedisURL           string
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type CredentialConfig struct {
	Store   string // "memory" or "redis"
	Profile string // key namespace for the redis store
}

type WorkflowConfig struct {
	ResetReassertDelay    time.Duration
	PredictionHorizonDays int
	HistoryLimit          int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "forecast-client.log"),
			BridgePort:         getEnv("BRIDGE_PORT", "3100"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			NatsEnabled:        getEnv("NATS_ENABLED", "false") == "true",
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8000"),
			Timeout: getEnvAsDuration("BACKEND_TIMEOUT", 60*time.Second),
		},
		Credential: CredentialConfig{
			Store:   getEnv("CREDENTIAL_STORE", "memory"),
			Profile: getEnv("CREDENTIAL_PROFILE", "default"),
		},
		Workflow: WorkflowConfig{
			ResetReassertDelay:    getEnvAsDuration("RESET_REASSERT_DELAY", 100*time.Millisecond),
			PredictionHorizonDays: getEnvAsInt("PREDICTION_HORIZON_DAYS", 7),
			HistoryLimit:          getEnvAsInt("HISTORY_LIMIT", 10),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
