package config

import (
	"os"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	SessionSecret string
	GinMode       string

	// BPM engine (Bonita) connection. The technical account is used for every
	// engine call; actor identity travels inside the submitted forms.
	BonitaURL      string
	BonitaUsername string
	BonitaPassword string

	// Workflow process names, matched exactly against the engine.
	ProjectProcessName string
	ControlProcessName string

	OpenAIAPIKey string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "reliefhub"),
		DBPassword: getEnv("DB_PASSWORD", "reliefhub"),
		DBName:     getEnv("DB_NAME", "reliefhub"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:       getEnv("GIN_MODE", "debug"),

		BonitaURL:      getEnv("BONITA_URL", "http://localhost:8080/bonita"),
		BonitaUsername: getEnv("BONITA_USERNAME", "walter.bates"),
		BonitaPassword: getEnv("BONITA_PASSWORD", "bpm"),

		ProjectProcessName: getEnv("PROJECT_PROCESS_NAME", "Proceso de gestion de proyecto"),
		ControlProcessName: getEnv("CONTROL_PROCESS_NAME", "Proceso de control sobre proyecto"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
