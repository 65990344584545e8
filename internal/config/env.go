package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

type Config struct {
	// Generative backend
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float64

	// Parser strategy
	DeterministicOnly   bool
	PreferDeterministic bool
	FallbackEnabled     bool
	ConfidenceThreshold float64
	ParserConfigFile    string

	// Calendar store
	GoogleCredentialsFile string
	GoogleTokenFile       string

	// Service
	DBPath   string
	HTTPPort int
	Timezone string
}

func LoadFromEnv() *Config {
	return &Config{
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnvOrDefault("DIMMI_GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiTemperature: getEnvAsFloatOrDefault("DIMMI_GEMINI_TEMPERATURE", 0.15),

		DeterministicOnly:   getEnvAsBoolOrDefault("DIMMI_DETERMINISTIC_ONLY", false),
		PreferDeterministic: getEnvAsBoolOrDefault("DIMMI_PREFER_DETERMINISTIC", false),
		FallbackEnabled:     getEnvAsBoolOrDefault("DIMMI_FALLBACK_ENABLED", true),
		ConfidenceThreshold: getEnvAsFloatOrDefault("DIMMI_CONFIDENCE_THRESHOLD", 0.6),
		ParserConfigFile:    getEnvOrDefault("DIMMI_PARSER_CONFIG", "./parser_config.json"),

		GoogleCredentialsFile: getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", "./credentials.json"),
		GoogleTokenFile:       getEnvOrDefault("GOOGLE_TOKEN_FILE", "./token.json"),

		DBPath:   getEnvOrDefault("DIMMI_DB_PATH", "./dimmi.db"),
		HTTPPort: getEnvAsIntOrDefault("DIMMI_HTTP_PORT", 8080),
		Timezone: getEnvOrDefault("DIMMI_TIMEZONE", "Europe/Rome"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
