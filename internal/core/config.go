package core

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	LogLevel       string        // debug, info, warn, error
	DataDir        string        // Suite repository root
	TablesPath     string        // Optional YAML override for generator tables
	Addr           string        // HTTP listen address
	SuiteCacheSize int           // Recently generated suites kept in memory
	Persist        bool          // Save suites generated through the API
	WebhookTimeout time.Duration // Outbound webhook delivery timeout
	AllowedOrigins []string      // Browser origins admitted by the API
}

const defaultAllowedOrigins = "http://localhost:5173,http://127.0.0.1:5173"

// LoadConfig loads .env (when present) and then environment variables.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	logLevel := getEnvOrDefault("LOG_LEVEL", "info")
	if os.Getenv("DEBUG") == "1" {
		logLevel = "debug"
	}

	cacheSize, err := strconv.Atoi(getEnvOrDefault("QAKIT_SUITE_CACHE", "256"))
	if err != nil || cacheSize <= 0 {
		return nil, &ValidationError{Field: "QAKIT_SUITE_CACHE", Message: "must be a positive integer", Err: err}
	}

	persist, err := strconv.ParseBool(getEnvOrDefault("QAKIT_PERSIST", "true"))
	if err != nil {
		return nil, &ValidationError{Field: "QAKIT_PERSIST", Message: "must be a boolean", Err: err}
	}

	timeout, err := time.ParseDuration(getEnvOrDefault("QAKIT_WEBHOOK_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		return nil, &ValidationError{Field: "QAKIT_WEBHOOK_TIMEOUT", Message: "must be a positive duration", Err: err}
	}

	return &Config{
		LogLevel:       strings.ToLower(logLevel),
		DataDir:        getEnvOrDefault("QAKIT_DATA_DIR", ".qakit"),
		TablesPath:     os.Getenv("QAKIT_TABLES"),
		Addr:           listenAddr(getEnvOrDefault("PORT", ":8088")),
		SuiteCacheSize: cacheSize,
		Persist:        persist,
		WebhookTimeout: timeout,
		AllowedOrigins: splitList(getEnvOrDefault("QAKIT_ALLOWED_ORIGINS", defaultAllowedOrigins)),
	}, nil
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// listenAddr accepts "8088" or ":8088".
func listenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// splitList splits a comma separated value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
