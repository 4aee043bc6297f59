package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string
	Environment string
	JWTSecret   string

	AnthropicKey   string
	AnthropicModel string

	SlackToken         string
	SlackSigningSecret string
	SlackPort          string

	CORSOrigins []string

	LearningThreshold float64
	TopPostsMinScore  float64
	TopPostsLimit     int
}

// LoadConfig loads configuration from environment variables
// It first tries to load from .env file, then falls back to system environment variables
func LoadConfig() (*Config, error) {
	// a missing .env file is fine
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		AnthropicKey:       getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:     getEnv("ANTHROPIC_MODEL", ""),
		SlackToken:         getEnv("SLACK_BOT_TOKEN", ""),
		SlackSigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),
		SlackPort:          getEnv("SLACK_PORT", "3000"),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
	}

	var err error
	if cfg.LearningThreshold, err = getFloat("LEARNING_THRESHOLD", 0.6); err != nil {
		return nil, err
	}
	if cfg.TopPostsMinScore, err = getFloat("TOP_POSTS_MIN_SCORE", 0.7); err != nil {
		return nil, err
	}
	if cfg.TopPostsLimit, err = getInt("TOP_POSTS_LIMIT", 3); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SlackEnabled reports whether the Slack surface is configured
func (c *Config) SlackEnabled() bool {
	return c.SlackToken != "" && c.SlackSigningSecret != ""
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if (c.SlackToken == "") != (c.SlackSigningSecret == "") {
		return fmt.Errorf("SLACK_BOT_TOKEN and SLACK_SIGNING_SECRET must be set together")
	}
	if c.LearningThreshold < 0 || c.LearningThreshold > 1 {
		return fmt.Errorf("LEARNING_THRESHOLD must be within [0,1]")
	}
	if c.TopPostsMinScore < 0 || c.TopPostsMinScore > 1 {
		return fmt.Errorf("TOP_POSTS_MIN_SCORE must be within [0,1]")
	}
	if c.TopPostsLimit < 1 {
		return fmt.Errorf("TOP_POSTS_LIMIT must be positive")
	}
	return nil
}
