package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port          int
	JWTSecret     string
	DatabaseURL   string
	EncryptionKey string
	CORSOrigins   []string
	AdminEmail    string
	AdminPassword string

	// Payment provider
	PaymentAPIKey        string
	PaymentWebhookSecret string

	// Text-generation provider
	OpenAIAPIKey string
	OpenAIModel  string

	// Base URL of the frontend, for checkout redirect targets.
	AppURL string
}

// Load reads configuration from the environment. Secrets that guard a
// trust boundary are required; everything else has a default.
func Load() (*Config, error) {
	port, err := strconv.Atoi(envOr("PORT", "4001"))
	if err != nil {
		return nil, fmt.Errorf("PORT must be a number: %w", err)
	}

	jwtSecret, err := requireEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	dbURL, err := requireEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	encKey, err := requireEnv("ENCRYPTION_KEY")
	if err != nil {
		return nil, err
	}
	if len(encKey) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes, got %d", len(encKey))
	}

	// The webhook secret is the sole trust boundary for inbound billing
	// events; refusing to start without it beats silently accepting
	// unverifiable events.
	webhookSecret, err := requireEnv("PAYMENT_WEBHOOK_SECRET")
	if err != nil {
		return nil, err
	}

	var origins []string
	for _, o := range strings.Split(envOr("CORS_ORIGINS", "http://localhost:3000,https://civicgraph.app"), ",") {
		origins = append(origins, strings.TrimSpace(o))
	}

	return &Config{
		Port:                 port,
		JWTSecret:            jwtSecret,
		DatabaseURL:          dbURL,
		EncryptionKey:        encKey,
		CORSOrigins:          origins,
		AdminEmail:           envOr("ADMIN_EMAIL", "admin@civicgraph.app"),
		AdminPassword:        envOr("ADMIN_PASSWORD", "admin123"),
		PaymentAPIKey:        os.Getenv("PAYMENT_API_KEY"),
		PaymentWebhookSecret: webhookSecret,
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:          envOr("OPENAI_MODEL", "gpt-4-turbo"),
		AppURL:               envOr("APP_URL", "http://localhost:3000"),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}
