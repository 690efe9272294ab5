package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Treasury operator endpoints
	TreasuryAPIKey string

	// Collection constructor arguments
	CollectionName   string
	CollectionSymbol string
	CollectionOwner  string
	BaseURI          string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		TreasuryAPIKey: getEnv("TREASURY_API_KEY", ""),

		CollectionName:   getEnv("COLLECTION_NAME", "BrandNFT"),
		CollectionSymbol: getEnv("COLLECTION_SYMBOL", "BRDF"),
		CollectionOwner:  getEnv("COLLECTION_OWNER", ""),
		BaseURI:          getEnv("BASE_URI", ""),
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "15m")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 15m\n", expStr)
		expDur = 15 * time.Minute
	}
	config.JWTExpirationDur = expDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
