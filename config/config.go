package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	DBPath string

	JWTSecret              string
	AccessTokenExpireHours int
	AccessTokenPepper      string

	// Redis cache for statistics. Empty addr falls back to the in-memory store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DemoUserID        string
	BaseCurrency      string
	PrimaryDataSource string

	// GitHub repository slug ("owner/repo") used for the public counters.
	GitHubRepository string
	GitHubAPIBaseURL string

	DataProviderBaseURL string

	// Feature flags. Each enabled flag adds a permission tag to the info payload.
	EnableFeatureBlog         bool
	EnableFeatureSocialLogin  bool
	EnableFeatureStatistics   bool
	EnableFeatureSubscription bool

	StripePublishableKey string
}

var AppConfig *Config

func LoadConfig() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	accessExpire, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_EXPIRE_HOURS", "24"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	// Required secrets (no defaults)
	jwtSecret := os.Getenv("JWT_SECRET")
	pepper := os.Getenv("ACCESS_TOKEN_PEPPER")

	AppConfig = &Config{
		Port:                   getEnv("PORT", "8080"),
		DBPath:                 getEnv("DB_PATH", "./data/folio-tracker.db"),
		JWTSecret:              jwtSecret,
		AccessTokenExpireHours: accessExpire,
		AccessTokenPepper:      pepper,

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		DemoUserID:        getEnv("DEMO_USER_ID", "demo-user"),
		BaseCurrency:      getEnv("BASE_CURRENCY", "USD"),
		PrimaryDataSource: getEnv("PRIMARY_DATA_SOURCE", "YAHOO"),

		GitHubRepository: getEnv("GITHUB_REPOSITORY", "folio-tracker/folio-tracker"),
		GitHubAPIBaseURL: getEnv("GITHUB_API_BASE_URL", "https://api.github.com"),

		DataProviderBaseURL: getEnv("DATA_PROVIDER_BASE_URL", "https://query1.finance.yahoo.com"),

		EnableFeatureBlog:         getEnvBool("ENABLE_FEATURE_BLOG", false),
		EnableFeatureSocialLogin:  getEnvBool("ENABLE_FEATURE_SOCIAL_LOGIN", false),
		EnableFeatureStatistics:   getEnvBool("ENABLE_FEATURE_STATISTICS", false),
		EnableFeatureSubscription: getEnvBool("ENABLE_FEATURE_SUBSCRIPTION", false),

		StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
	}

	// Validate critical security configuration
	if err := validateConfig(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
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

// validateConfig validates critical security configuration at startup
func validateConfig() error {
	if AppConfig.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}

	// Enforce minimum secret strength (at least 32 characters)
	if len(AppConfig.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long for security")
	}

	if AppConfig.AccessTokenPepper == "" {
		return fmt.Errorf("ACCESS_TOKEN_PEPPER is required but not set")
	}

	if AppConfig.EnableFeatureSubscription && AppConfig.StripePublishableKey == "" {
		return fmt.Errorf("STRIPE_PUBLISHABLE_KEY is required when the subscription feature is enabled")
	}

	return nil
}
