package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	Environment string

	FirestoreProject string
	StorageBucket    string

	JWTSecret       string
	JWTExpiry       time.Duration
	CookieExpiry    time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string

	SMSAPIURL     string
	SMSAccountSID string
	SMSAuthToken  string
	SMSFromNumber string

	PaymentAPIURL        string
	PaymentServerKey     string
	PaymentWebhookSecret string

	// Deadline imposed on outbound email/SMS/charge calls; a timeout is a
	// delivery failure.
	OutboundTimeout time.Duration

	BaseURL string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		FirestoreProject: getEnv("GOOGLE_CLOUD_PROJECT", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", "motomarket-media"),

		JWTSecret:    getEnv("JWT_SECRET", "secret_key_development"),
		JWTExpiry:    getEnvAsDuration("JWT_EXPIRY", 30*24*time.Hour),
		CookieExpiry: getEnvAsDuration("JWT_COOKIE_EXPIRY", 30*24*time.Hour),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@motomarket.com.br"),
		FromName:     getEnv("FROM_NAME", "MotoMarket"),

		SMSAPIURL:     getEnv("SMS_API_URL", "https://api.twilio.com/2010-04-01"),
		SMSAccountSID: getEnv("SMS_ACCOUNT_SID", ""),
		SMSAuthToken:  getEnv("SMS_AUTH_TOKEN", ""),
		SMSFromNumber: getEnv("SMS_FROM_NUMBER", ""),

		PaymentAPIURL:        getEnv("PAYMENT_API_URL", "https://api.payment-provider.com/v1"),
		PaymentServerKey:     getEnv("PAYMENT_SERVER_KEY", ""),
		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),

		OutboundTimeout: getEnvAsDuration("OUTBOUND_TIMEOUT", 10*time.Second),

		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
