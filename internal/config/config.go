package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Clinic calendar
	ClinicTimezone     string
	SlotLockingEnabled bool
	SlotLockTTL        time.Duration

	// Multi-step intake
	IntakeTTL               time.Duration
	IntakeCollectGender     bool
	IntakeCollectDate       bool
	IntakeCollectTime       bool
	IntakeProvisionAccounts bool

	// Razorpay
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	PaymentCurrency       string
	PaymentTestMode       bool

	// Email
	EmailProvider    string
	SendGridAPIKey   string
	EmailFromAddress string
	EmailFromName    string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Prescription uploads. UploadBucket wins over UploadDir when both are set.
	UploadBucket string
	UploadDir    string

	JWTSecret      string
	AdminJWTSecret string
	AccessTokenTTL time.Duration

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	ReminderCron string

	// Fallbacks used when the settings tables have no row yet.
	SiteName           string
	ContactEmail       string
	ContactPhone       string
	AdminEmail         string
	ConsultationFee    string
	BookingAdvanceDays int
	BookingCancelHours int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		ClinicTimezone:     getEnv("CLINIC_TIMEZONE", "Asia/Kolkata"),
		SlotLockingEnabled: getEnvAsBool("SLOT_LOCKING_ENABLED", false),
		SlotLockTTL:        getEnvAsDuration("SLOT_LOCK_TTL", 10*time.Second),

		IntakeTTL:               getEnvAsDuration("INTAKE_TTL", 30*time.Minute),
		IntakeCollectGender:     getEnvAsBool("INTAKE_COLLECT_GENDER", true),
		IntakeCollectDate:       getEnvAsBool("INTAKE_COLLECT_DATE", true),
		IntakeCollectTime:       getEnvAsBool("INTAKE_COLLECT_TIME", true),
		IntakeProvisionAccounts: getEnvAsBool("INTAKE_PROVISION_ACCOUNTS", false),

		RazorpayKeyID:         getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayWebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
		PaymentCurrency:       strings.ToUpper(getEnv("PAYMENT_CURRENCY", "INR")),
		PaymentTestMode:       getEnvAsBool("PAYMENT_TEST_MODE", true),

		EmailProvider:    strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Pratap Bag Healthcare"),

		AWSRegion:           getEnv("AWS_REGION", "ap-south-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		UploadBucket: getEnv("UPLOAD_BUCKET", ""),
		UploadDir:    getEnv("UPLOAD_DIR", "uploads"),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		AccessTokenTTL: getEnvAsDuration("ACCESS_TOKEN_TTL", 24*time.Hour),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		ReminderCron: getEnv("REMINDER_CRON", "0 9 * * *"),

		SiteName:           getEnv("SITE_NAME", "Pratap Bag Healthcare"),
		ContactEmail:       getEnv("CONTACT_EMAIL", ""),
		ContactPhone:       getEnv("CONTACT_PHONE", ""),
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		ConsultationFee:    getEnv("CONSULTATION_FEE", "200.00"),
		BookingAdvanceDays: getEnvAsInt("BOOKING_ADVANCE_DAYS", 30),
		BookingCancelHours: getEnvAsInt("BOOKING_CANCEL_HOURS", 24),
	}
}

// Location resolves ClinicTimezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	if c == nil || c.ClinicTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
