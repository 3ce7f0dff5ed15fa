package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// M-Pesa Daraja gateway
	MpesaBaseURL        string
	MpesaConsumerKey    string
	MpesaConsumerSecret string
	MpesaShortcode      string
	MpesaPasskey        string
	MpesaCallbackURL    string
	MpesaTimeout        time.Duration

	// Shared secret the gateway must present on the callback webhook.
	WebhookSecret string

	// Payment reconciliation
	ReconcileSchedule string
	PaymentStaleAfter time.Duration
	PaymentFailAfter  time.Duration

	// Moderators granted by config in addition to the DB role.
	ModeratorEmails string

	// Server
	Port        string
	CORSOrigins string
}

// Load reads configuration from the environment (and an optional .env file in
// the working directory) via viper.
func Load() *Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // .env is optional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "campusfind")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_EXPIRY", "15m")
	v.SetDefault("JWT_REFRESH_EXPIRY", "168h")

	v.SetDefault("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke")
	v.SetDefault("MPESA_CONSUMER_KEY", "")
	v.SetDefault("MPESA_CONSUMER_SECRET", "")
	v.SetDefault("MPESA_SHORTCODE", "174379")
	v.SetDefault("MPESA_PASSKEY", "")
	v.SetDefault("MPESA_CALLBACK_URL", "")
	v.SetDefault("MPESA_TIMEOUT", "30s")

	v.SetDefault("WEBHOOK_SECRET", "")

	v.SetDefault("RECONCILE_SCHEDULE", "*/5 * * * *")
	v.SetDefault("PAYMENT_STALE_AFTER", "10m")
	v.SetDefault("PAYMENT_FAIL_AFTER", "2h")

	v.SetDefault("MODERATOR_EMAILS", "")

	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ORIGINS", "*")

	return &Config{
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTAccessExpiry:  v.GetDuration("JWT_ACCESS_EXPIRY"),
		JWTRefreshExpiry: v.GetDuration("JWT_REFRESH_EXPIRY"),

		MpesaBaseURL:        v.GetString("MPESA_BASE_URL"),
		MpesaConsumerKey:    v.GetString("MPESA_CONSUMER_KEY"),
		MpesaConsumerSecret: v.GetString("MPESA_CONSUMER_SECRET"),
		MpesaShortcode:      v.GetString("MPESA_SHORTCODE"),
		MpesaPasskey:        v.GetString("MPESA_PASSKEY"),
		MpesaCallbackURL:    v.GetString("MPESA_CALLBACK_URL"),
		MpesaTimeout:        v.GetDuration("MPESA_TIMEOUT"),

		WebhookSecret: v.GetString("WEBHOOK_SECRET"),

		ReconcileSchedule: v.GetString("RECONCILE_SCHEDULE"),
		PaymentStaleAfter: v.GetDuration("PAYMENT_STALE_AFTER"),
		PaymentFailAfter:  v.GetDuration("PAYMENT_FAIL_AFTER"),

		ModeratorEmails: v.GetString("MODERATOR_EMAILS"),

		Port:        v.GetString("PORT"),
		CORSOrigins: v.GetString("CORS_ORIGINS"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}
