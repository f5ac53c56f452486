package config // package config loads application configuration from environment variables

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime configuration values.  Required settings are
// enforced by must(); everything else has a default suited to local
// development.
type Config struct {
	Env  string // application environment (dev, test, prod)
	Port string // HTTP port to listen on

	// Remote hotel backend.
	BackendURL     string        // base URL of the REST API, e.g. http://backend:8080/api
	BackendTimeout time.Duration // per-request timeout of the API client
	ServiceToken   string        // bearer token used by background reconciliation

	// Browser sessions.
	JWTSecret  string        // secret used to sign session JWTs
	SessionTTL time.Duration // lifetime of a session and its JWT

	// MySQL holds sessions, the submission journal and favorites.
	DBUser string
	DBPass string // may be empty
	DBHost string
	DBPort string
	DBName string

	RabbitURL string // AMQP broker; empty disables domain events
	LogDir    string // where the booking event log is written

	Booking BookingConfig
}

// BookingConfig tunes the checkout flow.
type BookingConfig struct {
	DraftTTL          time.Duration // how long an untouched draft survives in Redis
	MaxNights         int           // longest stay a single booking may cover
	VerifyDelay       time.Duration // simulated payment verification latency
	ReconcileAttempts int           // detail re-creation attempts before a booking is cancelled
	ReconcileEvery    time.Duration // period of the orphaned-booking sweep
}

// Load reads an optional .env file and then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("config: .env not loaded")
	}
	return Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", "8080"),
		BackendURL:     must("BACKEND_URL"),
		BackendTimeout: envDur("BACKEND_TIMEOUT", 10*time.Second),
		ServiceToken:   os.Getenv("BACKEND_SERVICE_TOKEN"),
		JWTSecret:      must("JWT_SECRET"),
		SessionTTL:     envDur("SESSION_TTL", 24*time.Hour),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         envStr("DB_PORT", "3306"),
		DBName:         must("DB_NAME"),
		RabbitURL:      rabbitURL(),
		LogDir:         envStr("LOG_DIR", "logs"),
		Booking: BookingConfig{
			DraftTTL:          envDur("DRAFT_TTL", 2*time.Hour),
			MaxNights:         envInt("BOOKING_MAX_NIGHTS", 30),
			VerifyDelay:       envDur("PAYMENT_VERIFY_DELAY", 1500*time.Millisecond),
			ReconcileAttempts: envInt("RECONCILE_ATTEMPTS", 5),
			ReconcileEvery:    envDur("RECONCILE_EVERY", time.Minute),
		},
	}
}

// rabbitURL honours both RABBITMQ_URL and the older AMQP_URL.
func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
