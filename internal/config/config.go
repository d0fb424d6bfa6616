package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool

	OTLPEndpoint string

	Store StoreConfig

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	BootstrapAdminName     string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitCapacity     int
	RateLimitRefillPerMin int

	SessionTTLHours int

	ArchiveDir       string
	ExportDir        string
	ExportMaxAgeDays int

	SchedulerEnabled bool
}

type StoreConfig struct {
	Name    string
	Address string
	Phone   string
	Metrics StoreMetricsConfig
}

type StoreMetricsConfig struct {
	Enabled             bool
	Exporter            string
	Endpoint            string
	AuthToken           string
	PushIntervalMinutes int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "cakeraft"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,
		OTLPEndpoint:     getenv("OTLP_ENDPOINT", "localhost:4317"),
		Store: StoreConfig{
			Name:    getenv("STORE_NAME", "CakeRaft Bakery"),
			Address: getenv("STORE_ADDRESS", ""),
			Phone:   getenv("STORE_PHONE", ""),
			Metrics: StoreMetricsConfig{
				Enabled:             getenvBool("STORE_METRICS_ENABLED", true),
				Exporter:            strings.ToLower(getenv("STORE_METRICS_EXPORTER", "")),
				Endpoint:            strings.TrimSpace(getenv("STORE_METRICS_ENDPOINT", "")),
				AuthToken:           strings.TrimSpace(getenv("STORE_METRICS_AUTH_TOKEN", "")),
				PushIntervalMinutes: getenvInt("STORE_METRICS_PUSH_INTERVAL_MINUTES", 30),
			},
		},
		BootstrapAdminEmail:    strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_EMAIL", "admin@cakeraft.local")),
		BootstrapAdminPassword: getenv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		BootstrapAdminName:     getenv("BOOTSTRAP_ADMIN_NAME", "Store Admin"),
		DBType:                 getenv("DATABASE_TYPE", "postgres"),
		DBHost:                 getenv("DATABASE_HOST", "localhost"),
		DBPort:                 getenv("DATABASE_PORT", "5432"),
		DBName:                 getenv("DATABASE_NAME", "cakeraft"),
		DBUser:                 getenv("DATABASE_USER", "postgres"),
		DBPassword:             getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:              getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:          getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:          getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime:      getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime:      getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),
		RedisAddr:              strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:          getenv("REDIS_PASSWORD", ""),
		RedisDB:                getenvInt("REDIS_DB", 0),
		RateLimitCapacity:      getenvInt("RATE_LIMIT_CAPACITY", 10),
		RateLimitRefillPerMin:  getenvInt("RATE_LIMIT_REFILL_PER_MIN", 30),
		SessionTTLHours:        getenvInt("SESSION_TTL_HOURS", 168),
		ArchiveDir:             getenv("ARCHIVE_DIR", "data/archive"),
		ExportDir:              getenv("EXPORT_DIR", "data/export"),
		ExportMaxAgeDays:       getenvInt("EXPORT_MAX_AGE_DAYS", 90),
		SchedulerEnabled:       getenvBool("SCHEDULER_ENABLED", true),
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
