package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration.
type Config struct {
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	DBDriver    string
	DatabaseURL string
	SQLitePath  string

	// Redis is optional; an empty RedisAddr disables the account code cache.
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	AccountCacheTTL time.Duration

	LedgerMaxRetries   int
	LedgerRetryBackoff time.Duration

	ChartOfAccountsFile string
	RateLimit           string
	CORSAllowedOrigins  []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("DB_DRIVER", DriverPostgres)
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("SQLITE_PATH", "ledger.db")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("ACCOUNT_CACHE_TTL", "24h")
	viper.SetDefault("LEDGER_MAX_RETRIES", 3)
	viper.SetDefault("LEDGER_RETRY_BACKOFF", "50ms")
	viper.SetDefault("CHART_OF_ACCOUNTS_FILE", "")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	viper.AutomaticEnv()

	cfg := &Config{
		Port:                viper.GetString("PORT"),
		IsProduction:        viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:       viper.GetBool("ENABLE_DB_CHECK"),
		DBDriver:            strings.ToLower(viper.GetString("DB_DRIVER")),
		DatabaseURL:         viper.GetString("PGSQL_URL"),
		SQLitePath:          viper.GetString("SQLITE_PATH"),
		RedisAddr:           viper.GetString("REDIS_ADDR"),
		RedisPassword:       viper.GetString("REDIS_PASSWORD"),
		RedisDB:             viper.GetInt("REDIS_DB"),
		LedgerMaxRetries:    viper.GetInt("LEDGER_MAX_RETRIES"),
		ChartOfAccountsFile: viper.GetString("CHART_OF_ACCOUNTS_FILE"),
		RateLimit:           viper.GetString("RATE_LIMIT"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case DriverSQLite:
	default:
		log.Printf("Warning: Unknown DB_DRIVER ('%s'). Defaulting to %s.\n", cfg.DBDriver, DriverPostgres)
		cfg.DBDriver = DriverPostgres
	}

	cfg.AccountCacheTTL = parseDuration("ACCOUNT_CACHE_TTL", 24*time.Hour)
	cfg.LedgerRetryBackoff = parseDuration("LEDGER_RETRY_BACKOFF", 50*time.Millisecond)

	if cfg.LedgerMaxRetries < 0 {
		log.Printf("Warning: Negative LEDGER_MAX_RETRIES (%d). Defaulting to 0.\n", cfg.LedgerMaxRetries)
		cfg.LedgerMaxRetries = 0
	}

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		}
		return fallback
	}
	return d
}
