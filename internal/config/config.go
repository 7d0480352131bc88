package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Secrets (from .env)
	FXAPIKey        string
	LLMAPIKey       string
	WebhookURL      string
	BotName         string
	APIKey          string
	CORSAllowOrigin string

	// Database
	DBDriver   string // "postgres" or "sqlite"
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	SQLitePath string

	// API
	APIPort int

	// Market data
	FXAPIBaseURL         string
	MarketSymbol         string
	MarketCandleInterval string
	MarketCandleCount    int

	// Decision oracle
	OracleProvider string // "rules" or "llm"
	LLMBaseURL     string
	LLMModel       string

	// Cycle timing
	CycleInterval   time.Duration
	SnapshotTimeout time.Duration
	OracleTimeout   time.Duration
	WriteTimeout    time.Duration

	// Instrument
	PipMultiplier           float64
	TradingDayCutoffHourUTC int

	// Logging
	LogLevel      string
	LogOutput     string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Secrets
		FXAPIKey:        envStr("FXAPI_KEY", ""),
		LLMAPIKey:       envStr("LLM_API_KEY", ""),
		WebhookURL:      envStr("WEBHOOK_URL", ""),
		BotName:         envStr("BOT_NAME", "BullionaireBot"),
		APIKey:          envStr("API_KEY", ""),
		CORSAllowOrigin: envStr("CORS_ALLOW_ORIGIN", "*"),

		// Database
		DBDriver:   strings.ToLower(envStr("DB_DRIVER", "postgres")),
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "bullionaire"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),
		SQLitePath: envStr("SQLITE_PATH", "data/bullionaire.db"),

		APIPort: envInt("API_PORT", 3001),

		// Market data
		FXAPIBaseURL:         envStr("FXAPI_BASE_URL", "https://api.fxapi.com/v1"),
		MarketSymbol:         envStr("MARKET_SYMBOL", "XAUUSD"),
		MarketCandleInterval: envStr("MARKET_CANDLE_INTERVAL", "1min"),
		MarketCandleCount:    envInt("MARKET_CANDLE_COUNT", 100),

		// Oracle
		OracleProvider: strings.ToLower(envStr("ORACLE_PROVIDER", "rules")),
		LLMBaseURL:     envStr("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:       envStr("LLM_MODEL", "gpt-4o-mini"),

		// Timing
		CycleInterval:   envSeconds("CYCLE_INTERVAL_SECONDS", 15),
		SnapshotTimeout: envSeconds("SNAPSHOT_TIMEOUT_SECONDS", 10),
		OracleTimeout:   envSeconds("ORACLE_TIMEOUT_SECONDS", 60),
		WriteTimeout:    envSeconds("WRITE_TIMEOUT_SECONDS", 5),

		// Instrument
		PipMultiplier:           envFloat("PIP_MULTIPLIER", 100),
		TradingDayCutoffHourUTC: envInt("TRADING_DAY_CUTOFF_HOUR_UTC", 22),

		// Logging
		LogLevel:      envStr("LOG_LEVEL", "info"),
		LogOutput:     envStr("LOG_OUTPUT", "console"),
		LogFile:       envStr("LOG_FILE", "logs/bullionaire.log"),
		LogMaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: envInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 14),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	switch c.DBDriver {
	case "postgres":
		if c.DBUser == "" {
			errs = append(errs, "DB_USER is required for the postgres driver")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			errs = append(errs, "SQLITE_PATH is required for the sqlite driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER %q is not supported (postgres|sqlite)", c.DBDriver))
	}

	switch c.OracleProvider {
	case "rules":
	case "llm":
		if c.LLMAPIKey == "" {
			errs = append(errs, "LLM_API_KEY is required when ORACLE_PROVIDER=llm")
		}
	default:
		errs = append(errs, fmt.Sprintf("ORACLE_PROVIDER %q is not supported (rules|llm)", c.OracleProvider))
	}

	if c.CycleInterval <= 0 {
		errs = append(errs, "CYCLE_INTERVAL_SECONDS must be positive")
	}
	if c.PipMultiplier <= 0 {
		errs = append(errs, "PIP_MULTIPLIER must be positive")
	}
	if c.TradingDayCutoffHourUTC < 0 || c.TradingDayCutoffHourUTC > 23 {
		errs = append(errs, "TRADING_DAY_CUTOFF_HOUR_UTC must be between 0 and 23")
	}

	if c.FXAPIKey == "" {
		fmt.Println("[WARN] FXAPI_KEY not set, market snapshots will use synthetic fallback data")
	}
	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set, REST API has no authentication")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== Bullionaire Trading Bot Configuration ===")
	fmt.Printf("Symbol: %s\n", c.MarketSymbol)
	fmt.Printf("Cycle Interval: %s\n", c.CycleInterval)
	fmt.Printf("Pip Multiplier: %.0f\n", c.PipMultiplier)
	fmt.Printf("Trading Day Cutoff: %02d:00 UTC\n", c.TradingDayCutoffHourUTC)
	fmt.Println("--------------------------------------")
	fmt.Printf("Storage: %s\n", c.DBDriver)
	if c.DBDriver == "sqlite" {
		fmt.Printf("  Path: %s\n", c.SQLitePath)
	} else {
		fmt.Printf("  Host: %s:%d/%s\n", c.DBHost, c.DBPort, c.DBName)
	}
	fmt.Println("--------------------------------------")
	fmt.Printf("Oracle: %s\n", c.OracleProvider)
	if c.OracleProvider == "llm" {
		fmt.Printf("  Model: %s (%s)\n", c.LLMModel, c.LLMBaseURL)
	}
	fmt.Printf("  Timeout: %s\n", c.OracleTimeout)
	fmt.Printf("Market Data: %s\n", boolLabel(c.FXAPIKey != "", "FxAPI configured", "not set (fallback mode)"))
	fmt.Printf("Notifications: %s\n", boolLabel(c.WebhookURL != "", "webhook", "console only"))
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envSeconds(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Second
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
