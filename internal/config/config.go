package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	LogLevel string

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

	// PercentEpsilon is the tolerance used when asserting that percentage
	// divisions sum up to 100.
	PercentEpsilon float64

	// CollectPlugins restricts which collect plugins the sync driver runs.
	// Empty means every registered plugin.
	CollectPlugins []string

	// SaveOnlyFirstDepthCosts skips persisting nested children of pricing
	// service cost trees.
	SaveOnlyFirstDepthCosts bool

	AcceptedCostsSyncType       string
	AcceptedCostsSyncRecipients []Recipient
}

// Recipient is a single accepted-costs publish target.
type Recipient struct {
	URL       string
	AuthToken string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppName:     getenv("APP_SERVICE", "scrooge"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "scrooge"),
		DBUser:            getenv("DATABASE_USER", "scrooge"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		PercentEpsilon:          getenvFloat("PERCENT_DIFF_EPSILON", 0.01),
		CollectPlugins:          getenvList("COLLECT_PLUGINS"),
		SaveOnlyFirstDepthCosts: getenvBool("SAVE_ONLY_FIRST_DEPTH_COSTS", false),

		AcceptedCostsSyncType:       getenv("ACCEPTED_COSTS_SYNC_TYPE", "acceptedTotalCosts"),
		AcceptedCostsSyncRecipients: parseRecipients(getenv("ACCEPTED_COSTS_SYNC_RECIPIENTS", "")),
	}
}

// parseRecipients parses "url=token,url=token" pairs. The split happens on
// the last "=" so URLs carrying a query string stay intact. Entries without
// a token are kept with an empty token.
func parseRecipients(raw string) []Recipient {
	var recipients []Recipient
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		url, token := entry, ""
		if i := strings.LastIndex(entry, "="); i >= 0 {
			url, token = entry[:i], entry[i+1:]
		}
		recipients = append(recipients, Recipient{
			URL:       strings.TrimSpace(url),
			AuthToken: strings.TrimSpace(token),
		})
	}
	return recipients
}

func getenv(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
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

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
