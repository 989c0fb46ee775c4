// Package config loads and validates the environment-driven configuration
// table: the mempool/cache/broker endpoints, the outbound topic name, and
// the batcher's size/interval thresholds. Also provides .env-file loading
// and URL-sanitization for safe logging.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully-resolved, validated runtime configuration.
type Config struct {
	WSSURL         string
	KafkaBroker    string
	RedisURL       string
	KafkaTopic     string
	BatchSize      int
	BatchInterval  time.Duration
	DedupTTL       time.Duration
	ValidatorHost  string
	ValidationMinN int
	LogLevel       string
}

// Error wraps a missing or invalid configuration value. Startup aborts on
// this error per §6/§7 ("configuration errors ... fatal at startup").
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// Load reads environment variables (after first loading .env/.env.local if
// present) and returns a validated Config, or a *Error describing the first
// missing required field.
func Load() (*Config, error) {
	loadEnvFile(".env.local")
	loadEnvFile(".env")

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("KAFKA_TOPIC", "mev-alerts")
	v.SetDefault("BATCH_SIZE", 100)
	v.SetDefault("BATCH_INTERVAL_MS", 1000)
	v.SetDefault("DEDUP_TTL_SECONDS", 300)
	v.SetDefault("VALIDATION_MIN_SWAPS", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SUBGRAPH_URL", "https://subgraph.internal/mev-history")

	cfg := &Config{
		WSSURL:         v.GetString("WSS_URL"),
		KafkaBroker:    v.GetString("KAFKA_BROKER"),
		RedisURL:       v.GetString("REDIS_URL"),
		KafkaTopic:     v.GetString("KAFKA_TOPIC"),
		BatchSize:      v.GetInt("BATCH_SIZE"),
		BatchInterval:  time.Duration(v.GetInt("BATCH_INTERVAL_MS")) * time.Millisecond,
		DedupTTL:       time.Duration(v.GetInt("DEDUP_TTL_SECONDS")) * time.Second,
		ValidatorHost:  v.GetString("SUBGRAPH_URL"),
		ValidationMinN: v.GetInt("VALIDATION_MIN_SWAPS"),
		LogLevel:       v.GetString("LOG_LEVEL"),
	}

	if cfg.WSSURL == "" {
		return nil, &Error{Field: "WSS_URL", Msg: "required, no default (pending-tx subscription endpoint)"}
	}
	if cfg.KafkaBroker == "" {
		return nil, &Error{Field: "KAFKA_BROKER", Msg: "required, no default (broker bootstrap address)"}
	}
	if cfg.RedisURL == "" {
		return nil, &Error{Field: "REDIS_URL", Msg: "required, no default (dedup cache endpoint)"}
	}
	if cfg.BatchSize <= 0 {
		return nil, &Error{Field: "BATCH_SIZE", Msg: "must be positive"}
	}
	if cfg.BatchInterval <= 0 {
		return nil, &Error{Field: "BATCH_INTERVAL_MS", Msg: "must be positive"}
	}

	return cfg, nil
}

// loadEnvFile reads a KEY=VALUE file into the process environment, skipping
// blank lines and comments. Missing files are not an error — we just fall
// back to whatever the environment already has.
func loadEnvFile(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
}
