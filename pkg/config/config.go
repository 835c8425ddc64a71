package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the notary validator service.
type Config struct {
	// Identity
	HomeSystemID string // system_id this notary runs on behalf of
	CurrencyID   string // currency this node notarizes and finalizes (CURRENCY_ID)
	ValidatorID  string
	LogLevel     string

	// Server Configuration
	ListenAddr  string
	MetricsAddr string
	HealthAddr  string

	// Peer system RPC
	PeerSystemID   string
	PeerRPCURL     string
	PeerRPCTimeout time.Duration

	// Notary protocol parameters
	BlockNotarizationModulo  int64
	MinBlocksBeforeFinalized int64
	MinNotariesConfirm       int
	AuthorizedNotaries       []string

	// Database Configuration (URL-based)
	DatabaseURL         string
	DatabaseMaxConns    int
	DatabaseMinConns    int
	DatabaseMaxIdleTime int  // seconds
	DatabaseMaxLifetime int  // seconds
	DatabaseRequired    bool // if true, startup fails if database connection fails

	// Ed25519 identity key
	Ed25519KeyPath string
	DataDir        string

	// CometBFT validator-set consensus
	P2PPort int
	RPCPort int
	ChainID string

	// Security Configuration
	JWTSecret   string
	CORSOrigins []string
	TLSEnabled  bool

	// Rate Limiting
	RateLimitRequests int
	RateLimitWindow   int
}

// Load reads configuration from environment variables. Call Validate()
// afterward before starting the service.
func Load() (*Config, error) {
	cfg := &Config{
		HomeSystemID: getEnv("HOME_SYSTEM_ID", ""),
		CurrencyID:   getEnv("CURRENCY_ID", ""),
		ValidatorID:  getEnv("VALIDATOR_ID", "notary-default"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		ListenAddr:  getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("API_PORT", "8080"),
		MetricsAddr: getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("METRICS_PORT", "9090"),
		HealthAddr:  getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("HEALTH_CHECK_PORT", "8081"),

		PeerSystemID:   getEnv("PEER_SYSTEM_ID", ""),
		PeerRPCURL:     getEnv("PEER_RPC_URL", ""),
		PeerRPCTimeout: getEnvDuration("PEER_RPC_TIMEOUT", 10*time.Second),

		BlockNotarizationModulo:  getEnvInt64("BLOCK_NOTARIZATION_MODULO", 10),
		MinBlocksBeforeFinalized: getEnvInt64("MIN_BLOCKS_BEFORE_NOTARY_FINALIZED", 10),
		MinNotariesConfirm:       getEnvInt("MIN_NOTARIES_CONFIRM", 2),
		AuthorizedNotaries:       parseList(getEnv("AUTHORIZED_NOTARIES", "")),

		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 25),
		DatabaseMinConns:    getEnvInt("DATABASE_MIN_CONNS", 5),
		DatabaseMaxIdleTime: getEnvInt("DATABASE_MAX_IDLE_TIME", 300),
		DatabaseMaxLifetime: getEnvInt("DATABASE_MAX_LIFETIME", 3600),
		DatabaseRequired:    getEnvBool("DATABASE_REQUIRED", false),

		Ed25519KeyPath: getEnv("ED25519_KEY_PATH", ""),
		DataDir:        getEnv("DATA_DIR", "./data"),

		P2PPort: getEnvInt("COMETBFT_P2P_PORT", 26656),
		RPCPort: getEnvInt("COMETBFT_RPC_PORT", 26657),
		ChainID: getEnv("COMETBFT_CHAIN_ID", "notary-core"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		TLSEnabled:  getEnvBool("TLS_ENABLED", true),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvInt("RATE_LIMIT_WINDOW", 60),
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and secure.
func (c *Config) Validate() error {
	var errs []string

	if c.HomeSystemID == "" {
		errs = append(errs, "HOME_SYSTEM_ID is required but not set")
	}
	if c.PeerSystemID == "" {
		errs = append(errs, "PEER_SYSTEM_ID is required but not set")
	}
	if c.PeerRPCURL == "" {
		errs = append(errs, "PEER_RPC_URL is required but not set")
	}
	if c.MinNotariesConfirm <= 0 {
		errs = append(errs, "MIN_NOTARIES_CONFIRM must be positive")
	}
	if len(c.AuthorizedNotaries) < c.MinNotariesConfirm {
		errs = append(errs, "AUTHORIZED_NOTARIES must list at least MIN_NOTARIES_CONFIRM identities")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required but not set")
	} else if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		errs = append(errs, "DATABASE_URL must use sslmode=require for production security")
	}

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required but not set")
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 characters for security")
	}

	if !c.TLSEnabled {
		fmt.Println("WARNING: TLS_ENABLED is false - enable TLS for production security")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateForDevelopment performs relaxed validation suitable for local
// development. Do not use this in production.
func (c *Config) ValidateForDevelopment() error {
	if c.HomeSystemID == "" {
		return fmt.Errorf("HOME_SYSTEM_ID is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func parseList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
