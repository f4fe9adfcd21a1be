// Package config provides configuration loading and management for the application.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// HTTP server port
	Port string

	// API key for the 1inch developer portal (shared by the classic,
	// Fusion and cross-chain providers)
	OneInchAPIKey string

	// Base URLs for the quote providers
	ClassicSwapURL string
	FusionURL      string
	CrossChainURL  string

	// JSON-RPC endpoint used for chain reads (/api/network-info)
	RPCEndpoint string

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// Per-provider quote timeout; bounds the slowest leg of a comparison
	ProviderTimeout time.Duration

	// Outbound retry attempts per provider call. Defaults to 0: quotes
	// are point-in-time estimates and each provider call is attempted
	// exactly once.
	ProviderRetryMax int

	// Default slippage (percent) passed to swap transaction builders
	SwapSlippage float64

	// Rate limiting for the inbound HTTP surface
	EnableRateLimit bool
	RateLimitRPS    float64
	RateLimitBurst  int
}

// Load creates a new Config from environment variables
func Load() Config {
	return Config{
		Port:             GetEnvOrDefault("PORT", "3001"),
		OneInchAPIKey:    GetEnvOrDefault("ONEINCH_API_KEY", ""),
		ClassicSwapURL:   GetEnvOrDefault("CLASSIC_SWAP_URL", "https://api.1inch.dev/swap/v6.0"),
		FusionURL:        GetEnvOrDefault("FUSION_URL", "https://api.1inch.dev/fusion-plus"),
		CrossChainURL:    GetEnvOrDefault("CROSS_CHAIN_URL", "https://api.1inch.dev/fusion-plus"),
		RPCEndpoint:      GetEnvOrDefault("RPC_ENDPOINT", "https://eth.llamarpc.com"),
		OtelEndpoint:     GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ProviderTimeout:  GetEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
		ProviderRetryMax: GetEnvAsInt("PROVIDER_RETRY_MAX", 0),
		SwapSlippage:     GetEnvAsFloat("SWAP_SLIPPAGE", 1.0),
		EnableRateLimit:  GetEnvAsBool("ENABLE_RATE_LIMIT", false),
		RateLimitRPS:     GetEnvAsFloat("RATE_LIMIT_RPS", 10.0),
		RateLimitBurst:   GetEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
