package custody

import (
	"os"
	"time"

	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

// Config holds the configuration for the external custody service client.
type Config struct {
	// BaseURL is the custody service API base URL. Empty means no external
	// service is configured and the in-process vault should be used instead.
	BaseURL string

	// Token is the bearer token for API authentication.
	Token string

	// Vault is the marketplace account that holds custodied assets.
	Vault models.Address

	// Timeout for API requests.
	Timeout time.Duration
}

// DefaultConfig returns the default configuration, reading from environment variables.
func DefaultConfig() Config {
	return Config{
		BaseURL: getEnv("CUSTODY_SERVICE_URL", ""),
		Token:   getEnv("CUSTODY_SERVICE_TOKEN", ""),
		Vault:   models.Address(getEnv("CUSTODY_VAULT_ADDRESS", "0x00000000000000000000000000000000000000fe")),
		Timeout: 30 * time.Second,
	}
}

// getEnv returns an environment variable value or a default if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// HasService reports whether an external custody service is configured.
func (c Config) HasService() bool {
	return c.BaseURL != ""
}
