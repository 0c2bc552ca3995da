package objstore

import (
	"errors"
	"fmt"
	"time"
)

// Provider constants for supported storage backends.
const (
	ProviderSwift  = "swift"
	ProviderMemory = "memory"
	ProviderS3     = "s3"
)

// Default configuration values.
const (
	DefaultProvider = ProviderSwift
	DefaultTimeout  = 30 * time.Second
)

// Config holds the backend-independent connection configuration.
// Provider-specific settings are passed separately to New.
type Config struct {
	// Provider selects the storage backend: "swift", "memory" or "s3".
	Provider string `mapstructure:"provider" json:"provider"`

	// Endpoint is the account storage URL (swift) or a custom
	// S3-compatible endpoint (s3). Unused by the memory backend.
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// Token is the scoped auth token presented on every request (swift).
	Token string `mapstructure:"-" json:"-"`

	// Timeout bounds individual storage requests.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`

	// UserAgent is reported to the storage service.
	UserAgent string `mapstructure:"user_agent" json:"user_agent"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderSwift:
		var errs []error
		if c.Endpoint == "" {
			errs = append(errs, errors.New("objstore: endpoint is required for swift provider"))
		}
		if c.Token == "" {
			errs = append(errs, errors.New("objstore: token is required for swift provider"))
		}
		if len(errs) > 0 {
			return fmt.Errorf("objstore: invalid swift config: %w", errors.Join(errs...))
		}
	case ProviderMemory:
		// No required settings.
	case ProviderS3:
		// Region and credentials are provider-specific settings; the
		// s3 backend validates them.
	default:
		return fmt.Errorf("objstore: unsupported provider %q", c.Provider)
	}
	return nil
}
