package swift

import (
	"github.com/kbukum/archivekit/httpclient"
	"github.com/kbukum/archivekit/observability"
)

// Config holds Swift-specific connection settings. All fields are
// optional; the shared objstore.Config carries the endpoint and token.
type Config struct {
	// TLS configures transport security for the storage endpoint.
	TLS *httpclient.TLSConfig `mapstructure:"tls" json:"tls"`

	// Metrics receives per-operation measurements when set.
	Metrics *observability.Metrics `mapstructure:"-" json:"-"`
}

// Validate checks that the Swift configuration is valid.
func (c *Config) Validate() error {
	if c.TLS != nil {
		return c.TLS.Validate()
	}
	return nil
}
