package devserver

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/archivekit/util"
	"github.com/kbukum/archivekit/validation"
)

const defaultMaxObjectBytes = 256 * 1024 * 1024

// Config configures the development server.
type Config struct {
	// Host is the interface to bind. Defaults to loopback.
	Host string `mapstructure:"host" json:"host"`

	// Port to listen on. Zero picks an ephemeral port, which is what
	// tests want.
	Port int `mapstructure:"port" json:"port" validate:"min=0,max=65535"`

	// Secret signs issued tokens. A fresh random secret is generated
	// when empty; set it only when tokens must survive a restart.
	Secret string `mapstructure:"secret" json:"-"`

	// TokenTTL bounds the lifetime of issued tokens.
	TokenTTL time.Duration `mapstructure:"token_ttl" json:"token_ttl"`

	// MaxObjectSize caps object upload bodies, e.g. "256MB".
	MaxObjectSize string `mapstructure:"max_object_size" json:"max_object_size"`

	// HTTP server timeouts in seconds.
	ReadTimeout  int `mapstructure:"read_timeout" json:"read_timeout" validate:"min=0"`
	WriteTimeout int `mapstructure:"write_timeout" json:"write_timeout" validate:"min=0"`
	IdleTimeout  int `mapstructure:"idle_timeout" json:"idle_timeout" validate:"min=0"`
}

// ApplyDefaults applies default values to the configuration.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Secret == "" {
		c.Secret = uuid.NewString()
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = time.Hour
	}
	if c.MaxObjectSize == "" {
		c.MaxObjectSize = "256MB"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// maxObjectBytes resolves the configured upload cap.
func (c *Config) maxObjectBytes() int64 {
	return util.ParseSize(c.MaxObjectSize, defaultMaxObjectBytes)
}
