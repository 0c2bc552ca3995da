package config

import (
	"time"

	"github.com/kbukum/archivekit/logger"
	"github.com/kbukum/archivekit/validation"
)

// DefaultBackend is the storage provider used when none is configured.
const DefaultBackend = "swift"

// Config configures an archive client session.
type Config struct {
	// Username identifies the principal. Required unless Token is set.
	Username string `yaml:"username" mapstructure:"username" validate:"required_without=Token"`

	// Password proves the principal. When empty, ResolvePassword falls
	// back to the ARCHIVE_PASSWORD variable and then to an interactive
	// terminal prompt.
	Password string `yaml:"password" mapstructure:"password"`

	// Token is a pre-issued auth token. When set it wins over
	// Username/Password.
	Token string `yaml:"token" mapstructure:"token"`

	// AuthURL is the identity service endpoint.
	AuthURL string `yaml:"auth_url" mapstructure:"auth_url" validate:"required,url"`

	// StorageURL overrides the object-store endpoint reported by the
	// token catalog. Normally empty.
	StorageURL string `yaml:"storage_url" mapstructure:"storage_url" validate:"omitempty,url"`

	// Backend selects the storage provider. Defaults to swift.
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Timeout bounds individual requests. Zero uses the transport default.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Logging configures the client logger.
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values to the configuration.
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// Credentialed reports whether the configuration carries a usable
// credential without consulting the environment or the terminal.
func (c *Config) Credentialed() bool {
	return c.Token != "" || (c.Username != "" && c.Password != "")
}
