package objstore

import (
	"context"
	"fmt"

	"github.com/kbukum/archivekit/logger"
)

// Factory creates a Connection from the shared config and
// provider-specific configuration. Each backend type-asserts providerCfg
// to its own config type.
type Factory func(ctx context.Context, cfg Config, providerCfg any, log *logger.Logger) (Connection, error)

var factories = make(map[string]Factory)

// RegisterFactory registers a backend factory for the given provider name.
// Backend packages call this (typically in an init function) to make
// themselves available to the New constructor.
func RegisterFactory(name string, f Factory) {
	factories[name] = f
}

// New creates a Connection based on the given Config. The provider field
// determines which backend is used. providerCfg carries provider-specific
// settings (e.g. *s3.Config). Ensure the desired backend package has been
// imported (e.g. _ "github.com/kbukum/archivekit/objstore/swift") so its
// factory is registered.
func New(ctx context.Context, cfg Config, providerCfg any, log *logger.Logger) (Connection, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.Nop()
	}
	l := log.WithComponent("objstore")

	f, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("objstore: unsupported provider %q (not registered)", cfg.Provider)
	}

	l.Debug("initializing connection", map[string]interface{}{"provider": cfg.Provider})
	return f(ctx, cfg, providerCfg, l)
}
