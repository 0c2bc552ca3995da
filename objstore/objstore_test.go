package objstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kbukum/archivekit/logger"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Provider != ProviderSwift {
		t.Errorf("expected default provider swift, got %q", cfg.Provider)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", cfg.Timeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"swift complete", Config{Provider: ProviderSwift, Endpoint: "http://s", Token: "t", Timeout: time.Second}, false},
		{"swift missing endpoint", Config{Provider: ProviderSwift, Token: "t", Timeout: time.Second}, true},
		{"swift missing token", Config{Provider: ProviderSwift, Endpoint: "http://s", Timeout: time.Second}, true},
		{"memory", Config{Provider: ProviderMemory, Timeout: time.Second}, false},
		{"s3", Config{Provider: ProviderS3, Timeout: time.Second}, false},
		{"unknown", Config{Provider: "tape", Timeout: time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNew_UnregisteredProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "tape"}, nil, logger.Nop())
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestNew_UsesRegisteredFactory(t *testing.T) {
	called := false
	RegisterFactory("fake", func(ctx context.Context, cfg Config, providerCfg any, log *logger.Logger) (Connection, error) {
		called = true
		return nil, fmt.Errorf("fake backend")
	})
	defer delete(factories, "fake")

	_, err := New(context.Background(), Config{Provider: "fake"}, nil, nil)
	if !called {
		t.Error("expected factory to be invoked")
	}
	if err == nil || err.Error() != "fake backend" {
		t.Errorf("expected factory error to propagate, got %v", err)
	}
}

func TestSentinelHelpers(t *testing.T) {
	wrapped := fmt.Errorf("swift: head container x: %w", ErrNotFound)
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should match wrapped ErrNotFound")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("IsNotFound should not match unrelated error")
	}
	if !IsUnauthorized(fmt.Errorf("x: %w", ErrUnauthorized)) {
		t.Error("IsUnauthorized should match wrapped ErrUnauthorized")
	}
	if !IsForbidden(fmt.Errorf("x: %w", ErrForbidden)) {
		t.Error("IsForbidden should match wrapped ErrForbidden")
	}
}
