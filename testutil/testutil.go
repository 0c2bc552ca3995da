package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/archivekit/config"
	"github.com/kbukum/archivekit/devserver"
	"github.com/kbukum/archivekit/identity"
	"github.com/kbukum/archivekit/logger"
	"github.com/kbukum/archivekit/objstore/memory"
)

// Standard test account. SeedAccount registers it on a development
// server; ClientConfig carries its credentials.
const (
	Username    = "testuser"
	Password    = "archive-pass-1"
	ProjectID   = "p-demo"
	ProjectName = "demo"
)

// StartServer boots an empty development server on an ephemeral port
// and stops it when the test ends.
func StartServer(t *testing.T) *devserver.Server {
	t.Helper()
	srv, err := devserver.New(devserver.Config{}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to build development server: %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("failed to start development server: %v", err)
	}
	t.Cleanup(func() {
		if err := srv.Stop(context.Background()); err != nil {
			t.Errorf("failed to stop development server: %v", err)
		}
	})
	return srv
}

// SeedAccount registers the standard principal and project on the
// server and returns the generated user ID.
func SeedAccount(t *testing.T, srv *devserver.Server) string {
	t.Helper()
	uid, err := srv.AddUser(Username, Password)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	if err := srv.AddProject(identity.ProjectRef{ID: ProjectID, Name: ProjectName}, uid); err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	return uid
}

// StartSeededServer boots a development server carrying the standard
// account.
func StartSeededServer(t *testing.T) (*devserver.Server, string) {
	t.Helper()
	srv := StartServer(t)
	return srv, SeedAccount(t, srv)
}

// ClientConfig returns a client configuration holding the standard
// credentials and pointing at the server.
func ClientConfig(srv *devserver.Server) config.Config {
	return config.Config{
		Username: Username,
		Password: Password,
		AuthURL:  srv.URL(),
	}
}

// SeededStore returns an in-memory store pre-loaded with a small
// deterministic tree: the data container holds raw/a.dat, raw/b.dat
// and notes.txt; the scratch container is empty.
func SeededStore(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.NewStore()
	st.CreateContainer("data")
	st.CreateContainer("scratch")

	ctx := context.Background()
	seed := []struct {
		key         string
		body        string
		contentType string
	}{
		{"notes.txt", "charlie", "text/plain"},
		{"raw/a.dat", "alpha", "application/octet-stream"},
		{"raw/b.dat", "bravo", "application/octet-stream"},
	}
	for _, s := range seed {
		if err := st.PutObject(ctx, "data", s.key, []byte(s.body), s.contentType); err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}
	}
	return st
}

// WriteTempFile writes content to a file inside a test-scoped temp
// directory and returns its path.
func WriteTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
