package archivekit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const publicListingJSON = `[
  {"name": "notes.txt", "bytes": 5, "content_type": "text/plain", "hash": "h1", "last_modified": "2024-03-01T10:00:00.000000"},
  {"name": "data/raw file.bin", "bytes": 3, "content_type": "application/octet-stream", "hash": "h2", "last_modified": "2024-03-02T11:30:00.000000"}
]`

// publicServer emulates anonymous access to one world-readable
// container. listings counts listing fetches for memoization checks.
func publicServer(t *testing.T, listings *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/AUTH_demo/shared":
			if got := r.Header.Get("Accept"); got != "application/json" {
				t.Errorf("expected an application/json accept header, got %q", got)
			}
			if listings != nil {
				*listings++
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, publicListingJSON)
		case "/v1/AUTH_demo/shared/notes.txt":
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, "hello")
		case "/v1/AUTH_demo/shared/data/raw file.bin":
			if !strings.Contains(r.RequestURI, "raw%20file.bin") {
				t.Errorf("expected an escaped request path, got %q", r.RequestURI)
			}
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte{1, 2, 3})
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestPublic(t *testing.T, srv *httptest.Server) *PublicContainer {
	t.Helper()
	pc, err := NewPublicContainer(srv.URL+"/v1/AUTH_demo/shared", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return pc
}

func TestNewPublicContainer(t *testing.T) {
	pc, err := NewPublicContainer("https://storage.example.org/v1/AUTH_demo/shared/", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.Name != "shared" {
		t.Errorf("expected the last URL segment as name, got %q", pc.Name)
	}
	if strings.HasSuffix(pc.URL, "/") {
		t.Errorf("expected the trailing slash to be trimmed, got %q", pc.URL)
	}

	if _, err := NewPublicContainer("not a url", nil); !IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
	if _, err := NewPublicContainer("", nil); !IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestPublicContainerList(t *testing.T) {
	listings := 0
	srv := publicServer(t, &listings)
	defer srv.Close()
	pc := newTestPublic(t, srv)
	ctx := context.Background()

	files, err := pc.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].Name != "notes.txt" || files[0].Bytes != 5 {
		t.Errorf("unexpected first file: %+v", files[0])
	}
	if files[0].LastModified.IsZero() {
		t.Error("expected the listing timestamp to parse")
	}
	if files[1].container != pc {
		t.Error("files should delegate to the public container")
	}

	// The listing is fetched once.
	if _, err := pc.List(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if listings != 1 {
		t.Errorf("expected 1 listing fetch, got %d", listings)
	}
}

func TestPublicContainerGet(t *testing.T) {
	srv := publicServer(t, nil)
	defer srv.Close()
	pc := newTestPublic(t, srv)

	f, err := pc.Get(context.Background(), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Name != "notes.txt" {
		t.Errorf("unexpected file: %+v", f)
	}

	if _, err := pc.Get(context.Background(), "ghost.txt"); !IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestPublicContainerCountAndSize(t *testing.T) {
	srv := publicServer(t, nil)
	defer srv.Close()
	pc := newTestPublic(t, srv)
	ctx := context.Background()

	count, err := pc.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2, got %d", count)
	}

	size, err := pc.Size(ctx, UnitBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 8 {
		t.Errorf("expected 8 bytes, got %v", size)
	}
}

func TestPublicContainerRead(t *testing.T) {
	srv := publicServer(t, nil)
	defer srv.Close()
	pc := newTestPublic(t, srv)
	ctx := context.Background()

	content, err := pc.Read(ctx, "notes.txt", ReadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !content.Decoded || content.Text != "hello" {
		t.Errorf("expected decoded text, got %+v", content)
	}

	// Keys with spaces travel escaped.
	bin, err := pc.Read(ctx, "data/raw file.bin", ReadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bin.Decoded || len(bin.Bytes) != 3 {
		t.Errorf("expected 3 raw bytes, got %+v", bin)
	}

	if _, err := pc.Read(ctx, "ghost.txt", ReadOptions{}); !IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestPublicContainerDownload(t *testing.T) {
	srv := publicServer(t, nil)
	defer srv.Close()
	pc := newTestPublic(t, srv)
	dir := t.TempDir()

	local, err := pc.Download(context.Background(), "data/raw file.bin", DownloadOptions{LocalDir: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local != filepath.Join(dir, "data", "raw file.bin") {
		t.Errorf("unexpected local path: %q", local)
	}
	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != 3 {
		t.Errorf("expected 3 bytes, got %d", len(data))
	}
}

func TestEscapeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain.txt", "plain.txt"},
		{"data/raw file.bin", "data/raw%20file.bin"},
		{"a/b?.txt", "a/b%3F.txt"},
	}
	for _, tc := range tests {
		if got := escapeKey(tc.in); got != tc.want {
			t.Errorf("escapeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
