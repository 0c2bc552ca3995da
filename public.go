package archivekit

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"

	"github.com/kbukum/archivekit/httpclient"
	"github.com/kbukum/archivekit/logger"
	"github.com/kbukum/archivekit/objstore/swift"
	"github.com/kbukum/archivekit/version"
)

// PublicContainer reads a world-readable container through its plain
// HTTP listing URL, without any credentials or identity round-trips.
// It satisfies Reader only; files obtained from it refuse mutating
// operations.
type PublicContainer struct {
	// URL is the container listing URL, without a trailing slash.
	URL string
	// Name is the container name, taken from the last URL segment.
	Name string

	http *httpclient.Client
	log  *logger.Logger

	mu    sync.Mutex
	files []*File
}

var _ Reader = (*PublicContainer)(nil)

// publicEntry is one object in the store's JSON container listing.
type publicEntry struct {
	Name         string `json:"name"`
	Bytes        int64  `json:"bytes"`
	ContentType  string `json:"content_type"`
	Hash         string `json:"hash"`
	LastModified string `json:"last_modified"`
}

// NewPublicContainer opens a public container by its listing URL. The
// log may be nil.
func NewPublicContainer(rawURL string, log *logger.Logger) (*PublicContainer, error) {
	trimmed := strings.TrimRight(rawURL, "/")
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, newError(ErrCodeValidation, "container url %q is not a valid absolute URL", rawURL)
	}
	name := trimmed[strings.LastIndex(trimmed, "/")+1:]
	if name == "" {
		return nil, newError(ErrCodeValidation, "container url %q carries no container name", rawURL)
	}

	client, err := httpclient.New(httpclient.Config{
		BaseURL:   trimmed,
		UserAgent: version.UserAgent(),
	})
	if err != nil {
		return nil, wrapError(ErrCodeValidation, err, "building client for %q", rawURL)
	}

	if log == nil {
		log = logger.Nop()
	}
	return &PublicContainer{
		URL:  trimmed,
		Name: name,
		http: client,
		log: log.WithFields(map[string]interface{}{
			logger.FieldContainer: name,
		}),
	}, nil
}

func (pc *PublicContainer) String() string {
	return pc.URL
}

// List returns every object in the container. The listing is fetched
// once and memoized; a failed fetch leaves nothing cached so the next
// call retries.
func (pc *PublicContainer) List(ctx context.Context) ([]*File, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.files != nil {
		return pc.files, nil
	}

	resp, err := pc.http.Do(ctx, httpclient.Request{
		Method:  "GET",
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, httpError(err, "listing public container %q", pc.Name)
	}

	var entries []publicEntry
	if err := json.Unmarshal(resp.Body, &entries); err != nil {
		return nil, wrapError(ErrCodeTransport, err, "decoding listing of public container %q", pc.Name)
	}

	files := make([]*File, len(entries))
	for i, e := range entries {
		files[i] = &File{
			Name:         e.Name,
			Bytes:        e.Bytes,
			ContentType:  e.ContentType,
			Hash:         e.Hash,
			LastModified: swift.ParseListingTime(e.LastModified),
			container:    pc,
		}
	}
	pc.files = files
	return files, nil
}

// Get returns the File at the given path.
func (pc *PublicContainer) Get(ctx context.Context, filePath string) (*File, error) {
	files, err := pc.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.Name == filePath {
			return f, nil
		}
	}
	return nil, newError(ErrCodeNotFound, "path %q does not exist in public container %q", filePath, pc.Name)
}

// Count returns the number of objects in the listing.
func (pc *PublicContainer) Count(ctx context.Context) (int64, error) {
	files, err := pc.List(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(files)), nil
}

// Size sums the listed object sizes in the requested unit. Public
// access exposes no container metadata, so the listing is the source.
func (pc *PublicContainer) Size(ctx context.Context, unit Unit) (float64, error) {
	files, err := pc.List(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		total += f.Bytes
	}
	return ScaleBytes(total, unit)
}

// Download fetches one object and writes it under opts.LocalDir,
// mirroring the object's key path as local directories unless opts.Flat
// is set. It returns the local path written.
func (pc *PublicContainer) Download(ctx context.Context, filePath string, opts DownloadOptions) (string, error) {
	_, data, err := pc.fetch(ctx, filePath)
	if err != nil {
		return "", err
	}
	return writeLocal(filePath, data, opts)
}

// Read fetches one object into memory, decoding textual content per
// opts.
func (pc *PublicContainer) Read(ctx context.Context, filePath string, opts ReadOptions) (*Content, error) {
	contentType, data, err := pc.fetch(ctx, filePath)
	if err != nil {
		return nil, err
	}
	return decodeContent(data, contentType, opts)
}

func (pc *PublicContainer) fetch(ctx context.Context, filePath string) (string, []byte, error) {
	resp, err := pc.http.Do(ctx, httpclient.Request{
		Method: "GET",
		Path:   "/" + escapeKey(filePath),
	})
	if err != nil {
		return "", nil, httpError(err, "fetching %q from public container %q", filePath, pc.Name)
	}
	return resp.Headers["Content-Type"], resp.Body, nil
}

// escapeKey escapes each slash-delimited key segment for use in a URL
// path, keeping the slashes themselves intact.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// httpError converts an httpclient failure into a domain error.
func httpError(err error, format string, args ...interface{}) *Error {
	code := ErrCodeTransport
	if httpclient.IsNotFound(err) {
		code = ErrCodeNotFound
	}
	return wrapError(code, err, format, args...)
}
