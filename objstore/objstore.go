package objstore

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes a stored object at the time it was listed or
// probed. It is a snapshot: the store may change after it is taken.
type ObjectInfo struct {
	// Key is the full slash-delimited object key within its container.
	Key string
	// Bytes is the object size in bytes.
	Bytes int64
	// ContentType is the stored MIME type.
	ContentType string
	// Hash is the store's content hash (typically MD5), if reported.
	Hash string
	// LastModified is the server-side modification time.
	LastModified time.Time
}

// ContainerInfo describes a container in an account listing.
type ContainerInfo struct {
	Name  string
	Count int64
	Bytes int64
}

// Metadata carries container or object headers. Keys are canonical
// lower-case (e.g. "x-container-object-count").
type Metadata map[string]string

// Connection is a client for one storage account.
//
// Not-found outcomes follow two conventions: StatObject reports absence
// as a boolean, every other operation returns an error matching
// ErrNotFound via errors.Is.
type Connection interface {
	// Account lists the containers in the account.
	Account(ctx context.Context) ([]ContainerInfo, error)

	// HeadContainer fetches container metadata headers.
	HeadContainer(ctx context.Context, container string) (Metadata, error)

	// UpdateContainer posts metadata headers to a container.
	UpdateContainer(ctx context.Context, container string, headers Metadata) error

	// ListObjects lists every object in the container.
	ListObjects(ctx context.Context, container string) ([]ObjectInfo, error)

	// StatObject probes a single object. Absence is reported as
	// (nil, false, nil), not as an error.
	StatObject(ctx context.Context, container, key string) (*ObjectInfo, bool, error)

	// GetObject fetches an object's metadata and full content.
	GetObject(ctx context.Context, container, key string) (Metadata, []byte, error)

	// GetObjectStream fetches an object's metadata and a streaming body.
	// The caller must close the body.
	GetObjectStream(ctx context.Context, container, key string) (Metadata, io.ReadCloser, error)

	// PutObject writes an object, replacing any existing content.
	PutObject(ctx context.Context, container, key string, data []byte, contentType string) error

	// CopyObject server-side copies an object.
	CopyObject(ctx context.Context, srcContainer, srcKey, dstContainer, dstKey string) error

	// DeleteObject removes an object.
	DeleteObject(ctx context.Context, container, key string) error
}
