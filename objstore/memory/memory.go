// Package memory provides an in-memory objstore backend for tests and
// the development server.
package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/kbukum/archivekit/logger"
	"github.com/kbukum/archivekit/objstore"
)

func init() {
	objstore.RegisterFactory(objstore.ProviderMemory, func(ctx context.Context, cfg objstore.Config, providerCfg any, log *logger.Logger) (objstore.Connection, error) {
		if providerCfg != nil {
			// Allows the devserver and tests to hand a pre-seeded store
			// to the factory path.
			st, ok := providerCfg.(*Store)
			if !ok {
				return nil, fmt.Errorf("memory: expected *memory.Store, got %T", providerCfg)
			}
			return st, nil
		}
		return NewStore(), nil
	})
}

type object struct {
	data         []byte
	contentType  string
	hash         string
	lastModified time.Time
}

type container struct {
	metadata objstore.Metadata
	objects  map[string]*object
}

// Store is a mutex-guarded in-memory storage account.
type Store struct {
	mu         sync.RWMutex
	containers map[string]*container
	clock      func() time.Time
}

var _ objstore.Connection = (*Store)(nil)

// NewStore creates an empty in-memory account.
func NewStore() *Store {
	return &Store{
		containers: make(map[string]*container),
		clock:      time.Now,
	}
}

// CreateContainer adds an empty container. Creating an existing container
// is a no-op, matching the storage API's idempotent container PUT.
func (s *Store) CreateContainer(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[name]; !ok {
		s.containers[name] = &container{
			metadata: make(objstore.Metadata),
			objects:  make(map[string]*object),
		}
	}
}

// DeleteContainer removes a container and everything in it.
func (s *Store) DeleteContainer(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.containers, name)
}

// Account lists the containers in the account sorted by name.
func (s *Store) Account(ctx context.Context) ([]objstore.ContainerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]objstore.ContainerInfo, 0, len(s.containers))
	for name, c := range s.containers {
		infos = append(infos, objstore.ContainerInfo{
			Name:  name,
			Count: int64(len(c.objects)),
			Bytes: c.bytesUsed(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// HeadContainer returns stored metadata plus the computed object count
// and bytes-used headers.
func (s *Store) HeadContainer(ctx context.Context, name string) (objstore.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.containers[name]
	if !ok {
		return nil, fmt.Errorf("memory: container %q: %w", name, objstore.ErrNotFound)
	}

	meta := make(objstore.Metadata, len(c.metadata)+2)
	for k, v := range c.metadata {
		meta[k] = v
	}
	meta["x-container-object-count"] = strconv.Itoa(len(c.objects))
	meta["x-container-bytes-used"] = strconv.FormatInt(c.bytesUsed(), 10)
	return meta, nil
}

// UpdateContainer merges headers into the container metadata. Empty
// values remove the key, matching header-removal semantics.
func (s *Store) UpdateContainer(ctx context.Context, name string, headers objstore.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.containers[name]
	if !ok {
		return fmt.Errorf("memory: container %q: %w", name, objstore.ErrNotFound)
	}
	for k, v := range headers {
		if v == "" {
			delete(c.metadata, k)
			continue
		}
		c.metadata[k] = v
	}
	return nil
}

// ListObjects lists the container's objects sorted by key.
func (s *Store) ListObjects(ctx context.Context, name string) ([]objstore.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.containers[name]
	if !ok {
		return nil, fmt.Errorf("memory: container %q: %w", name, objstore.ErrNotFound)
	}

	infos := make([]objstore.ObjectInfo, 0, len(c.objects))
	for key, o := range c.objects {
		infos = append(infos, o.info(key))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// StatObject probes a single object without fetching its content.
func (s *Store) StatObject(ctx context.Context, name, key string) (*objstore.ObjectInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.containers[name]
	if !ok {
		return nil, false, fmt.Errorf("memory: container %q: %w", name, objstore.ErrNotFound)
	}
	o, ok := c.objects[key]
	if !ok {
		return nil, false, nil
	}
	info := o.info(key)
	return &info, true, nil
}

// GetObject returns the object's metadata and a copy of its content.
func (s *Store) GetObject(ctx context.Context, name, key string) (objstore.Metadata, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, err := s.object(name, key)
	if err != nil {
		return nil, nil, err
	}
	data := make([]byte, len(o.data))
	copy(data, o.data)
	return o.metadata(), data, nil
}

// GetObjectStream returns the object's metadata and a reader over a copy
// of its content.
func (s *Store) GetObjectStream(ctx context.Context, name, key string) (objstore.Metadata, io.ReadCloser, error) {
	meta, data, err := s.GetObject(ctx, name, key)
	if err != nil {
		return nil, nil, err
	}
	return meta, io.NopCloser(bytes.NewReader(data)), nil
}

// PutObject writes an object, replacing any existing content.
func (s *Store) PutObject(ctx context.Context, name, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.containers[name]
	if !ok {
		return fmt.Errorf("memory: container %q: %w", name, objstore.ErrNotFound)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	sum := md5.Sum(stored)
	c.objects[key] = &object{
		data:         stored,
		contentType:  contentType,
		hash:         hex.EncodeToString(sum[:]),
		lastModified: s.clock(),
	}
	return nil
}

// CopyObject server-side copies an object, refreshing its timestamp.
func (s *Store) CopyObject(ctx context.Context, srcContainer, srcKey, dstContainer, dstKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := s.object(srcContainer, srcKey)
	if err != nil {
		return err
	}
	dst, ok := s.containers[dstContainer]
	if !ok {
		return fmt.Errorf("memory: container %q: %w", dstContainer, objstore.ErrNotFound)
	}
	data := make([]byte, len(src.data))
	copy(data, src.data)
	dst.objects[dstKey] = &object{
		data:         data,
		contentType:  src.contentType,
		hash:         src.hash,
		lastModified: s.clock(),
	}
	return nil
}

// DeleteObject removes an object.
func (s *Store) DeleteObject(ctx context.Context, name, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.containers[name]
	if !ok {
		return fmt.Errorf("memory: container %q: %w", name, objstore.ErrNotFound)
	}
	if _, ok := c.objects[key]; !ok {
		return fmt.Errorf("memory: object %q/%q: %w", name, key, objstore.ErrNotFound)
	}
	delete(c.objects, key)
	return nil
}

// object looks up an object under the lock held by the caller.
func (s *Store) object(name, key string) (*object, error) {
	c, ok := s.containers[name]
	if !ok {
		return nil, fmt.Errorf("memory: container %q: %w", name, objstore.ErrNotFound)
	}
	o, ok := c.objects[key]
	if !ok {
		return nil, fmt.Errorf("memory: object %q/%q: %w", name, key, objstore.ErrNotFound)
	}
	return o, nil
}

func (c *container) bytesUsed() int64 {
	var total int64
	for _, o := range c.objects {
		total += int64(len(o.data))
	}
	return total
}

func (o *object) info(key string) objstore.ObjectInfo {
	return objstore.ObjectInfo{
		Key:          key,
		Bytes:        int64(len(o.data)),
		ContentType:  o.contentType,
		Hash:         o.hash,
		LastModified: o.lastModified,
	}
}

func (o *object) metadata() objstore.Metadata {
	return objstore.Metadata{
		"content-type":   o.contentType,
		"etag":           o.hash,
		"content-length": strconv.Itoa(len(o.data)),
		"last-modified":  o.lastModified.UTC().Format(time.RFC1123),
	}
}
