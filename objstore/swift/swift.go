// Package swift implements objstore.Connection against an OpenStack
// Swift compatible object store.
//
// A Connection is bound to one account storage URL (the endpoint) and
// presents the scoped token on every request. Import the package for
// its side effect of registering the "swift" provider:
//
//	import _ "github.com/kbukum/archivekit/objstore/swift"
package swift

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/archivekit/httpclient"
	"github.com/kbukum/archivekit/logger"
	"github.com/kbukum/archivekit/objstore"
	"github.com/kbukum/archivekit/observability"
	"github.com/kbukum/archivekit/version"
)

const serviceName = "objstore.swift"

// Swift listing timestamps carry microseconds and no zone.
const listingTimeLayout = "2006-01-02T15:04:05.999999"

const (
	headerTransIDExtra = "X-Trans-Id-Extra"
	headerDestination  = "Destination"
)

func init() {
	objstore.RegisterFactory(objstore.ProviderSwift, func(ctx context.Context, cfg objstore.Config, providerCfg any, log *logger.Logger) (objstore.Connection, error) {
		c := &Config{}
		if providerCfg != nil {
			pc, ok := providerCfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("swift: expected *swift.Config, got %T", providerCfg)
			}
			c = pc
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewConnection(cfg, c, log)
	})
}

// Connection is a client for one Swift storage account.
type Connection struct {
	client  *httpclient.Client
	log     *logger.Logger
	metrics *observability.Metrics
}

var _ objstore.Connection = (*Connection)(nil)

// NewConnection creates a Connection bound to the account URL in
// cfg.Endpoint, authenticating with cfg.Token.
func NewConnection(cfg objstore.Config, swiftCfg *Config, log *logger.Logger) (*Connection, error) {
	if swiftCfg == nil {
		swiftCfg = &Config{}
	}
	if log == nil {
		log = logger.Nop()
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}

	client, err := httpclient.New(httpclient.Config{
		BaseURL:   cfg.Endpoint,
		Timeout:   cfg.Timeout,
		Auth:      httpclient.TokenAuth(cfg.Token),
		TLS:       swiftCfg.TLS,
		UserAgent: ua,
	})
	if err != nil {
		return nil, fmt.Errorf("swift: %w", err)
	}

	return &Connection{
		client:  client,
		log:     log.WithComponent(serviceName),
		metrics: swiftCfg.Metrics,
	}, nil
}

// containerEntry is one element of an account listing.
type containerEntry struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
	Bytes int64  `json:"bytes"`
}

// objectEntry is one element of a container listing.
type objectEntry struct {
	Name         string `json:"name"`
	Bytes        int64  `json:"bytes"`
	ContentType  string `json:"content_type"`
	Hash         string `json:"hash"`
	LastModified string `json:"last_modified"`
}

// Account lists the containers in the account.
func (c *Connection) Account(ctx context.Context) ([]objstore.ContainerInfo, error) {
	resp, err := c.do(ctx, "account", "", "", httpclient.Request{
		Method: http.MethodGet,
		Query:  map[string]string{"format": "json"},
	})
	if err != nil {
		return nil, mapError("list containers", err)
	}

	var entries []containerEntry
	if err := json.Unmarshal(resp.Body, &entries); err != nil {
		return nil, fmt.Errorf("swift: decode account listing: %w", err)
	}

	infos := make([]objstore.ContainerInfo, len(entries))
	for i, e := range entries {
		infos[i] = objstore.ContainerInfo{Name: e.Name, Count: e.Count, Bytes: e.Bytes}
	}
	return infos, nil
}

// HeadContainer fetches container metadata headers.
func (c *Connection) HeadContainer(ctx context.Context, container string) (objstore.Metadata, error) {
	resp, err := c.do(ctx, "head_container", container, "", httpclient.Request{
		Method: http.MethodHead,
		Path:   containerPath(container),
	})
	if err != nil {
		return nil, mapError("head container "+container, err)
	}
	return lowercaseHeaders(resp.Headers), nil
}

// UpdateContainer posts metadata headers to a container.
func (c *Connection) UpdateContainer(ctx context.Context, container string, headers objstore.Metadata) error {
	req := httpclient.Request{
		Method:  http.MethodPost,
		Path:    containerPath(container),
		Headers: make(map[string]string, len(headers)),
	}
	for k, v := range headers {
		req.Headers[k] = v
	}

	if _, err := c.do(ctx, "update_container", container, "", req); err != nil {
		return mapError("update container "+container, err)
	}
	return nil
}

// ListObjects lists every object in the container.
func (c *Connection) ListObjects(ctx context.Context, container string) ([]objstore.ObjectInfo, error) {
	resp, err := c.do(ctx, "list_objects", container, "", httpclient.Request{
		Method: http.MethodGet,
		Path:   containerPath(container),
		Query:  map[string]string{"format": "json"},
	})
	if err != nil {
		return nil, mapError("list container "+container, err)
	}

	var entries []objectEntry
	if err := json.Unmarshal(resp.Body, &entries); err != nil {
		return nil, fmt.Errorf("swift: decode listing for %s: %w", container, err)
	}

	infos := make([]objstore.ObjectInfo, len(entries))
	for i, e := range entries {
		infos[i] = objstore.ObjectInfo{
			Key:          e.Name,
			Bytes:        e.Bytes,
			ContentType:  e.ContentType,
			Hash:         e.Hash,
			LastModified: ParseListingTime(e.LastModified),
		}
	}
	return infos, nil
}

// StatObject probes a single object. A missing object is reported as
// (nil, false, nil).
func (c *Connection) StatObject(ctx context.Context, container, key string) (*objstore.ObjectInfo, bool, error) {
	resp, err := c.do(ctx, "stat_object", container, key, httpclient.Request{
		Method: http.MethodHead,
		Path:   objectPath(container, key),
	})
	if err != nil {
		if httpclient.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, mapError("stat object "+container+"/"+key, err)
	}

	info := &objstore.ObjectInfo{
		Key:         key,
		ContentType: resp.Headers["Content-Type"],
		Hash:        resp.Headers["Etag"],
	}
	if v := resp.Headers["Content-Length"]; v != "" {
		if n, perr := strconv.ParseInt(v, 10, 64); perr == nil {
			info.Bytes = n
		}
	}
	if v := resp.Headers["Last-Modified"]; v != "" {
		if t, perr := time.Parse(http.TimeFormat, v); perr == nil {
			info.LastModified = t
		}
	}
	return info, true, nil
}

// GetObject fetches an object's metadata and full content.
func (c *Connection) GetObject(ctx context.Context, container, key string) (objstore.Metadata, []byte, error) {
	resp, err := c.do(ctx, "get_object", container, key, httpclient.Request{
		Method: http.MethodGet,
		Path:   objectPath(container, key),
	})
	if err != nil {
		return nil, nil, mapError("get object "+container+"/"+key, err)
	}
	return lowercaseHeaders(resp.Headers), resp.Body, nil
}

// GetObjectStream fetches an object's metadata and a streaming body.
// The caller must close the body.
func (c *Connection) GetObjectStream(ctx context.Context, container, key string) (objstore.Metadata, io.ReadCloser, error) {
	txn := uuid.NewString()
	oc := observability.NewOperationContext(serviceName, "get_object_stream", txn, c.metrics)
	ctx, span := oc.StartSpanForOperation(ctx, observability.SpanStorageRequest)
	observability.SetSpanAttribute(ctx, observability.AttrContainer, container)
	observability.SetSpanAttribute(ctx, observability.AttrObjectKey, key)

	resp, err := c.client.DoStream(ctx, httpclient.Request{
		Method:  http.MethodGet,
		Path:    objectPath(container, key),
		Headers: map[string]string{headerTransIDExtra: txn},
	})
	oc.EndOperation(ctx, span, statusLabel(err), err)
	if err != nil {
		c.logFailure("get_object_stream", txn, err)
		return nil, nil, mapError("get object "+container+"/"+key, err)
	}
	return lowercaseHeaders(resp.Headers), resp.Body, nil
}

// PutObject writes an object, replacing any existing content.
func (c *Connection) PutObject(ctx context.Context, container, key string, data []byte, contentType string) error {
	req := httpclient.Request{
		Method: http.MethodPut,
		Path:   objectPath(container, key),
		Body:   data,
	}
	if contentType != "" {
		req.Headers = map[string]string{"Content-Type": contentType}
	}

	if _, err := c.do(ctx, "put_object", container, key, req); err != nil {
		return mapError("put object "+container+"/"+key, err)
	}
	return nil
}

// CopyObject server-side copies an object using the COPY method with a
// Destination header.
func (c *Connection) CopyObject(ctx context.Context, srcContainer, srcKey, dstContainer, dstKey string) error {
	req := httpclient.Request{
		Method:  "COPY",
		Path:    objectPath(srcContainer, srcKey),
		Headers: map[string]string{headerDestination: objectPath(dstContainer, dstKey)},
	}

	if _, err := c.do(ctx, "copy_object", srcContainer, srcKey, req); err != nil {
		return mapError("copy object "+srcContainer+"/"+srcKey, err)
	}
	return nil
}

// DeleteObject removes an object.
func (c *Connection) DeleteObject(ctx context.Context, container, key string) error {
	if _, err := c.do(ctx, "delete_object", container, key, httpclient.Request{
		Method: http.MethodDelete,
		Path:   objectPath(container, key),
	}); err != nil {
		return mapError("delete object "+container+"/"+key, err)
	}
	return nil
}

// CheckHealth reports reachability of the account endpoint.
func (c *Connection) CheckHealth(ctx context.Context) observability.Health {
	if _, err := c.Account(ctx); err != nil {
		return observability.Health{
			Name:    serviceName,
			Status:  observability.HealthStatusDown,
			Message: err.Error(),
		}
	}
	return observability.Health{Name: serviceName, Status: observability.HealthStatusUp}
}

// do executes one storage request inside a traced operation. Every
// request carries a fresh transaction id for cross-referencing with
// server logs.
func (c *Connection) do(ctx context.Context, op, container, key string, req httpclient.Request) (*httpclient.Response, error) {
	txn := uuid.NewString()
	oc := observability.NewOperationContext(serviceName, op, txn, c.metrics)
	ctx, span := oc.StartSpanForOperation(ctx, observability.SpanStorageRequest)
	if container != "" {
		observability.SetSpanAttribute(ctx, observability.AttrContainer, container)
	}
	if key != "" {
		observability.SetSpanAttribute(ctx, observability.AttrObjectKey, key)
	}

	if req.Headers == nil {
		req.Headers = make(map[string]string, 1)
	}
	req.Headers[headerTransIDExtra] = txn

	resp, err := c.client.Do(ctx, req)
	oc.EndOperation(ctx, span, statusLabel(err), err)
	if err != nil {
		c.logFailure(op, txn, err)
	}
	return resp, err
}

func (c *Connection) logFailure(op, txn string, err error) {
	c.log.WithError(err).Debug("storage request failed", map[string]interface{}{
		logger.FieldOperation: op,
		"txn":                 txn,
	})
}

// mapError converts transport errors into objstore sentinels, keeping
// the operation in the message.
func mapError(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case httpclient.IsNotFound(err):
		return fmt.Errorf("swift: %s: %w", what, objstore.ErrNotFound)
	case httpclient.StatusOf(err) == http.StatusUnauthorized:
		return fmt.Errorf("swift: %s: %w", what, objstore.ErrUnauthorized)
	case httpclient.StatusOf(err) == http.StatusForbidden:
		return fmt.Errorf("swift: %s: %w", what, objstore.ErrForbidden)
	default:
		return fmt.Errorf("swift: %s: %w", what, err)
	}
}

// statusLabel derives a metric status label from a request outcome.
func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var he *httpclient.Error
	if errors.As(err, &he) {
		return he.Code.String()
	}
	return "error"
}

func containerPath(container string) string {
	return "/" + url.PathEscape(container)
}

// objectPath escapes each key segment, preserving slashes between them.
func objectPath(container, key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return "/" + url.PathEscape(container) + "/" + strings.Join(segs, "/")
}

// lowercaseHeaders converts response headers to canonical Metadata form.
func lowercaseHeaders(h map[string]string) objstore.Metadata {
	md := make(objstore.Metadata, len(h))
	for k, v := range h {
		md[strings.ToLower(k)] = v
	}
	return md
}

// ParseListingTime handles Swift's zone-less microsecond timestamps,
// falling back to RFC 3339.
func ParseListingTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(listingTimeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
