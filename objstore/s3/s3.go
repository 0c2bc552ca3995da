// Package s3 implements objstore.Connection over Amazon S3 or an
// S3-compatible service (e.g. MinIO).
//
// Buckets play the role of containers. Container metadata, including
// access control headers, is persisted as bucket tags. Import the
// package for its side effect of registering the "s3" provider:
//
//	import _ "github.com/kbukum/archivekit/objstore/s3"
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/kbukum/archivekit/logger"
	"github.com/kbukum/archivekit/objstore"
)

func init() {
	objstore.RegisterFactory(objstore.ProviderS3, func(ctx context.Context, cfg objstore.Config, providerCfg any, log *logger.Logger) (objstore.Connection, error) {
		c := &Config{}
		if providerCfg != nil {
			pc, ok := providerCfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("s3: expected *s3.Config, got %T", providerCfg)
			}
			c = pc
		}
		c.ApplyDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewConnection(ctx, cfg, c, log)
	})
}

// Connection is a client for one S3 account.
type Connection struct {
	client *awss3.Client
	log    *logger.Logger
}

var _ objstore.Connection = (*Connection)(nil)

// NewConnection creates a Connection from the given config. When
// cfg.Endpoint is set, requests go to that S3-compatible endpoint with
// path-style addressing.
func NewConnection(ctx context.Context, cfg objstore.Config, s3Cfg *Config, log *logger.Logger) (*Connection, error) {
	if s3Cfg == nil {
		s3Cfg = &Config{}
		s3Cfg.ApplyDefaults()
	}
	if log == nil {
		log = logger.Nop()
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s3Cfg.Region),
	}
	if s3Cfg.AccessKey != "" && s3Cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3Cfg.AccessKey, s3Cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	var clientOpts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if s3Cfg.ForcePathStyle {
		clientOpts = append(clientOpts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	return &Connection{
		client: awss3.NewFromConfig(awsCfg, clientOpts...),
		log:    log.WithComponent("objstore.s3"),
	}, nil
}

// Account lists the buckets in the account. The bucket listing carries
// no statistics; HeadContainer aggregates them on demand.
func (c *Connection) Account(ctx context.Context) ([]objstore.ContainerInfo, error) {
	out, err := c.client.ListBuckets(ctx, &awss3.ListBucketsInput{})
	if err != nil {
		return nil, mapError("list buckets", err)
	}

	infos := make([]objstore.ContainerInfo, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		infos = append(infos, objstore.ContainerInfo{Name: aws.ToString(b.Name)})
	}
	return infos, nil
}

// HeadContainer returns the bucket's tags plus computed object count
// and byte totals.
func (c *Connection) HeadContainer(ctx context.Context, container string) (objstore.Metadata, error) {
	if _, err := c.client.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(container)}); err != nil {
		return nil, mapError("head bucket "+container, err)
	}

	md := objstore.Metadata{}
	tags, err := c.client.GetBucketTagging(ctx, &awss3.GetBucketTaggingInput{Bucket: aws.String(container)})
	switch {
	case err == nil:
		for _, tag := range tags.TagSet {
			md[strings.ToLower(aws.ToString(tag.Key))] = aws.ToString(tag.Value)
		}
	case isNoSuchTagSet(err):
		// Untagged bucket.
	default:
		return nil, mapError("get bucket tags "+container, err)
	}

	var count, size int64
	input := &awss3.ListObjectsV2Input{Bucket: aws.String(container)}
	for {
		out, err := c.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, mapError("list bucket "+container, err)
		}
		for _, obj := range out.Contents {
			count++
			size += aws.ToInt64(obj.Size)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	md["x-container-object-count"] = strconv.FormatInt(count, 10)
	md["x-container-bytes-used"] = strconv.FormatInt(size, 10)
	return md, nil
}

// UpdateContainer merges headers into the bucket's tag set. An empty
// value removes the tag.
func (c *Connection) UpdateContainer(ctx context.Context, container string, headers objstore.Metadata) error {
	existing := map[string]string{}
	tags, err := c.client.GetBucketTagging(ctx, &awss3.GetBucketTaggingInput{Bucket: aws.String(container)})
	switch {
	case err == nil:
		for _, tag := range tags.TagSet {
			existing[strings.ToLower(aws.ToString(tag.Key))] = aws.ToString(tag.Value)
		}
	case isNoSuchTagSet(err):
	default:
		return mapError("get bucket tags "+container, err)
	}

	for k, v := range headers {
		lk := strings.ToLower(k)
		if v == "" {
			delete(existing, lk)
			continue
		}
		existing[lk] = v
	}

	if len(existing) == 0 {
		if _, err := c.client.DeleteBucketTagging(ctx, &awss3.DeleteBucketTaggingInput{Bucket: aws.String(container)}); err != nil {
			return mapError("delete bucket tags "+container, err)
		}
		return nil
	}

	set := make([]types.Tag, 0, len(existing))
	for k, v := range existing {
		set = append(set, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	if _, err := c.client.PutBucketTagging(ctx, &awss3.PutBucketTaggingInput{
		Bucket:  aws.String(container),
		Tagging: &types.Tagging{TagSet: set},
	}); err != nil {
		return mapError("put bucket tags "+container, err)
	}
	return nil
}

// ListObjects lists every object in the bucket. The listing carries no
// content types; StatObject fills those in.
func (c *Connection) ListObjects(ctx context.Context, container string) ([]objstore.ObjectInfo, error) {
	input := &awss3.ListObjectsV2Input{Bucket: aws.String(container)}

	var infos []objstore.ObjectInfo
	for {
		out, err := c.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, mapError("list bucket "+container, err)
		}
		for _, obj := range out.Contents {
			info := objstore.ObjectInfo{
				Key:   aws.ToString(obj.Key),
				Bytes: aws.ToInt64(obj.Size),
				Hash:  strings.Trim(aws.ToString(obj.ETag), `"`),
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			infos = append(infos, info)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	return infos, nil
}

// StatObject probes a single object. A missing object is reported as
// (nil, false, nil). HeadObject cannot distinguish a missing bucket
// from a missing key; both probe as absent.
func (c *Connection) StatObject(ctx context.Context, container, key string) (*objstore.ObjectInfo, bool, error) {
	out, err := c.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, mapError("head object "+container+"/"+key, err)
	}

	info := &objstore.ObjectInfo{
		Key:         key,
		Bytes:       aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		Hash:        strings.Trim(aws.ToString(out.ETag), `"`),
	}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	return info, true, nil
}

// GetObject fetches an object's metadata and full content.
func (c *Connection) GetObject(ctx context.Context, container, key string) (objstore.Metadata, []byte, error) {
	md, body, err := c.GetObjectStream(ctx, container, key)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, nil, fmt.Errorf("s3: read object %s/%s: %w", container, key, err)
	}
	return md, data, nil
}

// GetObjectStream fetches an object's metadata and a streaming body.
// The caller must close the body.
func (c *Connection) GetObjectStream(ctx context.Context, container, key string) (objstore.Metadata, io.ReadCloser, error) {
	out, err := c.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, mapError("get object "+container+"/"+key, err)
	}

	md := objstore.Metadata{}
	if v := aws.ToString(out.ContentType); v != "" {
		md["content-type"] = v
	}
	if out.ContentLength != nil {
		md["content-length"] = strconv.FormatInt(*out.ContentLength, 10)
	}
	if v := strings.Trim(aws.ToString(out.ETag), `"`); v != "" {
		md["etag"] = v
	}
	if out.LastModified != nil {
		md["last-modified"] = out.LastModified.UTC().Format(http.TimeFormat)
	}
	for k, v := range out.Metadata {
		md["x-object-meta-"+strings.ToLower(k)] = v
	}
	return md, out.Body, nil
}

// PutObject writes an object, replacing any existing content.
func (c *Connection) PutObject(ctx context.Context, container, key string, data []byte, contentType string) error {
	input := &awss3.PutObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := c.client.PutObject(ctx, input); err != nil {
		return mapError("put object "+container+"/"+key, err)
	}
	return nil
}

// CopyObject server-side copies an object.
func (c *Connection) CopyObject(ctx context.Context, srcContainer, srcKey, dstContainer, dstKey string) error {
	source := srcContainer + "/" + srcKey
	if _, err := c.client.CopyObject(ctx, &awss3.CopyObjectInput{
		Bucket:     aws.String(dstContainer),
		Key:        aws.String(dstKey),
		CopySource: aws.String(url.PathEscape(source)),
	}); err != nil {
		return mapError("copy object "+source, err)
	}
	return nil
}

// DeleteObject removes an object. S3 deletes succeed even when the key
// is absent, so probe first to honor the not-found contract.
func (c *Connection) DeleteObject(ctx context.Context, container, key string) error {
	_, found, err := c.StatObject(ctx, container, key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("s3: delete object %s/%s: %w", container, key, objstore.ErrNotFound)
	}

	if _, err := c.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	}); err != nil {
		return mapError("delete object "+container+"/"+key, err)
	}
	return nil
}

// isNotFound matches the SDK's typed absence errors.
func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nsb *types.NoSuchBucket
	return errors.As(err, &nsb)
}

func isNoSuchTagSet(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "NoSuchTagSet"
}

// mapError converts SDK errors into objstore sentinels, keeping the
// operation in the message.
func mapError(what string, err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return fmt.Errorf("s3: %s: %w", what, objstore.ErrNotFound)
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "AccessDenied":
			return fmt.Errorf("s3: %s: %w", what, objstore.ErrForbidden)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "TokenRefreshRequired":
			return fmt.Errorf("s3: %s: %w", what, objstore.ErrUnauthorized)
		}
	}
	return fmt.Errorf("s3: %s: %w", what, err)
}
