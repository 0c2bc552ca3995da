package archivekit

import (
	"context"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/kbukum/archivekit/logger"
	"github.com/kbukum/archivekit/objstore"
	"github.com/kbukum/archivekit/observability"
)

// Metadata keys maintained by the store on every container.
const (
	metaObjectCount = "x-container-object-count"
	metaBytesUsed   = "x-container-bytes-used"
	metaACLPrefix   = "x-container-"
)

// ACL sentinel entries granting anonymous access.
const (
	aclPublicRead     = ".r:*"
	aclPublicListings = ".rlistings"
)

// PublicToken is the literal marking world-readable access in AccessInfo
// lists.
const PublicToken = "PUBLIC"

// AccessInfo lists the identities granted access to a container, by mode.
// Entries are usernames where the project's user map could resolve them,
// raw user ids otherwise, plus the PUBLIC literal for anonymous access.
type AccessInfo struct {
	Read  []string
	Write []string
}

// Container is a named bucket of objects within a project, emulating
// directory semantics over the store's flat slash-containing keys.
//
// A Container is not safe for concurrent use; callers must serialize
// access to one instance.
type Container struct {
	// Name is the container name, unique within its owning project.
	Name string

	project *Project
	log     *logger.Logger

	mu       sync.Mutex
	metadata objstore.Metadata
}

var (
	_ Reader = (*Container)(nil)
	_ Writer = (*Container)(nil)
)

func newContainer(project *Project, name string) *Container {
	return &Container{
		Name:    name,
		project: project,
		log: project.log.WithFields(map[string]interface{}{
			logger.FieldContainer: name,
		}),
	}
}

func (c *Container) String() string {
	return c.project.Name + "/" + c.Name
}

// Project returns the owning project.
func (c *Container) Project() *Project {
	return c.project
}

// Metadata returns the container's metadata headers (object count, bytes
// used, ACL entries). The value is fetched once and cached until an
// ACL-mutating call invalidates it.
func (c *Container) Metadata(ctx context.Context) (objstore.Metadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metadata != nil {
		return c.metadata, nil
	}

	conn, err := c.project.connection(ctx)
	if err != nil {
		return nil, err
	}
	md, err := conn.HeadContainer(ctx, c.Name)
	if err != nil {
		return nil, storeError(err, "fetching metadata for container %q", c.Name)
	}
	c.metadata = md
	return md, nil
}

func (c *Container) invalidateMetadata() {
	c.mu.Lock()
	c.metadata = nil
	c.mu.Unlock()
}

// List returns every object in the container as a File snapshot.
func (c *Container) List(ctx context.Context) ([]*File, error) {
	conn, err := c.project.connection(ctx)
	if err != nil {
		return nil, err
	}
	infos, err := conn.ListObjects(ctx, c.Name)
	if err != nil {
		return nil, storeError(err, "listing container %q", c.Name)
	}

	files := make([]*File, len(infos))
	for i, info := range infos {
		files[i] = &File{
			Name:         info.Key,
			Bytes:        info.Bytes,
			ContentType:  info.ContentType,
			Hash:         info.Hash,
			LastModified: info.LastModified,
			container:    c,
		}
	}
	return files, nil
}

// Get returns the File at the given path. The lookup scans a full
// listing.
func (c *Container) Get(ctx context.Context, filePath string) (*File, error) {
	files, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.Name == filePath {
			return f, nil
		}
	}
	return nil, newError(ErrCodeNotFound, "path %q does not exist in container %q", filePath, c.Name)
}

// Count returns the number of objects in the container, as reported by
// the container metadata.
func (c *Container) Count(ctx context.Context) (int64, error) {
	md, err := c.Metadata(ctx)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(md[metaObjectCount], 10, 64)
	if err != nil {
		return 0, wrapError(ErrCodeTransport, err, "container %q metadata carries no object count", c.Name)
	}
	return n, nil
}

// Size returns the total size of all objects in the requested unit, as
// reported by the container metadata.
func (c *Container) Size(ctx context.Context, unit Unit) (float64, error) {
	md, err := c.Metadata(ctx)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(md[metaBytesUsed], 10, 64)
	if err != nil {
		return 0, wrapError(ErrCodeTransport, err, "container %q metadata carries no byte count", c.Name)
	}
	return ScaleBytes(n, unit)
}

// Upload writes local files into the container, sequentially. Each
// object key is opts.RemoteDir plus the local basename. It returns the
// keys written; on the first failure it returns what was uploaded so far
// with the error.
//
// Bulk transfers are faster through a parallel external uploader; this
// method round-trips one file at a time.
func (c *Container) Upload(ctx context.Context, localPaths []string, opts UploadOptions) ([]string, error) {
	conn, err := c.project.connection(ctx)
	if err != nil {
		return nil, err
	}

	var uploaded []string
	for _, local := range localPaths {
		remote := joinKey(opts.RemoteDir, filepath.Base(local))
		if !opts.Overwrite {
			if err := c.guardDestination(ctx, conn, remote); err != nil {
				return uploaded, err
			}
		}

		data, err := os.ReadFile(local)
		if err != nil {
			return uploaded, wrapError(ErrCodeTransport, err, "reading local file %s", local)
		}
		contentType := mime.TypeByExtension(filepath.Ext(local))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := conn.PutObject(ctx, c.Name, remote, data, contentType); err != nil {
			return uploaded, storeError(err, "uploading %q", remote)
		}

		c.log.Debug("uploaded object", map[string]interface{}{
			logger.FieldObject: remote,
		})
		uploaded = append(uploaded, remote)
	}
	return uploaded, nil
}

// Download fetches one object and writes it under opts.LocalDir,
// mirroring the object's key path as local directories unless opts.Flat
// is set. It returns the local path written.
func (c *Container) Download(ctx context.Context, filePath string, opts DownloadOptions) (string, error) {
	conn, err := c.project.connection(ctx)
	if err != nil {
		return "", err
	}
	_, data, err := conn.GetObject(ctx, c.Name, filePath)
	if err != nil {
		return "", storeError(err, "downloading %q", filePath)
	}
	return writeLocal(filePath, data, opts)
}

// Read fetches one object into memory, decoding textual content per
// opts. See ReadOptions for the decoding rules.
func (c *Container) Read(ctx context.Context, filePath string, opts ReadOptions) (*Content, error) {
	conn, err := c.project.connection(ctx)
	if err != nil {
		return nil, err
	}
	md, data, err := conn.GetObject(ctx, c.Name, filePath)
	if err != nil {
		return nil, storeError(err, "reading %q", filePath)
	}
	return decodeContent(data, md["content-type"], opts)
}

// Copy copies one object into targetDir. The new name defaults to the
// source basename. Unless opts.Overwrite is set the destination is
// probed first and an existing object aborts with a conflict error; the
// check and the copy are separate round-trips, so the guard is best
// effort under concurrent writers, not a guarantee.
func (c *Container) Copy(ctx context.Context, filePath, targetDir string, opts CopyOptions) error {
	conn, err := c.project.connection(ctx)
	if err != nil {
		return err
	}
	dst := joinKey(targetDir, defaultName(opts.NewName, filePath))
	return c.copyObject(ctx, conn, filePath, dst, opts.Overwrite)
}

// Move moves one object into targetDir: a copy followed by a delete of
// the source. The overwrite guard matches Copy and is probed before the
// source, so repeating a completed Move reports a conflict rather than
// a missing source.
func (c *Container) Move(ctx context.Context, filePath, targetDir string, opts CopyOptions) error {
	conn, err := c.project.connection(ctx)
	if err != nil {
		return err
	}
	dst := joinKey(targetDir, defaultName(opts.NewName, filePath))
	return c.moveObject(ctx, conn, filePath, dst, opts.Overwrite)
}

// Delete removes one object.
func (c *Container) Delete(ctx context.Context, filePath string) error {
	conn, err := c.project.connection(ctx)
	if err != nil {
		return err
	}
	if err := conn.DeleteObject(ctx, c.Name, filePath); err != nil {
		return storeError(err, "deleting %q", filePath)
	}
	c.log.Debug("deleted object", map[string]interface{}{
		logger.FieldObject: filePath,
	})
	return nil
}

// CopyDir copies every object under dir into targetDir, preserving each
// object's relative sub-path under targetDir/newName/. Individual
// failures (such as overwrite conflicts) are recorded and the batch
// continues; partial completion is a defined outcome with no rollback.
func (c *Container) CopyDir(ctx context.Context, dir, targetDir string, opts CopyOptions) (*BatchResult, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanBulkOperation)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrOperationName, "copy_dir")
	observability.SetSpanAttribute(ctx, observability.AttrContainer, c.Name)

	conn, matched, prefix, err := c.directoryFiles(ctx, dir)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	base := joinKey(targetDir, defaultName(opts.NewName, strings.TrimSuffix(prefix, "/")))
	result := &BatchResult{}
	for _, f := range matched {
		dst := joinKey(base, strings.TrimPrefix(f.Name, prefix))
		err := c.copyObject(ctx, conn, f.Name, dst, opts.Overwrite)
		result.Items = append(result.Items, ItemResult{Source: f.Name, Target: dst, Err: err})
	}
	return result, nil
}

// MoveDir moves every object under dir into targetDir. Semantics match
// CopyDir with each source deleted after its copy. Renaming a directory
// is MoveDir to the same parent with a new name.
func (c *Container) MoveDir(ctx context.Context, dir, targetDir string, opts CopyOptions) (*BatchResult, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanBulkOperation)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrOperationName, "move_dir")
	observability.SetSpanAttribute(ctx, observability.AttrContainer, c.Name)

	conn, matched, prefix, err := c.directoryFiles(ctx, dir)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	base := joinKey(targetDir, defaultName(opts.NewName, strings.TrimSuffix(prefix, "/")))
	result := &BatchResult{}
	for _, f := range matched {
		dst := joinKey(base, strings.TrimPrefix(f.Name, prefix))
		err := c.moveObject(ctx, conn, f.Name, dst, opts.Overwrite)
		result.Items = append(result.Items, ItemResult{Source: f.Name, Target: dst, Err: err})
	}
	return result, nil
}

// DeleteDir removes every object under dir. Individual failures are
// recorded and the batch continues.
func (c *Container) DeleteDir(ctx context.Context, dir string) (*BatchResult, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanBulkOperation)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrOperationName, "delete_dir")
	observability.SetSpanAttribute(ctx, observability.AttrContainer, c.Name)

	conn, matched, _, err := c.directoryFiles(ctx, dir)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	result := &BatchResult{}
	for _, f := range matched {
		var itemErr error
		if err := conn.DeleteObject(ctx, c.Name, f.Name); err != nil {
			itemErr = storeError(err, "deleting %q", f.Name)
		}
		result.Items = append(result.Items, ItemResult{Source: f.Name, Err: itemErr})
	}
	return result, nil
}

// AccessControl returns the container's access lists with opaque user
// ids resolved to usernames through the project's user map. Unresolved
// ids pass through unchanged; anonymous-access sentinels collapse to the
// PUBLIC literal.
func (c *Container) AccessControl(ctx context.Context) (*AccessInfo, error) {
	raw, err := c.rawACL(ctx)
	if err != nil {
		return nil, err
	}
	users, err := c.project.Users(ctx)
	if err != nil {
		return nil, err
	}
	return &AccessInfo{
		Read:  resolveACL(raw[ModeRead], users),
		Write: resolveACL(raw[ModeWrite], users),
	}, nil
}

// GrantAccess grants the given user access to this container. The
// username must resolve through the project's user map. The cached
// metadata is invalidated afterwards: the store does not reflect the
// update synchronously and another actor may race it.
func (c *Container) GrantAccess(ctx context.Context, username string, mode Mode) error {
	if !mode.valid() {
		return newError(ErrCodeValidation, "mode must be one of [%s %s], got %q", ModeRead, ModeWrite, mode)
	}

	users, err := c.project.Users(ctx)
	if err != nil {
		return err
	}
	userID := ""
	for id, name := range users {
		if name == username {
			userID = id
			break
		}
	}
	if userID == "" {
		return newError(ErrCodeUnknownUser, "username %q is not in the user map of project %q", username, c.project.Name)
	}

	raw, err := c.rawACL(ctx)
	if err != nil {
		return err
	}
	entries := append(raw[mode], c.project.ID+":"+userID)

	conn, err := c.project.connection(ctx)
	if err != nil {
		return err
	}
	headers := objstore.Metadata{
		metaACLPrefix + string(mode): strings.Join(entries, ","),
	}
	if err := conn.UpdateContainer(ctx, c.Name, headers); err != nil {
		return storeError(err, "updating access on container %q", c.Name)
	}

	c.invalidateMetadata()
	c.log.Info("granted access", map[string]interface{}{
		"username": username,
		"mode":     string(mode),
	})
	return nil
}

// rawACL returns the unresolved ACL entries per mode.
func (c *Container) rawACL(ctx context.Context) (map[Mode][]string, error) {
	md, err := c.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	raw := make(map[Mode][]string, 2)
	for _, mode := range []Mode{ModeRead, ModeWrite} {
		if v := md[metaACLPrefix+string(mode)]; v != "" {
			raw[mode] = strings.Split(v, ",")
		}
	}
	return raw, nil
}

// directoryFiles normalizes dir to exactly one trailing slash, lists the
// container and filters by prefix membership. An empty match set is a
// not-found error.
func (c *Container) directoryFiles(ctx context.Context, dir string) (objstore.Connection, []*File, string, error) {
	conn, err := c.project.connection(ctx)
	if err != nil {
		return nil, nil, "", err
	}

	prefix := normalizeDir(dir)
	files, err := c.List(ctx)
	if err != nil {
		return nil, nil, "", err
	}

	var matched []*File
	for _, f := range files {
		if strings.HasPrefix(f.Name, prefix) {
			matched = append(matched, f)
		}
	}
	if len(matched) == 0 {
		return nil, nil, "", newError(ErrCodeNotFound, "directory %q does not exist in container %q", dir, c.Name)
	}
	return conn, matched, prefix, nil
}

// copyObject is the guarded single-object copy primitive.
func (c *Container) copyObject(ctx context.Context, conn objstore.Connection, srcKey, dstKey string, overwrite bool) error {
	if !overwrite {
		if err := c.guardDestination(ctx, conn, dstKey); err != nil {
			return err
		}
	}
	if err := conn.CopyObject(ctx, c.Name, srcKey, c.Name, dstKey); err != nil {
		return storeError(err, "copying %q to %q", srcKey, dstKey)
	}
	c.log.Debug("copied object", map[string]interface{}{
		logger.FieldObject: srcKey,
		"target":           dstKey,
	})
	return nil
}

// moveObject is copyObject followed by a delete of the source.
func (c *Container) moveObject(ctx context.Context, conn objstore.Connection, srcKey, dstKey string, overwrite bool) error {
	if err := c.copyObject(ctx, conn, srcKey, dstKey, overwrite); err != nil {
		return err
	}
	if err := conn.DeleteObject(ctx, c.Name, srcKey); err != nil {
		return storeError(err, "deleting moved source %q", srcKey)
	}
	return nil
}

// guardDestination fails with a conflict error when the destination key
// already exists. Existence is probed as a value, not an error.
func (c *Container) guardDestination(ctx context.Context, conn objstore.Connection, key string) error {
	_, exists, err := conn.StatObject(ctx, c.Name, key)
	if err != nil {
		return storeError(err, "probing destination %q", key)
	}
	if exists {
		return newError(ErrCodeConflict, "destination %q already exists, set Overwrite to replace it", key)
	}
	return nil
}

// resolveACL translates raw ACL entries for display. Sentinel public
// markers collapse to one PUBLIC token appended last; per-identity
// entries carry the user id after the scope separator.
func resolveACL(entries []string, users map[string]string) []string {
	var out []string
	public := false
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		switch entry {
		case "":
			continue
		case aclPublicRead, aclPublicListings:
			public = true
		default:
			id := entry
			if i := strings.Index(entry, ":"); i >= 0 {
				id = entry[i+1:]
			}
			if name, ok := users[id]; ok {
				out = append(out, name)
			} else {
				out = append(out, id)
			}
		}
	}
	if public {
		out = append(out, PublicToken)
	}
	return out
}

// storeError converts a Connection failure into a domain error. Missing
// containers and objects map to not-found; everything else is an opaque
// transport failure.
func storeError(err error, format string, args ...interface{}) *Error {
	code := ErrCodeTransport
	if objstore.IsNotFound(err) {
		code = ErrCodeNotFound
	}
	return wrapError(code, err, format, args...)
}

// normalizeDir returns dir with exactly one trailing slash.
func normalizeDir(dir string) string {
	return strings.TrimRight(dir, "/") + "/"
}

// joinKey joins key segments with slashes, dropping empty segments.
func joinKey(segments ...string) string {
	return path.Join(segments...)
}

// defaultName returns name, or the basename of key when name is empty.
func defaultName(name, key string) string {
	if name != "" {
		return name
	}
	return path.Base(key)
}

// writeLocal writes object bytes under opts.LocalDir, creating the local
// directory tree mirroring the object's key path unless opts.Flat is
// set. Existing local files abort with a conflict error unless
// opts.Overwrite permits replacement.
func writeLocal(key string, data []byte, opts DownloadOptions) (string, error) {
	dir := opts.LocalDir
	if dir == "" {
		dir = "."
	}
	if !opts.Flat {
		if i := strings.LastIndex(key, "/"); i > 0 {
			dir = filepath.Join(dir, filepath.FromSlash(key[:i]))
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", wrapError(ErrCodeTransport, err, "creating local directory %s", dir)
	}

	local := filepath.Join(dir, path.Base(key))
	if !opts.Overwrite {
		if _, err := os.Stat(local); err == nil {
			return "", newError(ErrCodeConflict, "local file %s already exists, set Overwrite to replace it", local)
		}
	}
	if err := os.WriteFile(local, data, 0o644); err != nil {
		return "", wrapError(ErrCodeTransport, err, "writing %s", local)
	}
	return local, nil
}
