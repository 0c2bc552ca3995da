package archivekit

import (
	"context"
	"strings"
	"time"
)

// Reader is the read-only container surface, shared by Container and
// PublicContainer.
type Reader interface {
	List(ctx context.Context) ([]*File, error)
	Get(ctx context.Context, filePath string) (*File, error)
	Count(ctx context.Context) (int64, error)
	Size(ctx context.Context, unit Unit) (float64, error)
	Download(ctx context.Context, filePath string, opts DownloadOptions) (string, error)
	Read(ctx context.Context, filePath string, opts ReadOptions) (*Content, error)
}

// Writer is the mutating container surface. Container implements it;
// PublicContainer intentionally does not.
type Writer interface {
	Upload(ctx context.Context, localPaths []string, opts UploadOptions) ([]string, error)
	Copy(ctx context.Context, filePath, targetDir string, opts CopyOptions) error
	Move(ctx context.Context, filePath, targetDir string, opts CopyOptions) error
	Delete(ctx context.Context, filePath string) error
	CopyDir(ctx context.Context, dir, targetDir string, opts CopyOptions) (*BatchResult, error)
	MoveDir(ctx context.Context, dir, targetDir string, opts CopyOptions) (*BatchResult, error)
	DeleteDir(ctx context.Context, dir string) (*BatchResult, error)
}

// File describes one stored object as of the listing or probe that
// produced it. It is a point-in-time snapshot, never refreshed in place:
// operations delegate to the owning container using the captured name, so
// a concurrent external mutation can invalidate it silently.
type File struct {
	// Name is the full slash-delimited object key.
	Name string
	// Bytes is the object size in bytes.
	Bytes int64
	// ContentType is the stored MIME type.
	ContentType string
	// Hash is the store's content hash, if reported.
	Hash string
	// LastModified is the server-side modification time.
	LastModified time.Time

	container Reader
}

func (f *File) String() string {
	return f.Name
}

// Dir returns all path segments but the last, empty for top-level keys.
func (f *File) Dir() string {
	i := strings.LastIndex(f.Name, "/")
	if i < 0 {
		return ""
	}
	return f.Name[:i]
}

// Basename returns the last path segment.
func (f *File) Basename() string {
	i := strings.LastIndex(f.Name, "/")
	return f.Name[i+1:]
}

// Size returns the file size in the requested unit.
func (f *File) Size(unit Unit) (float64, error) {
	return ScaleBytes(f.Bytes, unit)
}

func (f *File) reader() (Reader, error) {
	if f.container == nil {
		return nil, newError(ErrCodeDetached, "file %q has no owning container", f.Name)
	}
	return f.container, nil
}

func (f *File) writer() (Writer, error) {
	r, err := f.reader()
	if err != nil {
		return nil, err
	}
	w, ok := r.(Writer)
	if !ok {
		return nil, newError(ErrCodeReadOnly, "container of %q does not support mutating operations", f.Name)
	}
	return w, nil
}

// Download saves this file under opts.LocalDir via the owning container.
func (f *File) Download(ctx context.Context, opts DownloadOptions) (string, error) {
	r, err := f.reader()
	if err != nil {
		return "", err
	}
	return r.Download(ctx, f.Name, opts)
}

// Read returns this file's contents via the owning container.
func (f *File) Read(ctx context.Context, opts ReadOptions) (*Content, error) {
	r, err := f.reader()
	if err != nil {
		return nil, err
	}
	return r.Read(ctx, f.Name, opts)
}

// Copy copies this file to the target directory.
func (f *File) Copy(ctx context.Context, targetDir string, opts CopyOptions) error {
	w, err := f.writer()
	if err != nil {
		return err
	}
	return w.Copy(ctx, f.Name, targetDir, opts)
}

// Move moves this file to the target directory. The File keeps its
// captured name and no longer resolves afterwards.
func (f *File) Move(ctx context.Context, targetDir string, opts CopyOptions) error {
	w, err := f.writer()
	if err != nil {
		return err
	}
	return w.Move(ctx, f.Name, targetDir, opts)
}

// Rename moves this file within its own directory.
func (f *File) Rename(ctx context.Context, newName string, overwrite bool) error {
	return f.Move(ctx, f.Dir(), CopyOptions{NewName: newName, Overwrite: overwrite})
}

// Delete removes this file from its container.
func (f *File) Delete(ctx context.Context) error {
	w, err := f.writer()
	if err != nil {
		return err
	}
	return w.Delete(ctx, f.Name)
}
