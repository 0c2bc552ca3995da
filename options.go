package archivekit

// Mode names an access mode on a container ACL.
type Mode string

// Access modes.
const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

func (m Mode) valid() bool {
	return m == ModeRead || m == ModeWrite
}

// CopyOptions controls single-object and directory copy/move operations.
type CopyOptions struct {
	// NewName renames the copied object or directory. Empty keeps the
	// source basename.
	NewName string
	// Overwrite permits replacing an existing destination. Without it
	// the destination is probed first and a conflict aborts the copy.
	Overwrite bool
}

// DownloadOptions controls downloads to the local filesystem.
type DownloadOptions struct {
	// LocalDir is the directory the file is saved under. Empty means
	// the working directory.
	LocalDir string
	// Flat disables mirroring the object's key path as local
	// directories; the file is written directly into LocalDir.
	Flat bool
	// Overwrite permits replacing an existing local file.
	Overwrite bool
}

// UploadOptions controls uploads from the local filesystem.
type UploadOptions struct {
	// RemoteDir is the directory prefix objects are written under.
	// Empty targets the container root.
	RemoteDir string
	// Overwrite permits replacing existing objects.
	Overwrite bool
}
