// Package objstore defines the flat object-storage protocol contract that
// the archive hierarchy is built on.
//
// A Connection addresses one storage account: a set of named containers,
// each holding objects under flat slash-delimited keys. There are no real
// directories at this layer. Implementations live in subpackages:
//
//   - swift:  HTTP implementation speaking the Swift-style storage API
//   - memory: in-memory implementation for tests and the devserver
//   - s3:     adapter over S3-compatible services via aws-sdk-go-v2
//
// Backends register themselves through RegisterFactory; callers construct
// a Connection with New after importing the desired backend package:
//
//	import _ "github.com/kbukum/archivekit/objstore/swift"
//
//	conn, err := objstore.New(ctx, cfg, nil, log)
package objstore
