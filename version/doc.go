// Package version provides the archivekit library version.
//
// The version may be overridden at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/archivekit/version.Version=1.0.0"
//
// It is reported in the User-Agent header of every request the library
// makes.
package version
