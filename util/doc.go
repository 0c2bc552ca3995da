// Package util provides small generic helpers shared across archivekit.
//
// It includes slice and map helpers, size parsing and secret masking for
// log output.
package util
