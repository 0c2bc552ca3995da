// Package logger provides structured logging for archivekit using zerolog.
//
// Library components are silent by default (logger.Nop()); callers opt in
// by passing a configured logger. It supports JSON and console output
// formats, level configuration, and component-scoped loggers with
// structured fields.
//
// # Usage
//
//	log := logger.NewFromEnv("archivekit").WithComponent("container")
//	log.Info("copy finished", logger.Fields("count", 12))
package logger
