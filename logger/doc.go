// Package logger provides structured logging for the flowrun runtime
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("topology")
//	log.WithContext(ctx).Info("stage worker started", logger.Fields("stage", "enrich"))
package logger
