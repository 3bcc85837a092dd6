// Package logging provides structured logging for Gray Logic Blink.
//
// This package wraps Go's standard log/slog package so every component
// (pattern service, device sink, MQTT bus, HTTP API) logs with the same
// shape and default fields.
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	svcLog := logger.Component("patterns")
//	svcLog.Info("pattern started", "id", id, "source", source)
//
// Never log secrets, tokens, or passwords.
package logging
