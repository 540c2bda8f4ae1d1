// Package logging provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) for a command-line tool.
//
// # Context Awareness
//
// The logger is designed to be context-aware, specifically regarding the
// identity of the scan/rebuild run producing a given log line. WithRun
// attaches a run_id field so that all logs from one invocation can be
// correlated, the CLI equivalent of the HTTP-service ray ID.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (scripted use) or console (interactive use)
//
// # Usage
//
//	log, _ := logging.New(&logging.Config{Level: "info"})
//	log.Info("scan started")
//
//	l := logging.WithRun(log, runID)
//	l.Error("scan failed", zap.Error(err))
package logging
