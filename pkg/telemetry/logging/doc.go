// Package logging provides structured logging for the sidecar.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON, text, and console output
//   - A level held in a slog.LevelVar so a config reload can change it
//   - Context-aware logging with cycle IDs and trace/span IDs
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	// Components receive the underlying *slog.Logger.
//	gen := generator.New(inspector, opts, logger.Slog())
//
//	// Records logged with a context carry its fields.
//	ctx = logging.WithCycleID(ctx, id)
//	logger.InfoContext(ctx, "found peers", "peers", peers)
//
// # Runtime Level Changes
//
// Every logger derived with With or WithComponent shares the level of its
// parent, so SetLevel on the root logger applies everywhere:
//
//	_ = logger.SetLevel("debug")
package logging
