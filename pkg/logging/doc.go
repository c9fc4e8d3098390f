// Package logging provides structured logging configuration for mockbetter.
//
// This package wraps log/slog so every component logs the same way. It
// supports configurable log levels and output formats, and carries
// request-scoped attributes through a context.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  slog.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("server started", "port", 4280)
//
// # Request scope
//
// The HTTP handler stores the request ID in the request context with
// WithRequestID. Loggers built by New add it to every record logged with a
// context method (InfoContext, DebugContext, ...):
//
//	ctx = logging.WithRequestID(ctx, id)
//	logger.DebugContext(ctx, "route matched", "tenant", tenant)
//
// # Integration
//
// Components accept a *slog.Logger via an option or a setter.
// If no logger is provided, they use logging.Nop().
package logging
