// Package logger configures the process-wide slog JSON logger and moves
// request- and connection-scoped loggers through a context.Context.
package logger
