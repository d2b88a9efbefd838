// Package logger configures the process-wide slog JSON logger and carries
// request-scoped loggers (for example one tagged with a user ID) through a
// context.Context.
package logger
