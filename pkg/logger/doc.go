// Package logger builds the process-wide slog.Logger. Production
// environments log JSON, everything else logs human-readable text.
package logger
