// logging.go: Pluggable logging system for the go-pkgcache library
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopkgcache

// Logger defines the pluggable logging interface for the go-pkgcache library.
//
// This interface enables users to integrate any logging framework (zap, logrus,
// zerolog, custom loggers) without external dependencies. Users must provide
// their own Logger implementation.
//
// Design principles:
//   - Zero dependencies: Interface has no external logging dependencies
//   - Performance friendly: Supports structured logging with minimal allocations
//   - Contextual logging: With() method for adding persistent context
//   - Level-based: Standard log levels (Debug, Info, Warn, Error)
//   - Structured args: Key-value pairs for structured logging
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, args ...any)

	// Info logs an info message with optional key-value pairs
	Info(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs
	Warn(msg string, args ...any)

	// Error logs an error message with optional key-value pairs
	Error(msg string, args ...any)

	// With returns a new logger with persistent context key-value pairs
	With(args ...any) Logger
}

// NoOpLogger provides a silent logger implementation for testing and minimal
// setups. It discards all log messages.
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-operation logger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Debug implements Logger interface (no-op)
func (n *NoOpLogger) Debug(msg string, args ...any) {}

// Info implements Logger interface (no-op)
func (n *NoOpLogger) Info(msg string, args ...any) {}

// Warn implements Logger interface (no-op)
func (n *NoOpLogger) Warn(msg string, args ...any) {}

// Error implements Logger interface (no-op)
func (n *NoOpLogger) Error(msg string, args ...any) {}

// With implements Logger interface (no-op)
func (n *NoOpLogger) With(args ...any) Logger {
	return n // Return same instance since it's stateless
}

// DefaultLogger returns the logger used when callers pass nil.
func DefaultLogger() Logger {
	return NewNoOpLogger()
}
