// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels. Request-scoped loggers travel through the context:
// middleware attaches a logger carrying the trace ID with WithLogger, and lower layers
// pick it up with FromContext or FromContextOrDefault.
package logger
