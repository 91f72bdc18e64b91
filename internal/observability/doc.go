// Package observability configures structured logging and distributed
// tracing for medqa.
//
// Loggers built by NewLogger correlate every record logged with a context
// carrying a span by adding trace_id and span_id attributes, and redact
// attributes whose key names a secret (password, token and similar).
//
// InitTracing installs an OpenTelemetry tracer provider exporting either to a
// writer (provider "stdout") or to an OTLP gRPC collector (provider "otlp").
// The question pipeline opens spans on the global provider, so without
// InitTracing spans are no-ops.
package observability
