// Package logging provides the fallback sink (§9 glossary: "local log
// function used by the exporter to surface its own diagnostics") and the
// structured JSON logger backing it. The wrapped-slog-with-named-event-
// methods shape is carried over from the teacher's
// internal/events.EventLogger, generalized from session/stage lifecycle
// events to the pipeline's own vocabulary (export outcomes, mapper
// attribute drops, producer retries).
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Sink is the fallback sink contract used by the mapper (C6) and the
// exporter (C7) to surface local diagnostics without blocking the data
// plane. MapperDroppedAttribute and the Export* failure methods each
// correspond to one of the error kinds in the pipeline's error handling
// design (§7); ExportSuccess, ProducerRetry and ProducerExhausted report
// outcomes that have no error kind of their own.
type Sink interface {
	MapperDroppedAttribute(key string, value any)
	ExportSuccess(batchSize int)
	ExportTransportError(err error)
	ExportServerError(status int, body string)
	ExportPartialSuccess(rejected int64, message string)
	ExportPartialWarning(message string)
	ProducerRetry(attempt int, cause error)
	ProducerExhausted(attempts int, cause error)
}

// SlogSink implements Sink with a JSON-handler *slog.Logger, mirroring
// NewEventLogger's construction (JSON output). The handler level is
// Debug, so export_success events are written too; no base attributes
// are attached.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink builds a sink writing JSON lines to w.
func NewSlogSink(w io.Writer) *SlogSink {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &SlogSink{logger: slog.New(handler)}
}

// NewStdoutSink is the production default: JSON lines to stdout.
func NewStdoutSink() *SlogSink {
	return NewSlogSink(os.Stdout)
}

func (s *SlogSink) MapperDroppedAttribute(key string, value any) {
	s.logger.Warn("mapper_dropped_attribute",
		"key", key,
		"value", value,
	)
}

func (s *SlogSink) ExportSuccess(batchSize int) {
	s.logger.Debug("export_success",
		"batch_size", batchSize,
	)
}

func (s *SlogSink) ExportTransportError(err error) {
	s.logger.Error("export_transport_error",
		"error", err.Error(),
	)
}

func (s *SlogSink) ExportServerError(status int, body string) {
	s.logger.Error("export_server_error",
		"status", status,
		"body", body,
	)
}

func (s *SlogSink) ExportPartialSuccess(rejected int64, message string) {
	s.logger.Error("export_partial_success",
		"rejected_log_records", rejected,
		"message", message,
	)
}

func (s *SlogSink) ExportPartialWarning(message string) {
	s.logger.Warn("export_partial_warning",
		"message", message,
	)
}

func (s *SlogSink) ProducerRetry(attempt int, cause error) {
	s.logger.Warn("producer_retry",
		"attempt", attempt,
		"cause", cause.Error(),
	)
}

func (s *SlogSink) ProducerExhausted(attempts int, cause error) {
	s.logger.Error("producer_exhausted",
		"attempts", attempts,
		"cause", cause.Error(),
	)
}

// NoopSink discards every event. Useful for tests and for the rare
// caller that genuinely wants the exporter/mapper silent.
type NoopSink struct{}

func (NoopSink) MapperDroppedAttribute(string, any) {}
func (NoopSink) ExportSuccess(int)                  {}
func (NoopSink) ExportTransportError(error)         {}
func (NoopSink) ExportServerError(int, string)      {}
func (NoopSink) ExportPartialSuccess(int64, string) {}
func (NoopSink) ExportPartialWarning(string)        {}
func (NoopSink) ProducerRetry(int, error)           {}
func (NoopSink) ProducerExhausted(int, error)       {}
