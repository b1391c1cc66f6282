package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSlogSinkEmitsJSONLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSlogSink(&buf)

	sink.ExportTransportError(errors.New("dial tcp: connection refused"))

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "export_transport_error" {
		t.Fatalf("unexpected msg: %v", line["msg"])
	}
	if !strings.Contains(line["error"].(string), "connection refused") {
		t.Fatalf("unexpected error field: %v", line["error"])
	}
}

func TestSlogSinkMapperDroppedAttribute(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSlogSink(&buf)

	sink.MapperDroppedAttribute("weird_key", nil)

	if !strings.Contains(buf.String(), "mapper_dropped_attribute") {
		t.Fatalf("expected dropped-attribute event, got %q", buf.String())
	}
}

func TestNoopSinkDiscardsEverything(t *testing.T) {
	var sink Sink = NoopSink{}
	sink.ExportSuccess(10)
	sink.ProducerRetry(1, errors.New("boom"))
	// Reaching here without panicking is the assertion.
}
