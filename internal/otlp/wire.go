// Package otlp implements the OTLP mapper (C6): a pure function from
// records to the OTLP/HTTP JSON log wire model (§6.1). The wire types
// below are hand-rolled to match the spec's camelCase JSON fields
// exactly, rather than reused from the OTel SDK or collector's
// protobuf-backed types -- this pipeline is JSON-only by design
// (Non-goal: no protobuf/gRPC encoding).
package otlp

// SchemaURL is the schema every ResourceLogs/ScopeLogs entry is stamped
// with.
const SchemaURL = "https://opentelemetry.io/schemas/1.30.0"

// ScopeName and ScopeVersion identify this mapper as the emitting
// instrumentation scope.
const (
	ScopeName    = "github.com/bc-dunia/archivalog/internal/otlp"
	ScopeVersion = "1.0.0"
)

// AnyValue is a discriminated union with exactly one field set,
// mirroring the OTLP common proto's JSON projection.
type AnyValue struct {
	StringValue *string       `json:"stringValue,omitempty"`
	BoolValue   *bool         `json:"boolValue,omitempty"`
	IntValue    *int64        `json:"intValue,omitempty"`
	DoubleValue *float64      `json:"doubleValue,omitempty"`
	ArrayValue  *ArrayValue   `json:"arrayValue,omitempty"`
	KvlistValue *KeyValueList `json:"kvlistValue,omitempty"`
}

// ArrayValue wraps an ordered list of AnyValue.
type ArrayValue struct {
	Values []AnyValue `json:"values"`
}

// KeyValue is one attribute: a string key and an AnyValue.
type KeyValue struct {
	Key   string   `json:"key"`
	Value AnyValue `json:"value"`
}

// KeyValueList wraps an ordered list of KeyValue for AnyValue's
// kvlistValue variant; resource attribute sets are plain []KeyValue.
type KeyValueList struct {
	Values []KeyValue `json:"values"`
}

// LogRecord is one OTLP log record.
type LogRecord struct {
	TimeUnixNano           *uint64    `json:"timeUnixNano,omitempty"`
	ObservedTimeUnixNano   *uint64    `json:"observedTimeUnixNano,omitempty"`
	SeverityNumber         *int       `json:"severityNumber,omitempty"`
	SeverityText           string     `json:"severityText,omitempty"`
	Body                   *AnyValue  `json:"body,omitempty"`
	Attributes             []KeyValue `json:"attributes,omitempty"`
	DroppedAttributesCount int        `json:"droppedAttributesCount,omitempty"`
	TraceID                string     `json:"traceId,omitempty"`
	SpanID                 string     `json:"spanId,omitempty"`
}

// InstrumentationScope identifies the library producing the log records.
type InstrumentationScope struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ScopeLogs groups log records under one instrumentation scope.
type ScopeLogs struct {
	Scope      InstrumentationScope `json:"scope"`
	LogRecords []LogRecord          `json:"logRecords"`
	SchemaURL  string               `json:"schemaUrl"`
}

// Resource identifies the producing service via its attribute set.
type Resource struct {
	Attributes             []KeyValue `json:"attributes"`
	DroppedAttributesCount int        `json:"droppedAttributesCount,omitempty"`
}

// ResourceLogs groups ScopeLogs under one resource (one
// (service.name, service.version) pair).
type ResourceLogs struct {
	Resource  Resource    `json:"resource"`
	ScopeLogs []ScopeLogs `json:"scopeLogs"`
	SchemaURL string      `json:"schemaUrl"`
}

// ExportLogsServiceRequest is the top-level POST body (§6.1).
type ExportLogsServiceRequest struct {
	ResourceLogs []ResourceLogs `json:"resourceLogs"`
}

// ExportLogsPartialSuccess is the partialSuccess field of the response.
// The wire tag is rejectedLogRecords: this is the field name the real
// OTLP/HTTP collector sends, even though the prose elsewhere says
// rejectedLogsRecords; decoding against an actual collector response
// requires the real spelling.
type ExportLogsPartialSuccess struct {
	RejectedLogRecords int64  `json:"rejectedLogRecords"`
	ErrorMessage       string `json:"errorMessage"`
}

// ExportLogsServiceResponse is the collector's JSON response shape.
type ExportLogsServiceResponse struct {
	PartialSuccess *ExportLogsPartialSuccess `json:"partialSuccess,omitempty"`
}

func stringValue(s string) AnyValue  { return AnyValue{StringValue: &s} }
func boolValue(b bool) AnyValue      { return AnyValue{BoolValue: &b} }
func intValue(i int64) AnyValue      { return AnyValue{IntValue: &i} }
func doubleValue(f float64) AnyValue { return AnyValue{DoubleValue: &f} }
