package otlp

import (
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/bc-dunia/archivalog/internal/record"
)

// Reserved record keys extracted onto the LogRecord skeleton (§6.2).
// Every other key, including "message" and "error", flows into the
// body kvlistValue untouched. service.name/service.version reuse the
// semconv resource-attribute key constants, the same constants the
// teacher tags its own traces/metrics Resource with.
const (
	keyTimeUnixNano   = "timeUnixNano"
	keySeverityNumber = "severityNumber"
	keySeverityText   = "severityText"
	keyTraceID        = "traceId"
	keySpanID         = "spanId"
)

var (
	keyServiceName    = string(semconv.ServiceNameKey)
	keyServiceVersion = string(semconv.ServiceVersionKey)
)

const (
	defaultServiceName    = "unknown"
	defaultServiceVersion = "0.0.0-unknown"
)

// severityByNumber is the exhaustive severityNumber<->severityText mapping
// (§6.2); any other pairing is inconsistent and treated as no severity.
var severityByNumber = map[int64]string{
	5:  "debug",
	13: "warn",
	21: "fatal",
}

// DropSink is the minimal fallback-sink contract the mapper needs:
// report one dropped attribute. Declared locally, rather than importing
// internal/logging, to keep the mapper's only dependency its own input
// shape; logging.Sink satisfies this interface structurally.
type DropSink interface {
	MapperDroppedAttribute(key string, value any)
}

// resourceAttributes builds the Resource.attributes list the same way
// the teacher builds a trace/metric Resource's attribute set --
// semconv.ServiceName/semconv.ServiceVersion KeyValue pairs -- then
// flattens each into this package's own wire KeyValue, since the spec
// mandates hand-rolled JSON rather than the SDK's resource encoding.
func resourceAttributes(name, version string) []KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
		semconv.ServiceVersion(version),
	}
	out := make([]KeyValue, len(attrs))
	for i, a := range attrs {
		out[i] = KeyValue{Key: string(a.Key), Value: stringValue(a.Value.AsString())}
	}
	return out
}

// resourceKey is the deterministic, collision-free grouping key: the
// byte length of service.name prefixes the concatenation, so the split
// point between name and version is fixed and distinct (name, version)
// pairs can never produce the same key.
func resourceKey(name, version string) string {
	return strconv.Itoa(len(name)) + ":" + name + version
}

// Map implements the OTLP Mapper (C6, §4.5): a pure function of the
// input records and the current time, grouping by (service.name,
// service.version) and converting each record's non-reserved keys into
// an OTLP body kvlistValue.
func Map(now time.Time, records []record.Record, sink DropSink) ExportLogsServiceRequest {
	type group struct {
		name, version string
		logs          []LogRecord
	}

	order := make([]string, 0)
	groups := make(map[string]*group)
	observed := uint64(now.UnixNano())

	for _, rec := range records {
		name, _ := rec.StringField(keyServiceName)
		if name == "" {
			name = defaultServiceName
		}
		version, _ := rec.StringField(keyServiceVersion)
		if version == "" {
			version = defaultServiceVersion
		}

		key := resourceKey(name, version)
		g, ok := groups[key]
		if !ok {
			g = &group{name: name, version: version}
			groups[key] = g
			order = append(order, key)
		}

		g.logs = append(g.logs, mapRecord(rec, observed, sink))
	}

	out := ExportLogsServiceRequest{ResourceLogs: make([]ResourceLogs, 0, len(order))}
	for _, key := range order {
		g := groups[key]
		if len(g.logs) == 0 {
			continue
		}
		out.ResourceLogs = append(out.ResourceLogs, ResourceLogs{
			Resource: Resource{
				Attributes: resourceAttributes(g.name, g.version),
			},
			ScopeLogs: []ScopeLogs{
				{
					Scope:      InstrumentationScope{Name: ScopeName, Version: ScopeVersion},
					LogRecords: g.logs,
					SchemaURL:  SchemaURL,
				},
			},
			SchemaURL: SchemaURL,
		})
	}
	return out
}

func mapRecord(rec record.Record, observedTimeUnixNano uint64, sink DropSink) LogRecord {
	lr := LogRecord{ObservedTimeUnixNano: &observedTimeUnixNano}

	if t, ok := rec.IntField(keyTimeUnixNano); ok {
		u := uint64(t)
		lr.TimeUnixNano = &u
	}
	if n, text, ok := severity(rec); ok {
		i := int(n)
		lr.SeverityNumber = &i
		lr.SeverityText = text
	}
	if s, ok := rec.StringField(keyTraceID); ok {
		lr.TraceID = s
	}
	if s, ok := rec.StringField(keySpanID); ok {
		lr.SpanID = s
	}

	body := rec.WithoutKeys(
		keyTimeUnixNano, keySeverityNumber, keySeverityText,
		keyTraceID, keySpanID, keyServiceName, keyServiceVersion,
	)

	kv, dropped := convertObject(body, sink)
	lr.Body = &AnyValue{KvlistValue: &KeyValueList{Values: kv}}
	lr.DroppedAttributesCount = dropped

	return lr
}

// severity extracts a record's severity only when both severityNumber and
// severityText are present, in-enum, and mutually consistent (§3, §6.2); a
// record with only one of the two, or an inconsistent/out-of-enum pair, is
// treated as having no severity.
func severity(rec record.Record) (number int64, text string, ok bool) {
	n, hasNumber := rec.IntField(keySeverityNumber)
	s, hasText := rec.StringField(keySeverityText)
	if !hasNumber || !hasText {
		return 0, "", false
	}
	want, known := severityByNumber[n]
	if !known || want != s {
		return 0, "", false
	}
	return n, s, true
}

// convertObject converts an ordered record into an ordered list of
// KeyValue, recursing through arrays and nested objects per §4.5 step 4.
func convertObject(rec record.Record, sink DropSink) ([]KeyValue, int) {
	out := make([]KeyValue, 0, len(rec))
	dropped := 0
	for _, f := range rec {
		v, ok := convertValue(f.Value, sink)
		if !ok {
			dropped++
			sink.MapperDroppedAttribute(f.Key, f.Value)
			continue
		}
		out = append(out, KeyValue{Key: f.Key, Value: v})
	}
	return out, dropped
}

func convertValue(v record.Value, sink DropSink) (AnyValue, bool) {
	switch v.Kind {
	case record.KindString:
		return stringValue(v.Str), true
	case record.KindBool:
		return boolValue(v.Bool), true
	case record.KindInt:
		return intValue(v.Int), true
	case record.KindFloat:
		return doubleValue(v.Float), true
	case record.KindArray:
		values := make([]AnyValue, 0, len(v.Array))
		for _, e := range v.Array {
			cv, ok := convertValue(e, sink)
			if !ok {
				sink.MapperDroppedAttribute("<array element>", e)
				continue
			}
			values = append(values, cv)
		}
		return AnyValue{ArrayValue: &ArrayValue{Values: values}}, true
	case record.KindObject:
		kv, _ := convertObject(v.Object, sink)
		return AnyValue{KvlistValue: &KeyValueList{Values: kv}}, true
	default:
		// KindNull and any unrecognized kind are unrepresentable in OTLP's
		// AnyValue union and are reported as dropped attributes (§4.5 step 4).
		return AnyValue{}, false
	}
}
