package otlp

import (
	"testing"
	"time"

	"github.com/bc-dunia/archivalog/internal/record"
)

type fakeDropSink struct {
	dropped []string
}

func (f *fakeDropSink) MapperDroppedAttribute(key string, value any) {
	f.dropped = append(f.dropped, key)
}

func svcRecord(name, version string, extra ...record.Field) record.Record {
	rec := record.Record{
		{Key: "service.name", Value: record.String(name)},
		{Key: "service.version", Value: record.String(version)},
	}
	return append(rec, extra...)
}

func TestMapperGroupsByServiceNameAndVersion(t *testing.T) {
	recs := []record.Record{
		svcRecord("a", "1", record.Field{Key: "k", Value: record.Int(1)}),
		svcRecord("a", "1", record.Field{Key: "k", Value: record.Int(2)}),
		svcRecord("b", "1", record.Field{Key: "k", Value: record.Int(3)}),
	}

	req := Map(time.Now(), recs, &fakeDropSink{})

	if len(req.ResourceLogs) != 2 {
		t.Fatalf("expected 2 resource groups, got %d", len(req.ResourceLogs))
	}
	if len(req.ResourceLogs[0].ScopeLogs[0].LogRecords) != 2 {
		t.Fatalf("expected group a/1 to have 2 records, got %d",
			len(req.ResourceLogs[0].ScopeLogs[0].LogRecords))
	}
	if len(req.ResourceLogs[1].ScopeLogs[0].LogRecords) != 1 {
		t.Fatalf("expected group b/1 to have 1 record, got %d",
			len(req.ResourceLogs[1].ScopeLogs[0].LogRecords))
	}
}

func TestMapperDefaultsMissingServiceFields(t *testing.T) {
	recs := []record.Record{
		{{Key: "k", Value: record.String("v")}},
	}

	req := Map(time.Now(), recs, &fakeDropSink{})

	if len(req.ResourceLogs) != 1 {
		t.Fatalf("expected 1 resource group, got %d", len(req.ResourceLogs))
	}
	attrs := req.ResourceLogs[0].Resource.Attributes
	if *attrs[0].Value.StringValue != "unknown" {
		t.Fatalf("expected default service.name unknown, got %v", *attrs[0].Value.StringValue)
	}
	if *attrs[1].Value.StringValue != "0.0.0-unknown" {
		t.Fatalf("expected default service.version 0.0.0-unknown, got %v", *attrs[1].Value.StringValue)
	}
}

func TestMapperExtractsSeverityAndBuildsBody(t *testing.T) {
	recs := []record.Record{
		{
			{Key: "severityNumber", Value: record.Int(13)},
			{Key: "severityText", Value: record.String("warn")},
			{Key: "message", Value: record.String("hi")},
		},
	}

	req := Map(time.Now(), recs, &fakeDropSink{})

	lr := req.ResourceLogs[0].ScopeLogs[0].LogRecords[0]
	if lr.SeverityNumber == nil || *lr.SeverityNumber != 13 {
		t.Fatalf("expected severityNumber=13, got %v", lr.SeverityNumber)
	}
	if lr.SeverityText != "warn" {
		t.Fatalf("expected severityText=warn, got %q", lr.SeverityText)
	}
	if lr.Body == nil || lr.Body.KvlistValue == nil {
		t.Fatal("expected body.kvlistValue")
	}
	values := lr.Body.KvlistValue.Values
	if len(values) != 1 || values[0].Key != "message" || *values[0].Value.StringValue != "hi" {
		t.Fatalf("unexpected body values: %+v", values)
	}
	for _, reserved := range []string{"severityNumber", "severityText"} {
		for _, kv := range values {
			if kv.Key == reserved {
				t.Fatalf("reserved key %q leaked into body", reserved)
			}
		}
	}
}

func TestMapperTreatsLoneSeverityNumberAsNoSeverity(t *testing.T) {
	recs := []record.Record{
		{{Key: "severityNumber", Value: record.Int(13)}},
	}

	req := Map(time.Now(), recs, &fakeDropSink{})
	lr := req.ResourceLogs[0].ScopeLogs[0].LogRecords[0]
	if lr.SeverityNumber != nil {
		t.Fatalf("expected no severityNumber, got %v", *lr.SeverityNumber)
	}
	if lr.SeverityText != "" {
		t.Fatalf("expected no severityText, got %q", lr.SeverityText)
	}
}

func TestMapperTreatsLoneSeverityTextAsNoSeverity(t *testing.T) {
	recs := []record.Record{
		{{Key: "severityText", Value: record.String("warn")}},
	}

	req := Map(time.Now(), recs, &fakeDropSink{})
	lr := req.ResourceLogs[0].ScopeLogs[0].LogRecords[0]
	if lr.SeverityNumber != nil {
		t.Fatalf("expected no severityNumber, got %v", *lr.SeverityNumber)
	}
	if lr.SeverityText != "" {
		t.Fatalf("expected no severityText, got %q", lr.SeverityText)
	}
}

func TestMapperTreatsInconsistentSeverityPairAsNoSeverity(t *testing.T) {
	recs := []record.Record{
		{
			{Key: "severityNumber", Value: record.Int(5)},
			{Key: "severityText", Value: record.String("warn")},
		},
	}

	req := Map(time.Now(), recs, &fakeDropSink{})
	lr := req.ResourceLogs[0].ScopeLogs[0].LogRecords[0]
	if lr.SeverityNumber != nil || lr.SeverityText != "" {
		t.Fatalf("expected inconsistent pair to yield no severity, got number=%v text=%q", lr.SeverityNumber, lr.SeverityText)
	}
}

func TestMapperTreatsOutOfEnumSeverityAsNoSeverity(t *testing.T) {
	recs := []record.Record{
		{
			{Key: "severityNumber", Value: record.Int(99)},
			{Key: "severityText", Value: record.String("warn")},
		},
	}

	req := Map(time.Now(), recs, &fakeDropSink{})
	lr := req.ResourceLogs[0].ScopeLogs[0].LogRecords[0]
	if lr.SeverityNumber != nil || lr.SeverityText != "" {
		t.Fatalf("expected out-of-enum severityNumber to yield no severity, got number=%v text=%q", lr.SeverityNumber, lr.SeverityText)
	}
}

func TestMapperPreservesNonReservedKeyOrder(t *testing.T) {
	recs := []record.Record{
		{
			{Key: "z", Value: record.Int(1)},
			{Key: "a", Value: record.Int(2)},
			{Key: "m", Value: record.Int(3)},
		},
	}

	req := Map(time.Now(), recs, &fakeDropSink{})
	values := req.ResourceLogs[0].ScopeLogs[0].LogRecords[0].Body.KvlistValue.Values
	keys := []string{values[0].Key, values[1].Key, values[2].Key}
	want := []string{"z", "a", "m"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, keys)
		}
	}
}

func TestMapperConvertsAllValueKinds(t *testing.T) {
	recs := []record.Record{
		{
			{Key: "s", Value: record.String("x")},
			{Key: "b", Value: record.Bool(true)},
			{Key: "i", Value: record.Int(42)},
			{Key: "f", Value: record.Float(1.5)},
			{Key: "arr", Value: record.Arr(record.Int(1), record.Int(2))},
			{Key: "obj", Value: record.Object(record.Record{{Key: "nested", Value: record.String("v")}})},
		},
	}

	req := Map(time.Now(), recs, &fakeDropSink{})
	values := req.ResourceLogs[0].ScopeLogs[0].LogRecords[0].Body.KvlistValue.Values

	byKey := make(map[string]KeyValue)
	for _, kv := range values {
		byKey[kv.Key] = kv
	}

	if *byKey["s"].Value.StringValue != "x" {
		t.Fatal("string mismatch")
	}
	if !*byKey["b"].Value.BoolValue {
		t.Fatal("bool mismatch")
	}
	if *byKey["i"].Value.IntValue != 42 {
		t.Fatal("int mismatch")
	}
	if *byKey["f"].Value.DoubleValue != 1.5 {
		t.Fatal("float mismatch")
	}
	if len(byKey["arr"].Value.ArrayValue.Values) != 2 {
		t.Fatal("array mismatch")
	}
	nested := byKey["obj"].Value.KvlistValue.Values
	if len(nested) != 1 || nested[0].Key != "nested" {
		t.Fatal("nested object mismatch")
	}
}

func TestMapperReportsDroppedAttributeForNull(t *testing.T) {
	sink := &fakeDropSink{}
	recs := []record.Record{
		{{Key: "bad", Value: record.Null()}},
	}

	req := Map(time.Now(), recs, sink)

	lr := req.ResourceLogs[0].ScopeLogs[0].LogRecords[0]
	if lr.DroppedAttributesCount != 1 {
		t.Fatalf("expected droppedAttributesCount=1, got %d", lr.DroppedAttributesCount)
	}
	if len(lr.Body.KvlistValue.Values) != 0 {
		t.Fatalf("expected dropped key absent from body, got %+v", lr.Body.KvlistValue.Values)
	}
	if len(sink.dropped) != 1 || sink.dropped[0] != "bad" {
		t.Fatalf("expected fallback sink notified of dropped key %q, got %v", "bad", sink.dropped)
	}
}

func TestMapperOmitsEmptyGroups(t *testing.T) {
	req := Map(time.Now(), nil, &fakeDropSink{})
	if len(req.ResourceLogs) != 0 {
		t.Fatalf("expected no resource groups for empty input, got %d", len(req.ResourceLogs))
	}
}

func TestMapperSetsSchemaURLAndScope(t *testing.T) {
	recs := []record.Record{svcRecord("a", "1")}
	req := Map(time.Now(), recs, &fakeDropSink{})

	rl := req.ResourceLogs[0]
	if rl.SchemaURL != SchemaURL {
		t.Fatalf("unexpected resource schemaUrl: %q", rl.SchemaURL)
	}
	sl := rl.ScopeLogs[0]
	if sl.SchemaURL != SchemaURL {
		t.Fatalf("unexpected scope schemaUrl: %q", sl.SchemaURL)
	}
	if sl.Scope.Name != ScopeName || sl.Scope.Version != ScopeVersion {
		t.Fatalf("unexpected scope identity: %+v", sl.Scope)
	}
}
