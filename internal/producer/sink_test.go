package producer

import (
	"testing"

	"github.com/bc-dunia/archivalog/internal/cancel"
	"github.com/bc-dunia/archivalog/internal/logging"
	"github.com/bc-dunia/archivalog/internal/queue/memqueue"
	"github.com/bc-dunia/archivalog/internal/record"
)

func debugRecord() record.Record {
	return record.Record{
		{Key: "severityNumber", Value: record.Int(5)},
		{Key: "severityText", Value: record.String("debug")},
		{Key: "message", Value: record.String("noisy")},
	}
}

func warnRecord() record.Record {
	return record.Record{
		{Key: "severityNumber", Value: record.Int(13)},
		{Key: "severityText", Value: record.String("warn")},
	}
}

func TestSinkDropsDebugRecordsWhenLogDebugFalse(t *testing.T) {
	primary := memqueue.New()
	s := &Sink{Primary: primary, LogDebug: false, FbSink: logging.NoopSink{}}

	res := s.Emit(cancel.New(nil), debugRecord())
	if !res.IsOk() {
		t.Fatalf("expected drop to report ok, got %v", res.Error())
	}
	if primary.Len() != 0 {
		t.Fatalf("expected debug record not enqueued, got len=%d", primary.Len())
	}
}

func TestSinkKeepsDebugRecordsWhenLogDebugTrue(t *testing.T) {
	primary := memqueue.New()
	s := &Sink{Primary: primary, LogDebug: true, FbSink: logging.NoopSink{}}

	res := s.Emit(cancel.New(nil), debugRecord())
	if !res.IsOk() {
		t.Fatalf("unexpected failure: %v", res.Error())
	}
	if primary.Len() != 1 {
		t.Fatalf("expected debug record enqueued, got len=%d", primary.Len())
	}
}

func TestSinkAlwaysKeepsNonDebugRecords(t *testing.T) {
	primary := memqueue.New()
	s := &Sink{Primary: primary, LogDebug: false, FbSink: logging.NoopSink{}}

	res := s.Emit(cancel.New(nil), warnRecord())
	if !res.IsOk() {
		t.Fatalf("unexpected failure: %v", res.Error())
	}
	if primary.Len() != 1 {
		t.Fatalf("expected warn record enqueued, got len=%d", primary.Len())
	}
}

func TestSinkTeesIntoSecondaryQueue(t *testing.T) {
	primary := memqueue.New()
	tee := memqueue.New()
	s := &Sink{Primary: primary, Tee: tee, LogDebug: true, FbSink: logging.NoopSink{}}

	res := s.Emit(cancel.New(nil), warnRecord())
	if !res.IsOk() {
		t.Fatalf("unexpected failure: %v", res.Error())
	}
	if primary.Len() != 1 {
		t.Fatalf("expected primary enqueue, got len=%d", primary.Len())
	}
	if tee.Len() != 1 {
		t.Fatalf("expected tee enqueue, got len=%d", tee.Len())
	}
}
