// Package producer wires the LOG_DEBUG/LOG_QUEUE configuration (§6.4)
// into a record sink a request handler can call directly: debug-severity
// records are dropped before ever reaching the primary queue unless
// LOG_DEBUG is set, and when LOG_QUEUE names a second queue, every
// record is additionally teed into it.
package producer

import (
	"github.com/bc-dunia/archivalog/internal/cancel"
	"github.com/bc-dunia/archivalog/internal/ingest"
	"github.com/bc-dunia/archivalog/internal/logging"
	"github.com/bc-dunia/archivalog/internal/queue"
	"github.com/bc-dunia/archivalog/internal/record"
	"github.com/bc-dunia/archivalog/internal/result"
)

const severityDebug = 5

// Sink is the producer-facing entry point: EnqueueWithRetry (C8)
// wrapped with the debug-severity filter and the optional tee queue.
type Sink struct {
	Primary  queue.Queue
	Tee      queue.Queue
	LogDebug bool
	FbSink   logging.Sink
}

// Emit enqueues rec via EnqueueWithRetry unless rec is debug severity
// and LogDebug is false, in which case it is silently dropped (§6.4).
// A non-nil Tee additionally receives a best-effort, non-retried Send:
// the tee is a secondary destination, not a second point of durability.
func (s *Sink) Emit(scope *cancel.Scope, rec record.Record) result.Result[result.Unit] {
	if !s.LogDebug && isDebugSeverity(rec) {
		return result.Ok(result.Unit{})
	}

	if s.Tee != nil {
		s.Tee.Send(rec)
	}

	return ingest.EnqueueWithRetry(scope, s.Primary, rec, s.FbSink)
}

// isDebugSeverity requires both severity keys, as the mapper does: a
// record carrying only one of them has no severity.
func isDebugSeverity(rec record.Record) bool {
	n, hasNumber := rec.IntField("severityNumber")
	text, hasText := rec.StringField("severityText")
	return hasNumber && hasText && n == severityDebug && text == "debug"
}
