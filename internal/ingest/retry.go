// Package ingest implements producer-side enqueue retry (C8, §4.7) and
// the dispatch endpoint (§6.3). The fixed-attempt-count, fixed-backoff
// retry loop is carried over from the teacher's
// internal/worker.RetryHTTPClient.Do attempt loop, with the HTTP
// transport swapped for a queue.Send call and ctx.Done() swapped for a
// cancellation scope.
package ingest

import (
	"time"

	"github.com/bc-dunia/archivalog/internal/cancel"
	"github.com/bc-dunia/archivalog/internal/logging"
	"github.com/bc-dunia/archivalog/internal/queue"
	"github.com/bc-dunia/archivalog/internal/record"
	"github.com/bc-dunia/archivalog/internal/result"
)

// MaxAttempts and RetryBackoff are the fixed retry parameters of §4.7:
// up to 5 attempts, 500ms apart.
const (
	MaxAttempts  = 5
	RetryBackoff = 500 * time.Millisecond
)

// EnqueueWithRetry attempts queue.Send up to MaxAttempts times, sleeping
// RetryBackoff between attempts and logging a warn with the cause and
// attempt number on every retry. Exhaustion yields the last error back
// to the caller, for translation to a terminal (§6.3: 500) response.
func EnqueueWithRetry(scope *cancel.Scope, q queue.Queue, rec record.Record, sink logging.Sink) result.Result[result.Unit] {
	var last result.Result[result.Unit]

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		last = q.Send(rec)
		if last.IsOk() {
			return last
		}

		_, err := last.Unwrap()
		if attempt < MaxAttempts {
			sink.ProducerRetry(attempt, err)
			sleepOrCancelled(scope, RetryBackoff)
		}
	}

	_, err := last.Unwrap()
	sink.ProducerExhausted(MaxAttempts, err)
	return last
}

// sleepOrCancelled waits for d, waking early if scope is cancelled --
// there is no point backing off further once the caller has given up.
func sleepOrCancelled(scope *cancel.Scope, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	done := make(chan struct{})
	unregister := scope.OnCancel(func() { close(done) })
	defer unregister()

	select {
	case <-timer.C:
	case <-done:
	}
}
