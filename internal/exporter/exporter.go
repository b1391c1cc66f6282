// Package exporter implements the Batching Exporter (C7): the single
// task that drains a queue into batches and ships them to an OTLP/HTTP
// collector. The main loop's count-or-timeout batching and POST-then-
// inspect-response shape is carried over from the teacher's
// internal/worker.TelemetryShipper.run/shipBatch, generalized from a
// buffered-channel + ticker select into a cancellation-scope-driven
// pull loop, since the queue contract here is receive(scope), not a Go
// channel.
package exporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bc-dunia/archivalog/internal/cancel"
	"github.com/bc-dunia/archivalog/internal/logging"
	"github.com/bc-dunia/archivalog/internal/otlp"
	"github.com/bc-dunia/archivalog/internal/queue"
	"github.com/bc-dunia/archivalog/internal/record"
	"github.com/bc-dunia/archivalog/internal/result"
)

// maxResponseBodyBytes caps how much of a response body the exporter
// reads for logging, mirroring the teacher's own response-body cap
// (internal/worker.maxResponseBodyBytes).
const maxResponseBodyBytes = 64 * 1024

// Config holds the exporter's tunables (§4.6).
type Config struct {
	BatchSize        int
	FullBatchTimeout time.Duration
	ReceiveTimeout   time.Duration
	SoftStop         bool
	Endpoint         string
	Queue            queue.Queue
	FallbackSink     logging.Sink
	HTTPClient       *http.Client
}

// Exporter is the batching exporter (C7). It has at most one in-flight
// flush, matching the "single-task, at most one in-flight flush"
// resource policy (§5).
type Exporter struct {
	cfg Config
}

// New constructs an Exporter from cfg, filling in a default HTTP client
// if none was supplied.
func New(cfg Config) *Exporter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Exporter{cfg: cfg}
}

// Run drives the main loop (§4.6) until termination. outer is the
// scope the caller cancels to request a stop; its cancellation is
// observed per the soft-stop/hard-stop rules in the state machine.
func (e *Exporter) Run(outer *cancel.Scope) {
	batch := make([]record.Record, 0, e.cfg.BatchSize)
	lastFlushAt := time.Now()

	for {
		if len(batch) >= e.cfg.BatchSize || time.Since(lastFlushAt) > e.cfg.FullBatchTimeout {
			if len(batch) > 0 {
				e.flush(batch)
			}
			batch = batch[:0]
			lastFlushAt = time.Now()
			continue
		}

		var timeoutParent *cancel.Scope
		if !e.cfg.SoftStop {
			timeoutParent = outer
		}
		sub := cancel.New(timeoutParent)
		timer := time.AfterFunc(e.cfg.ReceiveTimeout, sub.Cancel)

		r := e.cfg.Queue.Receive(sub)
		timer.Stop()

		rec, err := r.Unwrap()
		if err == nil {
			batch = append(batch, rec)
			continue
		}

		if result.IsScopeCancelled(err) {
			if outer.Done() {
				break
			}
			continue
		}

		// Receive failures other than cancellation are reported through
		// ExportTransportError, as an error-level export_transport_error
		// event; the sink has no separate event for queue failures.
		e.cfg.FallbackSink.ExportTransportError(err)
	}

	if len(batch) > 0 {
		e.flush(batch)
	}
}

// flush implements §4.6's flush(batch): map to OTLP, POST, and inspect
// the response. Records are dropped after the attempt regardless of
// outcome -- durability is the queue's job, not the exporter's.
func (e *Exporter) flush(batch []record.Record) {
	batchID := uuid.NewString()
	req := otlp.Map(time.Now(), batch, e.cfg.FallbackSink)

	body, err := json.Marshal(req)
	if err != nil {
		e.cfg.FallbackSink.ExportTransportError(fmt.Errorf("batch %s: encode request: %w", batchID, err))
		return
	}

	httpReq, err := http.NewRequest(http.MethodPost, e.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		e.cfg.FallbackSink.ExportTransportError(fmt.Errorf("batch %s: build request: %w", batchID, err))
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		e.cfg.FallbackSink.ExportTransportError(fmt.Errorf("batch %s: %w", batchID, err))
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.cfg.FallbackSink.ExportServerError(resp.StatusCode, string(respBody))
		return
	}

	var parsed otlp.ExportLogsServiceResponse
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			// A 2xx with an unparseable body is treated like a success with
			// no partial-success information: the collector accepted the
			// batch, it just didn't speak the expected response shape.
			e.cfg.FallbackSink.ExportSuccess(len(batch))
			return
		}
	}

	switch {
	case parsed.PartialSuccess == nil:
		e.cfg.FallbackSink.ExportSuccess(len(batch))
	case parsed.PartialSuccess.RejectedLogRecords > 0:
		e.cfg.FallbackSink.ExportPartialSuccess(parsed.PartialSuccess.RejectedLogRecords, parsed.PartialSuccess.ErrorMessage)
	default:
		e.cfg.FallbackSink.ExportPartialWarning(parsed.PartialSuccess.ErrorMessage)
	}
}
