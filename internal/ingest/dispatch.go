package ingest

import (
	"io"
	"net/http"

	"github.com/bc-dunia/archivalog/internal/cancel"
	"github.com/bc-dunia/archivalog/internal/record"
	"github.com/bc-dunia/archivalog/internal/result"
)

// maxURLBodySize bounds how much of the request body the handler reads,
// mirroring the teacher's maxRequestBodySize cap on decoded handler input.
const maxURLBodySize = 8 * 1024

// URLClassifier maps a URL to a content type. The actual classification
// heuristics (MIME sniffing, extension matching, remote HEAD probing)
// are an external collaborator, out of scope here (§6.3): only the
// interface boundary the dispatch handler calls through is in scope.
type URLClassifier interface {
	// Classify returns the empty string if the URL cannot be classified.
	Classify(url string) string
}

// Emitter is the producer-facing sink a DispatchHandler enqueues
// through: producer.Sink satisfies this, applying the LOG_DEBUG severity
// filter and the optional LOG_QUEUE tee before the retrying enqueue.
type Emitter interface {
	Emit(scope *cancel.Scope, rec record.Record) result.Result[result.Unit]
}

// DispatchHandler implements the producer-side dispatch endpoint
// (§6.3): POST / with a plain-text URL body, classify it, and emit a
// FetchRequest record through Emitter.
type DispatchHandler struct {
	Classifier URLClassifier
	Emitter    Emitter
}

// ServeHTTP reads the URL, classifies it, and enqueues a FetchRequest
// record. Responses: 400 on unclassifiable input, 200 on enqueue
// success, 500 on retry exhaustion.
func (h *DispatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxURLBodySize))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	url := string(body)

	contentType := h.Classifier.Classify(url)
	if contentType == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	rec := record.Record{
		{Key: "url", Value: record.String(url)},
		{Key: "contentType", Value: record.String(contentType)},
	}

	scope := cancel.New(nil)
	res := h.Emitter.Emit(scope, rec)
	if !res.IsOk() {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
