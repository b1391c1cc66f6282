// Package queue defines the contract (C3) shared by every queue backend:
// a non-blocking send and a cancellable blocking receive. The two
// conforming backends live in the memqueue and sqlitequeue subpackages.
package queue

import (
	"github.com/bc-dunia/archivalog/internal/cancel"
	"github.com/bc-dunia/archivalog/internal/record"
	"github.com/bc-dunia/archivalog/internal/result"
)

// Queue is the producer/consumer contract. Send is non-blocking on
// unbounded backends and fails with a QueueUnavailable error if the
// backend is unusable. Receive blocks until a record is available or
// scope is cancelled, in which case it fails with the ScopeCancelled
// sentinel. Exactly one Receive observes any given record.
type Queue interface {
	Send(rec record.Record) result.Result[result.Unit]
	Receive(scope *cancel.Scope) result.Result[record.Record]
}
