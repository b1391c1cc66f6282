// Package sqlitequeue implements the durable queue backend (C5): a
// persistent FIFO on local disk with at-least-once semantics, backed by
// a single SQLite file. The database/sql + mattn/go-sqlite3 combination
// mirrors how the retrieval pack's own embedded-store code opens and
// queries a single-file relational store
// (estuary-flow/catalog/build_load.go: sql.Open("sqlite3", path)).
package sqlitequeue

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bc-dunia/archivalog/internal/cancel"
	"github.com/bc-dunia/archivalog/internal/record"
	"github.com/bc-dunia/archivalog/internal/result"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	payload TEXT NOT NULL,
	enqueued_at INTEGER NOT NULL
);`

// defaultPollInterval bounds how long a receiver with nothing to wake it
// (no local Send, no cancellation) waits before re-checking the table --
// the fallback that lets a second process instance drain rows left
// behind by a crash between another process's read and delete.
const defaultPollInterval = 50 * time.Millisecond

// Queue is a single-writer-multiple-reader-within-a-process durable
// queue. Cross-process use of the same file is supported for recovery
// (a crashed writer's unread rows survive for the next process) but two
// live processes racing on the same file is undefined, per the storage
// contract.
type Queue struct {
	db           *sql.DB
	mu           sync.Mutex
	notEmpty     *sync.Cond
	pollInterval time.Duration
}

// Open creates or attaches to a durable queue at path, creating the
// messages table if it does not already exist.
func Open(path string) (*Queue, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	// A single connection keeps the read-then-delete transaction
	// serialized against concurrent Sends from the same process without
	// relying on SQLite's coarser file locking to arbitrate.
	db.SetMaxOpenConns(1)

	q := &Queue{db: db, pollInterval: defaultPollInterval}
	q.notEmpty = sync.NewCond(&q.mu)
	return q, nil
}

// Close releases the underlying database handle.
func (q *Queue) Close() error {
	return q.db.Close()
}

// Send inserts one row within a transaction and wakes any blocked
// in-process receiver.
func (q *Queue) Send(rec record.Record) result.Result[result.Unit] {
	payload, err := json.Marshal(rec)
	if err != nil {
		return result.Err[result.Unit](result.QueueUnavailable(err))
	}

	tx, err := q.db.Begin()
	if err != nil {
		return result.Err[result.Unit](result.QueueUnavailable(err))
	}
	if _, err := tx.Exec(
		`INSERT INTO messages (payload, enqueued_at) VALUES (?, ?)`,
		string(payload), time.Now().UnixNano(),
	); err != nil {
		tx.Rollback()
		return result.Err[result.Unit](result.QueueUnavailable(err))
	}
	if err := tx.Commit(); err != nil {
		return result.Err[result.Unit](result.QueueUnavailable(err))
	}

	q.mu.Lock()
	q.notEmpty.Broadcast()
	q.mu.Unlock()

	return result.Ok(result.Unit{})
}

// Receive blocks until a row is available or scope is cancelled. The
// read and delete happen in the same transaction: once that transaction
// commits the row is gone and the record belongs to this caller, and a
// crash before commit leaves the row for the next process instance to
// pick up, giving the at-least-once contract.
func (q *Queue) Receive(scope *cancel.Scope) result.Result[record.Record] {
	unregister := scope.OnCancel(func() {
		q.mu.Lock()
		q.notEmpty.Broadcast()
		q.mu.Unlock()
	})
	defer unregister()

	for {
		if scope.Done() {
			return result.Err[record.Record](result.ScopeCancelled())
		}

		rec, found, err := q.dequeueOnce()
		if err != nil {
			return result.Err[record.Record](result.QueueUnavailable(err))
		}
		if found {
			return result.Ok(rec)
		}

		q.waitForWorkOrPoll(scope)
	}
}

// waitForWorkOrPoll parks on the condition variable until either a Send,
// a scope cancellation, or the poll interval elapses, whichever comes
// first. The poll wake-up is what lets a row inserted by a different
// process (or before this process started) be discovered without a
// dedicated cross-process notification channel.
func (q *Queue) waitForWorkOrPoll(scope *cancel.Scope) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if scope.Done() {
		return
	}

	timer := time.AfterFunc(q.pollInterval, func() {
		q.mu.Lock()
		q.notEmpty.Broadcast()
		q.mu.Unlock()
	})
	defer timer.Stop()

	q.notEmpty.Wait()
}

func (q *Queue) dequeueOnce() (record.Record, bool, error) {
	tx, err := q.db.Begin()
	if err != nil {
		return nil, false, err
	}

	var id int64
	var payload string
	err = tx.QueryRow(`SELECT id, payload FROM messages ORDER BY id ASC LIMIT 1`).Scan(&id, &payload)
	if err == sql.ErrNoRows {
		tx.Rollback()
		return nil, false, nil
	}
	if err != nil {
		tx.Rollback()
		return nil, false, err
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE id = ?`, id); err != nil {
		tx.Rollback()
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	var rec record.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// Depth returns the current number of undelivered rows, for diagnostics.
func (q *Queue) Depth() (int, error) {
	var n int
	err := q.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n)
	return n, err
}
