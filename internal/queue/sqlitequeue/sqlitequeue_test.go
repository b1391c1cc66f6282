package sqlitequeue

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/bc-dunia/archivalog/internal/cancel"
	"github.com/bc-dunia/archivalog/internal/record"
)

func openTemp(t *testing.T) *Queue {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue.db")
	q, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

func intRecord(i int64) record.Record {
	return record.Record{{Key: "i", Value: record.Int(i)}}
}

func TestSendReceiveFIFO(t *testing.T) {
	q := openTemp(t)

	for _, i := range []int64{1, 2, 3} {
		r := q.Send(intRecord(i))
		if !r.IsOk() {
			t.Fatalf("send %d failed: %v", i, r.Error())
		}
	}

	for _, want := range []int64{1, 2, 3} {
		r := q.Receive(cancel.New(nil))
		rec, err := r.Unwrap()
		if err != nil {
			t.Fatalf("receive failed: %v", err)
		}
		got, _ := rec.IntField("i")
		if got != want {
			t.Fatalf("got %d, want %d", got, want)
		}
	}
}

func TestReceiveSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")

	q1, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !q1.Send(intRecord(7)).IsOk() {
		t.Fatal("send failed")
	}
	q1.Close()

	q2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer q2.Close()

	r := q2.Receive(cancel.New(nil))
	rec, err := r.Unwrap()
	if err != nil {
		t.Fatalf("receive after restart failed: %v", err)
	}
	got, _ := rec.IntField("i")
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func TestReceiveBlocksThenWakesOnSend(t *testing.T) {
	q := openTemp(t)
	scope := cancel.New(nil)

	done := make(chan error, 1)
	go func() {
		r := q.Receive(scope)
		_, err := r.Unwrap()
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("receive returned before send")
	case <-time.After(30 * time.Millisecond):
	}

	if !q.Send(intRecord(1)).IsOk() {
		t.Fatal("send failed")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("receive never woke on send")
	}
}

func TestReceiveCancelledByScope(t *testing.T) {
	q := openTemp(t)
	scope := cancel.New(nil)

	done := make(chan error, 1)
	go func() {
		r := q.Receive(scope)
		_, err := r.Unwrap()
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	scope.Cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected ScopeCancelled error")
		}
	case <-time.After(time.Second):
		t.Fatal("receive never woke on cancellation")
	}
}

func TestSuccessfulReceiveIsIrreversible(t *testing.T) {
	q := openTemp(t)
	q.Send(intRecord(1))

	r := q.Receive(cancel.New(nil))
	if !r.IsOk() {
		t.Fatalf("expected ok, got %v", r.Error())
	}

	depth, err := q.Depth()
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if depth != 0 {
		t.Fatalf("expected empty queue after receive, depth=%d", depth)
	}
}
