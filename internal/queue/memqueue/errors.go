package memqueue

import "errors"

var errClosed = errors.New("memqueue: queue is closed")
