package forwarder

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v2"
)

// Record is one formatted log line pending delivery, with the time it entered the queue
type Record struct {
	Line     string
	QueuedAt time.Time
}

// recordQueue is the bounded FIFO between enqueueing callers and the delivery worker.
//
// Any number of producers may call Push concurrently; Pop and PushFront belong to the
// single delivery worker. Implemented as a ring over a fixed slice so both ends can be
// touched in O(1); a Go channel cannot serve here because failed records must go back
// to the front to keep delivery order.
type recordQueue struct {
	mutex   sync.Mutex
	ring    []Record
	head    int
	count   int
	policy  OverflowPolicy
	dropped *xsync.Counter
	wake    chan struct{}
	metrics *sinkMetrics
}

func newRecordQueue(capacity int, policy OverflowPolicy, metrics *sinkMetrics) *recordQueue {
	return &recordQueue{
		ring:    make([]Record, capacity),
		policy:  policy,
		dropped: xsync.NewCounter(),
		wake:    make(chan struct{}, 1),
		metrics: metrics,
	}
}

// Push appends a record, applying the overflow policy when full. It never blocks.
//
// Returns false only when the incoming record itself is dropped (drop-newest).
func (queue *recordQueue) Push(rec Record) bool {
	queue.mutex.Lock()
	if queue.count == len(queue.ring) {
		if queue.policy == DropNewest {
			queue.mutex.Unlock()
			queue.dropped.Inc()
			queue.metrics.IncrementDropped()
			return false
		}
		// evict the oldest queued record; recent events are more actionable than stale ones
		queue.ring[queue.head] = Record{}
		queue.head = (queue.head + 1) % len(queue.ring)
		queue.count--
		queue.dropped.Inc()
		queue.metrics.IncrementDropped()
		queue.metrics.OnRemoved()
	}
	queue.ring[(queue.head+queue.count)%len(queue.ring)] = rec
	queue.count++
	queue.mutex.Unlock()
	queue.metrics.OnEnqueued()
	queue.signalWake()
	return true
}

// PushFront returns a record whose write failed to the head of the queue, ahead of
// newer records, so delivery order survives reconnection.
//
// If the queue filled up in the meantime, the newest record is evicted regardless of
// policy: the requeued record is the oldest in flight and evicting it instead would
// turn a transient write failure into silent loss.
func (queue *recordQueue) PushFront(rec Record) {
	queue.mutex.Lock()
	if queue.count == len(queue.ring) {
		queue.count--
		queue.ring[(queue.head+queue.count)%len(queue.ring)] = Record{}
		queue.dropped.Inc()
		queue.metrics.IncrementDropped()
		queue.metrics.OnRemoved()
	}
	queue.head = (queue.head - 1 + len(queue.ring)) % len(queue.ring)
	queue.ring[queue.head] = rec
	queue.count++
	queue.mutex.Unlock()
	queue.metrics.OnEnqueued()
	queue.signalWake()
}

// Pop removes and returns the oldest record; ok is false when the queue is empty.
// The delivery worker is responsible for waiting on Wake() when empty.
func (queue *recordQueue) Pop() (Record, bool) {
	queue.mutex.Lock()
	if queue.count == 0 {
		queue.mutex.Unlock()
		return Record{}, false
	}
	rec := queue.ring[queue.head]
	queue.ring[queue.head] = Record{}
	queue.head = (queue.head + 1) % len(queue.ring)
	queue.count--
	queue.mutex.Unlock()
	queue.metrics.OnRemoved()
	return rec, true
}

// Len returns the current occupancy, for diagnostics and tests
func (queue *recordQueue) Len() int {
	queue.mutex.Lock()
	count := queue.count
	queue.mutex.Unlock()
	return count
}

// DroppedCount returns the total numbers of records dropped by the overflow policy
func (queue *recordQueue) DroppedCount() int64 {
	return queue.dropped.Value()
}

// Wake is signaled (with at most one pending signal) whenever a record is queued
func (queue *recordQueue) Wake() <-chan struct{} {
	return queue.wake
}

func (queue *recordQueue) signalWake() {
	select {
	case queue.wake <- struct{}{}:
	default:
	}
}
