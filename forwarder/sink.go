// Package forwarder implements a resilient TCP sink for formatted log lines: a
// bounded delivery queue decoupling callers from network I/O, a single delivery
// worker, and a connection manager reconnecting with exponential backoff.
//
// Enqueue never blocks and never fails because of network state; records are only
// ever dropped by the queue's overflow policy, never by a transient write failure.
package forwarder

import (
	"time"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/lineforwarder/defs"
	"github.com/relex/lineforwarder/util"
)

// Sink ships formatted log records to one TCP upstream, one record per line.
//
// Each record must be a single self-contained line with no embedded line
// terminator; formatting and encoding are the caller's responsibility.
type Sink struct {
	logger      logger.Logger
	queue       *recordQueue
	conn        *connManager
	worker      *deliveryWorker
	stopRequest *channels.SignalAwaitable
	shutdown    func() bool
}

// NewSink validates the config and starts the delivery worker in background
//
// dial may be nil to use TCPDial; tests pass failing or in-memory dials.
func NewSink(parentLogger logger.Logger, cfg Config, metricCreator promreg.MetricCreator, dial DialFunc) (*Sink, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dial == nil {
		dial = TCPDial
	}

	slogger := parentLogger.WithField(defs.LabelComponent, "TCPLineSink").WithField(defs.LabelRemote, cfg.Address)
	metrics := newSinkMetrics(metricCreator)
	queue := newRecordQueue(cfg.MaxQueueSize, cfg.OverflowPolicy, metrics)
	conn := newConnManager(slogger, cfg, dial, metrics)
	stopRequest := channels.NewSignalAwaitable()
	worker := newDeliveryWorker(slogger, queue, conn, backoffPolicy{
		base:   cfg.BackoffBase,
		cap:    cfg.BackoffCap,
		jitter: cfg.BackoffJitter,
	}, stopRequest, metrics)

	sink := &Sink{
		logger:      slogger,
		queue:       queue,
		conn:        conn,
		worker:      worker,
		stopRequest: stopRequest,
	}
	sink.shutdown = util.NewRunOnce(func() {
		stopRequest.Signal()
		worker.Stopped().WaitForever()
	})
	worker.Launch()
	return sink, nil
}

// Enqueue queues one record for delivery. It never blocks the caller and never
// fails; when the queue is full the overflow policy decides which record is
// dropped. Safe for concurrent use by any number of goroutines.
func (sink *Sink) Enqueue(line string) {
	sink.queue.Push(Record{Line: line, QueuedAt: time.Now()})
}

// Shutdown stops the delivery worker after a bounded best-effort flush of queued
// records, then closes the connection. Idempotent and safe to call from any
// goroutine; concurrent calls all block until shutdown completes.
func (sink *Sink) Shutdown() {
	if sink.shutdown() {
		sink.logger.Infof("shut down")
		return
	}
	sink.worker.Stopped().WaitForever()
}

// Stopped returns an Awaitable which is signaled when the worker has stopped
func (sink *Sink) Stopped() channels.Awaitable {
	return sink.worker.Stopped()
}

// QueueLen returns the current numbers of queued records, for diagnostics and tests
func (sink *Sink) QueueLen() int {
	return sink.queue.Len()
}

// DroppedRecords returns the total numbers of records dropped by the overflow policy
func (sink *Sink) DroppedRecords() int64 {
	return sink.queue.DroppedCount()
}

// ConnState returns the current state of the upstream connection
func (sink *Sink) ConnState() ConnState {
	return sink.conn.State()
}
