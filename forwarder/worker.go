package forwarder

import (
	"time"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/lineforwarder/defs"
)

// deliveryWorker is the single background goroutine draining the record queue into
// the connection manager.
//
// It alternates between a drain loop while connected and the reconnection protocol
// while not: close, wait backoff.next(attempt), dial, reset attempt on success.
// Reconnection never gives up on the process's behalf; the bounded queue keeps
// absorbing records in the meantime. A record whose write fails goes back to the
// front of the queue before reconnecting, so a transient failure never loses it.
type deliveryWorker struct {
	logger      logger.Logger
	queue       *recordQueue
	conn        *connManager
	policy      backoffPolicy
	stopRequest channels.Awaitable
	stopped     *channels.SignalAwaitable
	metrics     *sinkMetrics
}

func newDeliveryWorker(parentLogger logger.Logger, queue *recordQueue, conn *connManager,
	policy backoffPolicy, stopRequest channels.Awaitable, metrics *sinkMetrics) *deliveryWorker {

	return &deliveryWorker{
		logger:      parentLogger.WithField(defs.LabelPart, "worker"),
		queue:       queue,
		conn:        conn,
		policy:      policy,
		stopRequest: stopRequest,
		stopped:     channels.NewSignalAwaitable(),
		metrics:     metrics,
	}
}

// Launch starts the worker goroutine
func (worker *deliveryWorker) Launch() {
	go worker.run()
}

// Stopped returns an Awaitable which is signaled when the worker has stopped
func (worker *deliveryWorker) Stopped() channels.Awaitable {
	return worker.stopped
}

func (worker *deliveryWorker) run() {
	defer worker.stopped.Signal()
	worker.logger.Infof("started")
	for {
		if worker.stopRequested() {
			worker.logger.Infof("stop requested (drain loop)")
			break
		}
		if worker.conn.State() != StateConnected {
			if !worker.reconnect() {
				worker.logger.Infof("stop requested (reconnection)")
				break
			}
			continue
		}
		rec, ok := worker.queue.Pop()
		if !ok {
			if !worker.waitForRecords() {
				worker.logger.Infof("stop requested (idle wait)")
				break
			}
			continue
		}
		worker.deliver(rec)
	}
	worker.flushRemaining()
	worker.conn.Close()
	worker.logger.Infof("stopped with queued=%d dropped=%d", worker.queue.Len(), worker.queue.DroppedCount())
}

func (worker *deliveryWorker) deliver(rec Record) {
	if err := worker.conn.Write(rec); err != nil {
		worker.logger.Warnf("failed to write: %s", err.Error())
		worker.metrics.IncrementNetworkErrors()
		// not lost: back to the head, ahead of newer records
		worker.queue.PushFront(rec)
		worker.conn.Close()
		return
	}
	worker.metrics.OnDelivered(rec)
}

// reconnect runs the reconnection protocol until connected or stopped; returns
// false when stop was requested during a backoff wait.
//
// The first attempt is immediate; waits between subsequent attempts follow the
// backoff policy with the attempt counter starting from zero again.
func (worker *deliveryWorker) reconnect() bool {
	worker.conn.Close()
	attempt := 0
	for {
		err := worker.conn.Connect()
		if err == nil {
			return true
		}
		worker.logger.Warnf("failed to connect: %s", err.Error())
		delay := worker.policy.next(attempt)
		attempt++
		worker.logger.Infof("waiting %s before reconnection attempt %d (queued=%d)", delay, attempt, worker.queue.Len())
		if worker.stopRequest.Wait(delay) { // false if timeout, which is expected
			return false
		}
	}
}

// waitForRecords sleeps until a record is queued, a periodic wake fires, or stop is
// requested; returns false on stop.
func (worker *deliveryWorker) waitForRecords() bool {
	select {
	case <-worker.queue.Wake():
		return true
	case <-time.After(defs.ForwarderIdleWakeInterval):
		return true
	case <-worker.stopRequest.Channel():
		return false
	}
}

func (worker *deliveryWorker) stopRequested() bool {
	select {
	case <-worker.stopRequest.Channel():
		return true
	default:
		return false
	}
}

// flushRemaining makes a best-effort pass over the queue within the shutdown grace
// period: at most one final connection attempt and one write attempt per record.
func (worker *deliveryWorker) flushRemaining() {
	if worker.queue.Len() == 0 {
		return
	}
	worker.logger.Infof("flushing queued=%d records before close", worker.queue.Len())
	deadline := time.Now().Add(defs.ForwarderShutdownFlushTimeout)
	for time.Now().Before(deadline) {
		if worker.conn.State() != StateConnected {
			if err := worker.conn.Connect(); err != nil {
				worker.logger.Warnf("failed to connect for final flush: %s", err.Error())
				return
			}
		}
		rec, ok := worker.queue.Pop()
		if !ok {
			return
		}
		if err := worker.conn.Write(rec); err != nil {
			worker.logger.Warnf("failed to write during final flush: %s", err.Error())
			worker.metrics.IncrementNetworkErrors()
			worker.queue.PushFront(rec)
			return
		}
		worker.metrics.OnDelivered(rec)
	}
	worker.logger.Warnf("flush grace period expired with queued=%d", worker.queue.Len())
}
