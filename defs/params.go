package defs

import (
	"time"
)

var (
	// ForwarderQueueCapacity is the default max numbers of records held in the delivery queue
	//
	// When the limit is reached, the configured overflow policy decides which record is dropped
	ForwarderQueueCapacity = 10000

	// ForwarderConnectionTimeout is for establishing a TCP connection to upstream
	ForwarderConnectionTimeout = 30 * time.Second

	// ForwarderWriteTimeout is the amortized per-write deadline on the upstream socket
	//
	// It bounds how long a stuck peer can delay the delivery worker, so a shutdown request
	// is honored eventually even mid-write
	ForwarderWriteTimeout = 60 * time.Second

	// ForwarderRetryBackoffBase is the default wait before the second reconnection attempt;
	// subsequent waits double up to ForwarderRetryBackoffCap
	ForwarderRetryBackoffBase = 500 * time.Millisecond

	// ForwarderRetryBackoffCap is the default ceiling for reconnection waits
	ForwarderRetryBackoffCap = 30 * time.Second

	// ForwarderShutdownFlushTimeout is the grace period to flush queued records on shutdown
	// before the connection is force-closed
	ForwarderShutdownFlushTimeout = 10 * time.Second

	// ForwarderIdleWakeInterval is how long the delivery worker sleeps on an empty queue
	// before re-checking, in case a wake signal arrives late
	ForwarderIdleWakeInterval = 1 * time.Second

	// InputStopTimeout is how long to wait for inputs to stop during shutdown
	InputStopTimeout = 5 * time.Second
)

// For testing and experiments
const (
	TestReadTimeout = 5 * time.Second
)

// EnableTestMode turns on test mode with very short timeouts and minimal retry delay
func EnableTestMode() {
	ForwarderConnectionTimeout = 1 * time.Second
	ForwarderWriteTimeout = 3 * time.Second
	ForwarderRetryBackoffBase = 10 * time.Millisecond
	ForwarderRetryBackoffCap = 100 * time.Millisecond
	ForwarderShutdownFlushTimeout = 3 * time.Second
	ForwarderIdleWakeInterval = 50 * time.Millisecond
}
