package forwarder

import (
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/lineforwarder/defs"
	"github.com/relex/lineforwarder/util"
)

// ConnState is the lifecycle state of the upstream connection
//
// It is owned and mutated exclusively by the connection manager on the delivery
// worker goroutine; other goroutines may only observe it via State().
type ConnState int32

// Connection states
const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (state ConnState) String() string {
	switch state {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("ConnState(%d)", int32(state))
	}
}

// DialFunc opens the upstream connection. Tests substitute failing or in-memory dials.
type DialFunc func(address string, timeout time.Duration) (net.Conn, error)

// TCPDial is the default DialFunc
func TCPDial(address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", address, timeout)
}

// connManager owns the single outbound connection: dialing, line writes, failure
// detection and closing. It makes one attempt per call and never retries internally;
// reconnection timing is driven by the delivery worker through the backoff policy.
type connManager struct {
	logger          logger.Logger
	address         string
	dial            DialFunc
	writeBufferSize int
	state           atomic.Int32
	conn            net.Conn
	writer          *util.WriteDeadlineConn
	lineBuf         []byte
	metrics         *sinkMetrics
}

func newConnManager(parentLogger logger.Logger, cfg Config, dial DialFunc, metrics *sinkMetrics) *connManager {
	return &connManager{
		logger:          parentLogger.WithField(defs.LabelPart, "connection"),
		address:         cfg.Address,
		dial:            dial,
		writeBufferSize: int(cfg.WriteBufferSize.Bytes()),
		metrics:         metrics,
	}
}

// Connect makes a single dial attempt: Disconnected → Connecting → Connected, or
// Connecting → Failed on any dial error (refused, timeout, resolution failure).
func (mgr *connManager) Connect() error {
	mgr.setState(StateConnecting)
	conn, err := mgr.dial(mgr.address, defs.ForwarderConnectionTimeout)
	if err != nil {
		mgr.setState(StateFailed)
		mgr.metrics.IncrementNetworkErrors()
		return fmt.Errorf("connect to %s: %w", mgr.address, err)
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok && mgr.writeBufferSize > 0 {
		if _, serr := util.TrySetTCPWriteBuffer(tcpConn, mgr.writeBufferSize, 4*1024); serr != nil {
			mgr.logger.Warnf("failed to set write buffer: %s", serr.Error())
		}
	}
	mgr.conn = conn
	mgr.writer = util.WrapWriteConn(conn, defs.ForwarderWriteTimeout)
	mgr.setState(StateConnected)
	mgr.metrics.OnConnected()
	mgr.logger.Infof("connected to %s", conn.RemoteAddr())
	return nil
}

// Write sends the record bytes followed by the line terminator in a single write.
// Any error, short write included, moves the state to Failed and is returned as-is;
// the caller handles requeueing and reconnection.
func (mgr *connManager) Write(rec Record) error {
	if mgr.State() != StateConnected {
		return fmt.Errorf("write to %s: not connected", mgr.address)
	}
	mgr.lineBuf = append(mgr.lineBuf[:0], rec.Line...)
	mgr.lineBuf = append(mgr.lineBuf, '\n')
	n, err := mgr.writer.Write(mgr.lineBuf)
	if err == nil && n < len(mgr.lineBuf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		mgr.setState(StateFailed)
		return fmt.Errorf("write to %s: %w", mgr.address, err)
	}
	return nil
}

// Close shuts the socket best-effort. Idempotent; always ends in Disconnected.
func (mgr *connManager) Close() {
	if mgr.conn != nil {
		if err := mgr.conn.Close(); err != nil && !util.IsNetworkClosed(err) {
			mgr.logger.Warnf("error closing connection: %s", err.Error())
		}
		mgr.conn = nil
		mgr.writer = nil
	}
	mgr.setState(StateDisconnected)
}

// State returns the current connection state; safe from any goroutine
func (mgr *connManager) State() ConnState {
	return ConnState(mgr.state.Load())
}

func (mgr *connManager) setState(state ConnState) {
	mgr.state.Store(int32(state))
}
