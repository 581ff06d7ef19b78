package util

import (
	"net"
	"time"
)

// WriteDeadlineConn wraps the write side of a connection with a deadline updated
// infrequently in trade of accuracy: the effective timeout of one write is anything
// between the specified value and double of it
//
// The deadline bounds how long a stuck peer can block the writer, so a shutdown
// signal is honored eventually even mid-write.
type WriteDeadlineConn struct {
	conn       net.Conn
	timeoutMin time.Duration
	timeoutMax time.Duration
	deadline   time.Time
}

// WrapWriteConn creates a WriteDeadlineConn for given network connection
func WrapWriteConn(conn net.Conn, writeTimeout time.Duration) *WriteDeadlineConn {
	return &WriteDeadlineConn{
		conn:       conn,
		timeoutMin: writeTimeout,
		timeoutMax: writeTimeout * 2,
		deadline:   time.Time{},
	}
}

// WriteDeadline returns the current write deadline
func (cw *WriteDeadlineConn) WriteDeadline() time.Time {
	return cw.deadline
}

func (cw *WriteDeadlineConn) Write(p []byte) (int, error) {
	if cw.timeoutMin > 0 {
		now := time.Now()
		if cw.deadline.Sub(now) < cw.timeoutMin {
			nextDeadline := now.Add(cw.timeoutMax)
			if err := cw.conn.SetWriteDeadline(nextDeadline); err != nil {
				return 0, err
			}
			cw.deadline = nextDeadline
		}
	}
	return cw.conn.Write(p)
}
