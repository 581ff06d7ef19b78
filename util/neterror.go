package util

import (
	"errors"
	"io"
	"net"
	"strings"
)

// IsNetworkClosed checks if the given error tells closing of network connection
func IsNetworkClosed(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Err.Error() == "use of closed network connection"
	}
	return false
}

// IsNetworkTimeout checks if the given error is network timeout
func IsNetworkTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsNetworkError checks if the given error originates from the network layer, as
// opposed to e.g. a local configuration problem
func IsNetworkError(err error) bool {
	var opErr *net.OpError
	return IsNetworkClosed(err) || IsNetworkTimeout(err) || errors.As(err, &opErr)
}

// TrySetTCPWriteBuffer attempts to set write buffer within the range given
func TrySetTCPWriteBuffer(conn *net.TCPConn, max int, min int) (int, error) {
	var err error
	val := max
	for val >= min {
		err = conn.SetWriteBuffer(val)
		if err == nil {
			return val, nil
		}
		if !strings.HasSuffix(err.Error(), "setsockopt: no buffer space available") {
			return -1, err
		}
		val /= 2
	}
	if val != min {
		err = conn.SetWriteBuffer(min)
		if err == nil {
			return min, nil
		}
	}
	return -1, err
}
