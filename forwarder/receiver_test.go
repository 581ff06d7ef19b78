package forwarder

import (
	"bufio"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// lineReceiver is a loopback TCP collector accepting any number of connections and
// gathering received lines for assertions
type lineReceiver struct {
	listener net.Listener
	lines    chan string
}

func startLineReceiver(t *testing.T) *lineReceiver {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	recv := &lineReceiver{
		listener: listener,
		lines:    make(chan string, 100000),
	}
	go recv.acceptLoop()
	return recv
}

func (recv *lineReceiver) Address() string {
	return recv.listener.Addr().String()
}

func (recv *lineReceiver) Close() {
	recv.listener.Close()
}

// WaitLines collects exactly n lines or fails the test on timeout
func (recv *lineReceiver) WaitLines(t *testing.T, n int, timeout time.Duration) []string {
	collected := make([]string, 0, n)
	deadline := time.After(timeout)
	for len(collected) < n {
		select {
		case line := <-recv.lines:
			collected = append(collected, line)
		case <-deadline:
			require.Failf(t, "timeout", "received %d of %d lines: %v", len(collected), n, collected)
		}
	}
	return collected
}

func (recv *lineReceiver) acceptLoop() {
	for {
		conn, err := recv.listener.Accept()
		if err != nil {
			return
		}
		go recv.readLines(conn)
	}
}

func (recv *lineReceiver) readLines(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		recv.lines <- scanner.Text()
	}
}

// brokenConn satisfies net.Conn and fails every write, to simulate a connection
// whose failure is only detected when the worker writes to it
type brokenConn struct{}

func (conn *brokenConn) Read(p []byte) (int, error) {
	return 0, &net.OpError{Op: "read", Err: errBroken}
}

func (conn *brokenConn) Write(p []byte) (int, error) {
	return 0, &net.OpError{Op: "write", Err: errBroken}
}
func (conn *brokenConn) Close() error                       { return nil }
func (conn *brokenConn) LocalAddr() net.Addr                { return brokenAddr{} }
func (conn *brokenConn) RemoteAddr() net.Addr               { return brokenAddr{} }
func (conn *brokenConn) SetDeadline(t time.Time) error      { return nil }
func (conn *brokenConn) SetReadDeadline(t time.Time) error  { return nil }
func (conn *brokenConn) SetWriteDeadline(t time.Time) error { return nil }

type brokenAddr struct{}

func (brokenAddr) Network() string { return "tcp" }
func (brokenAddr) String() string  { return "broken:0" }

var errBroken = errors.New("simulated failure")
