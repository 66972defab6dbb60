// Package dap implements the Debug Adapter Protocol client used by the DAP
// backend. It provides a TCP transport with message framing via
// github.com/google/go-dap and a request/response client with sequence-number
// correlation and stop-event tracking.
//
// The protocol is described at: https://microsoft.github.io/debug-adapter-protocol/
package dap

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/go-dap"
)

// Transport handles framed message exchange with a DAP adapter over TCP.
type Transport struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	mu     sync.Mutex
	seq    int
}

// Dial connects to a DAP adapter, retrying for up to timeout since adapters
// often take a moment to start listening after being launched.
func Dial(address string, timeout time.Duration) (*Transport, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		conn, err := net.DialTimeout("tcp", address, time.Second)
		if err == nil {
			return &Transport{
				conn:   conn,
				reader: bufio.NewReader(conn),
				writer: bufio.NewWriter(conn),
				seq:    1,
			}, nil
		}
		lastErr = err
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("failed to connect to debug adapter at %s: %w", address, lastErr)
		}
		time.Sleep(250 * time.Millisecond)
	}
}

// NextSeq returns the next request sequence number.
func (t *Transport) NextSeq() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	seq := t.seq
	t.seq++
	return seq
}

// Send writes one DAP message.
func (t *Transport) Send(msg dap.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := dap.WriteProtocolMessage(t.writer, msg); err != nil {
		return fmt.Errorf("failed to write DAP message: %w", err)
	}
	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush DAP message: %w", err)
	}
	return nil
}

// Receive reads one DAP message, blocking until one arrives.
func (t *Transport) Receive() (dap.Message, error) {
	msg, err := dap.ReadProtocolMessage(t.reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read DAP message: %w", err)
	}
	return msg, nil
}

// Close closes the underlying connection.
func (t *Transport) Close() error {
	return t.conn.Close()
}
