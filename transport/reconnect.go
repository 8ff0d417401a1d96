// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Dialer produces a fresh Client, used by ReconnectingClient to
// re-establish a connection after a transient failure.
type Dialer func() (*Client, error)

type pendingCall struct {
	ctx     context.Context
	msgType uint16
	payload []byte
	result  chan callResult
}

type callResult struct {
	payload []byte
	err     error
}

// ReconnectingClient wraps a Client with a background sender goroutine
// that queues calls and survives transient connection loss by redialing
// with exponential backoff.
type ReconnectingClient struct {
	dial Dialer

	mu     sync.Mutex
	client *Client
	closed bool

	queue chan *pendingCall

	maxRetries    int
	retryDelay    time.Duration
	maxRetryDelay time.Duration

	done chan struct{}
	wg   sync.WaitGroup
}

// ReconnectOption configures a ReconnectingClient.
type ReconnectOption func(*ReconnectingClient)

// WithMaxRetries caps the number of redial attempts per failure.
func WithMaxRetries(n int) ReconnectOption {
	return func(c *ReconnectingClient) { c.maxRetries = n }
}

// WithRetryDelay sets the initial backoff delay between redial attempts.
func WithRetryDelay(d time.Duration) ReconnectOption {
	return func(c *ReconnectingClient) { c.retryDelay = d }
}

// WithMaxRetryDelay caps the exponential backoff delay.
func WithMaxRetryDelay(d time.Duration) ReconnectOption {
	return func(c *ReconnectingClient) { c.maxRetryDelay = d }
}

// WithQueueSize sets the bounded queue capacity for pending calls.
func WithQueueSize(n int) ReconnectOption {
	return func(c *ReconnectingClient) { c.queue = make(chan *pendingCall, n) }
}

// NewReconnectingClient dials once via dial and starts the background
// sender goroutine.
func NewReconnectingClient(dial Dialer, opts ...ReconnectOption) (*ReconnectingClient, error) {
	c := &ReconnectingClient{
		dial:          dial,
		queue:         make(chan *pendingCall, DefaultQueueSize),
		maxRetries:    DefaultMaxRetries,
		retryDelay:    DefaultRetryDelay,
		maxRetryDelay: DefaultMaxRetryDelay,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	client, err := dial()
	if err != nil {
		return nil, err
	}
	c.client = client

	c.wg.Add(1)
	go c.sender()

	slog.Info("[transport] reconnecting client initialized",
		"queue_size", cap(c.queue),
		"session_id", client.SessionID(),
	)

	return c, nil
}

// Call enqueues (msgType, payload) for delivery and blocks until a
// response arrives, ctx is done, or the client is closed.
func (c *ReconnectingClient) Call(ctx context.Context, msgType uint16, payload []byte) ([]byte, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	c.mu.Unlock()

	call := &pendingCall{ctx: ctx, msgType: msgType, payload: payload, result: make(chan callResult, 1)}

	select {
	case c.queue <- call:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClientClosed
	}

	select {
	case res := <-call.result:
		return res.payload, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClientClosed
	}
}

// Close stops the background sender and closes the underlying connection.
func (c *ReconnectingClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	client := c.client
	c.mu.Unlock()

	close(c.done)
	c.wg.Wait()

	if client != nil {
		return client.Close()
	}
	return nil
}

func (c *ReconnectingClient) sender() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case call := <-c.queue:
			c.deliver(call)
		}
	}
}

func (c *ReconnectingClient) deliver(call *pendingCall) {
	select {
	case <-call.ctx.Done():
		call.result <- callResult{err: call.ctx.Err()}
		return
	default:
	}

	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	payload, err := client.Call(call.ctx, call.msgType, call.payload)
	if err == nil || !isConnectionError(err) {
		call.result <- callResult{payload: payload, err: err}
		return
	}

	slog.Error("[transport] connection error, attempting reconnect", "error", err, "msg_type", call.msgType)

	if rerr := c.reconnect(); rerr != nil {
		slog.Error("[transport] reconnection failed", "error", rerr, "original_error", err)
		call.result <- callResult{err: rerr}
		return
	}

	c.mu.Lock()
	client = c.client
	c.mu.Unlock()

	payload, err = client.Call(call.ctx, call.msgType, call.payload)
	if err != nil {
		slog.Error("[transport] operation failed after reconnect", "error", err, "msg_type", call.msgType)
	}
	call.result <- callResult{payload: payload, err: err}
}

func (c *ReconnectingClient) reconnect() error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		select {
		case <-c.done:
			return ErrClientClosed
		case <-time.After(delay):
		}

		client, err := c.dial()
		if err == nil {
			c.mu.Lock()
			old := c.client
			c.client = client
			c.mu.Unlock()
			if old != nil {
				_ = old.Close()
			}
			slog.Info("[transport] reconnected successfully", "attempt", attempt+1, "session_id", client.SessionID())
			return nil
		}
		lastErr = err
		slog.Error("[transport] reconnect dial failed", "attempt", attempt+1, "error", err)

		delay *= 2
		if delay > c.maxRetryDelay {
			delay = c.maxRetryDelay
		}
	}

	return lastErr
}

// connectionSyscallErrors are syscall errors that indicate connection problems.
var connectionSyscallErrors = map[syscall.Errno]bool{
	syscall.ECONNRESET:   true,
	syscall.ECONNREFUSED: true,
	syscall.EPIPE:        true,
	syscall.ECONNABORTED: true,
	syscall.ENETUNREACH:  true,
	syscall.EHOSTUNREACH: true,
	syscall.ENETDOWN:     true,
	syscall.ETIMEDOUT:    true,
}

// isConnectionError reports whether err looks like a transient transport
// failure worth reconnecting over, as opposed to a protocol-level error
// the server sent back deliberately (ServerError).
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrClientClosed) {
		return false
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return false
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return connectionSyscallErrors[errno]
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Err != nil {
			return isConnectionError(opErr.Err)
		}
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionPatterns := []string{
		"connection reset",
		"connection refused",
		"broken pipe",
		"use of closed network connection",
		"network is unreachable",
		"no route to host",
		"connection timed out",
		"i/o timeout",
	}
	for _, pattern := range connectionPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
