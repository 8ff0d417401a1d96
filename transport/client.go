// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Frame message types shared by every store endpoint (register, blob,
// name-service). Endpoint-specific verbs are carried as msgpack payloads
// above this, keyed by their own numeric tags (see register/blobclient/
// nrsclient), so this package never needs to change when a new verb is
// added to one of them.
const (
	MsgHello uint16 = 1
	MsgError uint16 = 255
)

// Default timeouts and retry/queue parameters.
const (
	DefaultDialTimeout    = 5 * time.Second
	DefaultRequestTimeout = 30 * time.Second

	DefaultMaxRetries    = 5
	DefaultRetryDelay    = 100 * time.Millisecond
	DefaultMaxRetryDelay = 30 * time.Second
	DefaultQueueSize     = 10_000
)

// Caller is the generic request/response surface both Client and
// ReconnectingClient implement. Register/blob/name-service wire clients
// depend only on this, so they work unmodified whether or not the
// connection auto-reconnects.
type Caller interface {
	Call(ctx context.Context, msgType uint16, payload []byte) ([]byte, error)
}

// Client handles framed binary communication with a store endpoint.
type Client struct {
	conn      net.Conn
	mu        sync.Mutex
	reqID     atomic.Uint64
	timeout   time.Duration
	closed    bool
	sessionID uint64
	clientTag string
}

// Option configures Client behavior.
type Option func(*clientOptions)

type clientOptions struct {
	dialTimeout    time.Duration
	requestTimeout time.Duration
	clientTag      string
}

// WithDialTimeout sets the connection timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.dialTimeout = d }
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.requestTimeout = d }
}

// WithClientTag sets the identifying tag sent in the HELLO handshake.
func WithClientTag(tag string) Option {
	return func(o *clientOptions) { o.clientTag = tag }
}

// Dial connects to a store endpoint over plain TCP and performs the HELLO
// handshake.
func Dial(addr string, opts ...Option) (*Client, error) {
	options := clientOptions{dialTimeout: DefaultDialTimeout, requestTimeout: DefaultRequestTimeout}
	for _, opt := range opts {
		opt(&options)
	}

	conn, err := net.DialTimeout("tcp", addr, options.dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("transport dial: %w", err)
	}
	return newClient(conn, options)
}

// DialTLS connects to a store endpoint over TLS and performs the HELLO
// handshake.
func DialTLS(addr string, opts ...Option) (*Client, error) {
	options := clientOptions{dialTimeout: DefaultDialTimeout, requestTimeout: DefaultRequestTimeout}
	for _, opt := range opts {
		opt(&options)
	}

	dialer := &net.Dialer{Timeout: options.dialTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{})
	if err != nil {
		return nil, fmt.Errorf("transport dial tls: %w", err)
	}
	return newClient(conn, options)
}

func newClient(conn net.Conn, options clientOptions) (*Client, error) {
	c := &Client{conn: conn, timeout: options.requestTimeout, clientTag: options.clientTag}
	if err := c.sendHello(options.clientTag); err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport hello: %w", err)
	}
	return c, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// SessionID returns the session ID assigned during the HELLO handshake.
func (c *Client) SessionID() uint64 { return c.sessionID }

// ClientTag returns the tag used for this connection.
func (c *Client) ClientTag() string { return c.clientTag }

func (c *Client) sendHello(clientTag string) error {
	payload := &bytes.Buffer{}
	_ = binary.Write(payload, binary.LittleEndian, uint16(1))
	_ = binary.Write(payload, binary.LittleEndian, uint16(len(clientTag)))
	payload.WriteString(clientTag)
	_ = binary.Write(payload, binary.LittleEndian, uint32(0))

	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	defer func() { _ = c.conn.SetDeadline(time.Time{}) }()

	reqID := c.reqID.Add(1)
	if err := c.writeFrame(MsgHello, reqID, payload.Bytes()); err != nil {
		return err
	}

	resp, err := c.readFrame()
	if err != nil {
		return err
	}
	if resp.msgType == MsgError {
		return parseServerError(resp.payload)
	}
	if resp.msgType != MsgHello {
		return fmt.Errorf("unexpected response type: %d", resp.msgType)
	}
	if len(resp.payload) >= 8 {
		c.sessionID = binary.LittleEndian.Uint64(resp.payload[0:8])
	}
	return nil
}

type frame struct {
	msgType uint16
	reqID   uint64
	payload []byte
}

// Call sends msgType with payload and returns the response payload. The
// caller is responsible for msgpack-encoding/decoding payload.
func (c *Client) Call(ctx context.Context, msgType uint16, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}
	defer func() { _ = c.conn.SetDeadline(time.Time{}) }()

	reqID := c.reqID.Add(1)
	if err := c.writeFrame(msgType, reqID, payload); err != nil {
		return nil, err
	}

	resp, err := c.readFrame()
	if err != nil {
		return nil, err
	}
	if resp.msgType == MsgError {
		return nil, parseServerError(resp.payload)
	}
	return resp.payload, nil
}

func (c *Client) writeFrame(msgType uint16, reqID uint64, payload []byte) error {
	header := &bytes.Buffer{}
	_ = binary.Write(header, binary.LittleEndian, uint32(len(payload)))
	_ = binary.Write(header, binary.LittleEndian, msgType)
	_ = binary.Write(header, binary.LittleEndian, uint16(0)) // flags
	_ = binary.Write(header, binary.LittleEndian, reqID)

	_, err := c.conn.Write(append(header.Bytes(), payload...))
	return err
}

func (c *Client) readFrame() (*frame, error) {
	header := make([]byte, 16)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	length := binary.LittleEndian.Uint32(header[0:4])
	msgType := binary.LittleEndian.Uint16(header[4:6])
	reqID := binary.LittleEndian.Uint64(header[8:16])

	payload := make([]byte, length)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	return &frame{msgType: msgType, reqID: reqID, payload: payload}, nil
}

func parseServerError(payload []byte) error {
	if len(payload) < 8 {
		return &ServerError{Code: 0, Detail: "unknown error"}
	}
	code := binary.LittleEndian.Uint32(payload[0:4])
	detailLen := binary.LittleEndian.Uint32(payload[4:8])
	detail := ""
	if int(detailLen) <= len(payload)-8 {
		detail = string(payload[8 : 8+detailLen])
	}
	return &ServerError{Code: code, Detail: detail}
}
