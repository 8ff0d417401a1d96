// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"testing"
	"time"
)

const defaultTestTimeout = 5 * time.Second

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	t.Cleanup(cancel)
	return ctx
}

func TestIsConnectionError_Nil(t *testing.T) {
	if isConnectionError(nil) {
		t.Error("nil error should not be a connection error")
	}
}

func TestIsConnectionError_EOF(t *testing.T) {
	if !isConnectionError(io.EOF) {
		t.Error("io.EOF should be a connection error")
	}
	if !isConnectionError(io.ErrUnexpectedEOF) {
		t.Error("io.ErrUnexpectedEOF should be a connection error")
	}
}

func TestIsConnectionError_Syscall(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"ECONNRESET", syscall.ECONNRESET, true},
		{"ECONNREFUSED", syscall.ECONNREFUSED, true},
		{"EPIPE", syscall.EPIPE, true},
		{"ENOENT", syscall.ENOENT, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.want {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsConnectionError_WrappedMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"connection reset message", errors.New("connection reset by peer"), true},
		{"broken pipe message", errors.New("write: broken pipe"), true},
		{"connection refused message", errors.New("dial tcp: connection refused"), true},
		{"unrelated message", errors.New("file not found"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.want {
				t.Errorf("isConnectionError(%q) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsConnectionError_ErrClientClosed(t *testing.T) {
	if isConnectionError(ErrClientClosed) {
		t.Error("ErrClientClosed should NOT be treated as a connection error")
	}
}

func TestIsConnectionError_ServerError(t *testing.T) {
	if isConnectionError(&ServerError{Code: 404, Detail: "not found"}) {
		t.Error("ServerError should NOT be treated as a connection error")
	}
}

func TestIsConnectionError_OpError(t *testing.T) {
	opErr := &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}
	if !isConnectionError(opErr) {
		t.Error("net.OpError wrapping ECONNRESET should be a connection error")
	}
}

// loopbackPair returns two connected in-memory net.Conns for testing frame
// encoding without a real listener.
func loopbackPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return server, client
}

func TestClientCallRoundTrip(t *testing.T) {
	server, clientConn := loopbackPair(t)

	go func() {
		header := make([]byte, 16)
		if _, err := io.ReadFull(server, header); err != nil {
			return
		}
		helloLen := int(header[0]) | int(header[1])<<8 | int(header[2])<<16 | int(header[3])<<24
		if _, err := io.ReadFull(server, make([]byte, helloLen)); err != nil {
			return
		}
		// HELLO response: 8-byte session ID.
		resp := make([]byte, 16+8)
		resp[0] = 8
		resp[4] = byte(MsgHello)
		server.Write(resp)

		for {
			if _, err := io.ReadFull(server, header); err != nil {
				return
			}
			length := int(header[0]) | int(header[1])<<8 | int(header[2])<<16 | int(header[3])<<24
			payload := make([]byte, length)
			io.ReadFull(server, payload)

			out := make([]byte, 16+len(payload))
			out[0] = byte(len(payload))
			out[4] = header[4]
			out[5] = header[5]
			copy(out[8:16], header[8:16])
			copy(out[16:], payload)
			server.Write(out)
		}
	}()

	c, err := newClient(clientConn, clientOptions{requestTimeout: defaultTestTimeout, clientTag: "test"})
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}

	resp, err := c.Call(testContext(t), 42, []byte("ping"))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if string(resp) != "ping" {
		t.Errorf("Call() = %q, want %q (echo)", resp, "ping")
	}
}
