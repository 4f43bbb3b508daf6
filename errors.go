// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package oneshot

import (
	"errors"

	"github.com/gogama/oneshot/transient"
)

var (
	// ErrNotStarted is reported by Bootstrap.Connect when the bootstrap
	// has not been started.
	ErrNotStarted = errors.New("oneshot: bootstrap not started")

	// ErrAlreadyStarted is returned by Bootstrap.Start on every call
	// after the first.
	ErrAlreadyStarted = errors.New("oneshot: bootstrap already started")

	// ErrShutdown is reported by Bootstrap operations attempted after
	// Shutdown.
	ErrShutdown = errors.New("oneshot: bootstrap shut down")

	// ErrConnUsed is reported by Conn.Write when the connection has
	// already been given its one request.
	ErrConnUsed = errors.New("oneshot: connection already used")

	// ErrNilBootstrap is returned by Client.Send when the client has no
	// Bootstrap.
	ErrNilBootstrap = errors.New("oneshot: nil bootstrap")
)

// A ConnectError records a failure to establish the TCP connection.
// No request is written when connecting fails.
type ConnectError struct {
	Addr     string
	Category transient.Category
	Err      error
}

func (e *ConnectError) Error() string {
	return "oneshot: connect " + e.Addr + ": " + e.Err.Error()
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Timeout reports whether the connect attempt timed out.
func (e *ConnectError) Timeout() bool { return e.Category == transient.Timeout }

// A WriteError records a failure to encode the request or to write it
// onto an established connection.
type WriteError struct {
	Addr     string
	Category transient.Category
	Err      error
}

func (e *WriteError) Error() string {
	return "oneshot: write " + e.Addr + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error { return e.Err }

// Timeout reports whether the write timed out.
func (e *WriteError) Timeout() bool { return e.Category == transient.Timeout }

// A CloseError records that the wait for the peer to close the
// connection was cut short, so the client closed it instead. The
// request itself was sent.
type CloseError struct {
	Addr string
	Err  error
}

func (e *CloseError) Error() string {
	return "oneshot: close " + e.Addr + ": " + e.Err.Error()
}

func (e *CloseError) Unwrap() error { return e.Err }
