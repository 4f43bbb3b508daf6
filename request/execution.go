// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gogama/oneshot/transient"
)

// An Execution represents the state of sending a single Plan.
//
// When a plan is sent, an Execution is created for it. The Execution is
// updated as the request progresses through its states (connecting,
// writing, closing) and is ultimately returned to the caller.
//
// Timeout policies and event handlers may set values on an Execution
// using its SetValue method and read them back using the Value method.
// However, they should treat the structure's exported field values as
// immutable and leave them unmodified, as the execution state drives
// the client.
type Execution struct {
	// ID identifies the execution in logs. It is the trace ID of the
	// execution's span when tracing is enabled, and a random UUID
	// otherwise.
	ID string

	// Plan specifies the request being sent. It is never nil.
	Plan *Plan

	// State is the state the request has reached.
	State State

	// Start is the start time of the execution. It is assigned a
	// non-zero value when the execution starts, and this value remains
	// constant thereafter.
	Start time.Time

	// End is the end time of the execution. It contains the zero value
	// until the execution ends, when it is set to the current time.
	End time.Time

	// LocalAddr and RemoteAddr are the endpoints of the connection. They
	// are nil if the connection was never established.
	LocalAddr  net.Addr
	RemoteAddr net.Addr

	// Request is the HTTP request written onto the connection. It is
	// nil until the Writing state.
	Request *http.Request

	// Sent reports whether the pending write completed successfully.
	Sent bool

	// Response is the HTTP response decoded from the connection before
	// it closed, if the peer sent one. Its Body has already been read
	// into the Body field and closed.
	Response *http.Response

	// Body is the buffered response body. It is nil if there is no
	// Response.
	Body []byte

	// Err is the error that ended the execution, if any. Once the
	// execution has ended, Err has the same value as the error value
	// returned by the client's sending method.
	Err error

	// data contains arbitrary user data, accessed via Value and
	// SetValue.
	data context.Context
}

// StatusCode returns the status code of the decoded HTTP response. If
// there is no HTTP response, 0 is returned.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Header returns the decoded HTTP response headers. If there is no HTTP
// response, the nil header is returned.
//
// Note that a nil return value is always safe for read-only operations,
// since http.Header is a map type.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}

	return e.Response.Header
}

// Duration returns the duration of the execution.
//
// If the execution has not yet started, the duration is zero. If the
// execution has ended, the duration returned is equal to End minus
// Start. Otherwise, it is equal to the current time minus Start.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the execution has ended.
//
// If the return value is true, End is a non-zero time and there will be
// no further changes to the execution.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// Timeout indicates whether Err currently contains a non-nil value
// which indicates a timeout, either a socket timeout or an exceeded
// deadline from the timeout policy or the plan's context.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// SetValue allows event handlers to store arbitrary data in the
// execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue, namely it:
//
// • it may not be nil;
//
// • it must be comparable;
//
// • it should not be of type string or any other built-in type to avoid
// collisions between different event handlers putting data into the
// same execution.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
