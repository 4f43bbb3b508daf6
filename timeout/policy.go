// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/oneshot/request"
)

// Never is the timeout value meaning "no deadline".
const Never time.Duration = 1<<63 - 1

// A Policy defines a timeout policy which may be plugged into the
// client (oneshot.Client) to bound each asynchronous phase of a send.
//
// The client consults the policy once at the start of each phase, when
// e.State is Connecting, Writing or Closing. Any return value which is
// zero, negative, or equal to Never means the phase has no deadline of
// its own, although the plan's context still applies.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout for the phase the execution is
	// entering.
	//
	// Parameter e contains the current state of the send. The return
	// value is the maximum time the phase indicated by e.State may take.
	Timeout(e *request.Execution) time.Duration
}

// Infinite is a built-in timeout policy which never times out.
var Infinite Policy = Fixed(Never)

// DefaultPolicy is the default timeout policy. It is Infinite: a peer
// which accepts the request but never closes the connection keeps the
// send waiting until the plan's context is done or the bootstrap is
// shut down.
var DefaultPolicy = Infinite

// Fixed constructs a timeout policy that uses the same value for every
// phase. The return value is a timeout policy that always returns the
// value d.
func Fixed(d time.Duration) Policy {
	return phased{d, d, d}
}

// Phased constructs a timeout policy with a separate value for each
// phase of the send.
//
// Parameter connect bounds establishing the TCP connection. Parameter
// write bounds encoding and flushing the request onto the connection.
// Parameter close bounds waiting for the connection to be closed, which
// for a well-behaved peer happens after it has sent its response.
//
// Consider the following timeout policy:
//
// 	p := Phased(time.Second, 2*time.Second, Never)
//
// The policy p gives up on connecting after 1 second and on writing
// after 2 seconds, but waits for the peer to close the connection for
// as long as the plan's context allows.
func Phased(connect, write, close time.Duration) Policy {
	return phased{connect, write, close}
}

type phased [3]time.Duration

func (p phased) Timeout(e *request.Execution) time.Duration {
	switch e.State {
	case request.Created, request.Connecting:
		return p[0]
	case request.Attached, request.Writing:
		return p[1]
	default:
		return p[2]
	}
}
