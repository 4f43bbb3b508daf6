// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package oneshot

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Client to extend it with custom
// functionality.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before the
	// send starts.
	//
	// When Client fires BeforeExecutionStart, the execution is
	// non-nil but the only fields that have been set are the plan and
	// the ID.
	BeforeExecutionStart Event = iota
	// BeforeConnect identifies the event that occurs before the client
	// asks the bootstrap for a connection.
	//
	// When Client fires BeforeConnect, the execution's state is
	// Connecting.
	BeforeConnect
	// AfterConnect identifies the event that occurs after the connect
	// attempt concludes, regardless of whether it concluded
	// successfully or not.
	//
	// When Client fires AfterConnect, either the execution's state is
	// Attached and its local and remote addresses are set, or its state
	// is Failed and its error field is set to a *ConnectError. In the
	// latter case the next events are AfterClose and AfterExecutionEnd.
	AfterConnect
	// BeforeWrite identifies the event that occurs before the request
	// is written onto the connection.
	//
	// When Client fires BeforeWrite, the execution's request field is
	// set to the HTTP request that WILL BE encoded after all BeforeWrite
	// handlers have finished. Handlers may modify the request, but
	// should clone its Header before changing it.
	BeforeWrite
	// AfterWrite identifies the event that occurs after the pending
	// write completes, regardless of whether it completed successfully
	// or not.
	//
	// When Client fires AfterWrite, the execution's state is either
	// Succeeded, in which case Sent is true, or Failed, in which case
	// the error field is set to a *WriteError and the connection is
	// already being closed.
	AfterWrite
	// AfterResponse identifies the event that occurs after the
	// connection closed having delivered an HTTP response.
	//
	// When Client fires AfterResponse, the execution's response and
	// body fields are set. AfterResponse does not fire if the peer
	// closed the connection without responding.
	AfterResponse
	// AfterClose identifies the event that occurs once the connection
	// is closed, or once the client has given up on connecting.
	//
	// When Client fires AfterClose, the execution's state is Closed.
	AfterClose
	// AfterExecutionEnd identifies the event that occurs after the
	// send ends.
	//
	// When Client fires AfterExecutionEnd, the execution is in
	// the same state it was in after AfterClose EXCEPT that the end time
	// is set to the time the execution ended.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeConnect",
	"AfterConnect",
	"BeforeWrite",
	"AfterWrite",
	"AfterResponse",
	"AfterClose",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur while
// Client sends a request, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeConnect,
		AfterConnect,
		BeforeWrite,
		AfterWrite,
		AfterResponse,
		AfterClose,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
