// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

// A State is the stage a single request has reached.
//
// A request moves through the states in declaration order, except
// that exactly one of Succeeded and Failed is visited, and a request
// whose connection could not be established goes straight from
// Connecting to Failed and then Closed. Closed is always the final
// state.
type State int

const (
	// Created is the state of an Execution that has not started.
	Created State = iota
	// Connecting means the TCP connection is being established.
	Connecting
	// Attached means the connection is open and its pipeline (response
	// decoder and request encoder) is in place.
	Attached
	// Writing means the request has been handed to the connection and
	// the write is pending.
	Writing
	// Succeeded means the request was written and flushed.
	Succeeded
	// Failed means either the connection or the write failed.
	Failed
	// Closing means the client is waiting for the connection to close.
	// Any response the peer sends is decoded during this state.
	Closing
	// Closed is the terminal state.
	Closed
	// stateSentinel provides the total number of states.
	stateSentinel
)

var stateNames = []string{
	"Created",
	"Connecting",
	"Attached",
	"Writing",
	"Succeeded",
	"Failed",
	"Closing",
	"Closed",
}

// Name returns the name of the state.
func (s State) Name() string {
	if s < 0 || s >= stateSentinel {
		return "Unknown"
	}
	return stateNames[int(s)]
}

// String returns the name of the state.
func (s State) String() string {
	return s.Name()
}

// Terminal reports whether s is the final state.
func (s State) Terminal() bool {
	return s == Closed
}
