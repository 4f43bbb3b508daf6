// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// A Category is the category of a connect or write error, as reported
// by function Categorize.
//
// The category Not means the error does not fall into any of the
// well-known failure classes below. All other categories name the
// specific way in which establishing the connection, or writing the
// request onto it, went wrong.
type Category int

const (
	// Not indicates an error that belongs to no other category, or a
	// nil error.
	Not Category = iota
	// Timeout indicates a client-side timeout, either a socket deadline
	// or an exceeded context deadline.
	//
	// Function Categorize returns Timeout if the error or any of its
	// wrapped causes has a Timeout() function that reports true, or is
	// context.DeadlineExceeded.
	Timeout
	// ConnRefused indicates the remote host refused the connection, and
	// corresponds to the POSIX error code ECONNREFUSED.
	ConnRefused
	// ConnReset indicates the remote host returned an RST packet on a
	// previously active TCP connection, and corresponds to the POSIX
	// error code ECONNRESET. A write onto a socket the peer has reset
	// usually ends this way, or with EPIPE, which is folded in here.
	ConnReset
	// DNS indicates the host name could not be resolved.
	//
	// Function Categorize returns DNS if the error is not a Timeout and
	// the error or any of its wrapped causes is a *net.DNSError.
	DNS
	// Canceled indicates the operation was abandoned because its
	// context was canceled.
	Canceled
	// categorySentinel provides the total number of categories.
	categorySentinel
)

var categoryNames = []string{
	"Not",
	"Timeout",
	"ConnRefused",
	"ConnReset",
	"DNS",
	"Canceled",
}

// String returns the name of the category.
func (cat Category) String() string {
	if cat < 0 || cat >= categorySentinel {
		return "Unknown"
	}

	return categoryNames[cat]
}

// Categorize returns the category of the given error. A nil error,
// and an error that fits no well-known category, both produce the
// return value Not.
//
// In assessing the category, Categorize looks at wrapped cause errors
// contained within err, not just err itself.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	if errors.Is(err, context.Canceled) {
		return Canceled
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.EPIPE:
			return ConnReset
		case syscall.ECONNREFUSED:
			return ConnRefused
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return DNS
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}
