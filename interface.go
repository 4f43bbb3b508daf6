// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package oneshot

import (
	"context"

	"github.com/gogama/oneshot/request"
)

// Sender is the interface that wraps the basic Send method.
//
// Send sends the request described by a plan over a new connection and
// returns the final execution state (and error, if any). Client
// implements the Sender interface, and any other Sender implementation
// must behave substantially the same as Client.Send.
//
// Any Sender can be converted into an Executor via the Inflate function.
type Sender interface {
	Send(p *request.Plan) (*request.Execution, error)
}

// Requester is the interface that wraps the basic SendHTTPRequest
// method.
//
// SendHTTPRequest creates a plan from its arguments, sends it, and
// returns the final execution state (and error, if any). Client
// implements the Requester interface.
//
// Any Sender can be used to emulate a Requester via the SendHTTPRequest
// function.
type Requester interface {
	SendHTTPRequest(ctx context.Context, host string, port int, uri, method, content string) (*request.Execution, error)
}

// Getter is the interface that wraps the basic Get method.
//
// Any Sender can be used to emulate a Getter via the Get function.
type Getter interface {
	Get(ctx context.Context, host string, port int, uri string) (*request.Execution, error)
}

// Poster is the interface that wraps the basic Post method.
//
// Post sends content as an application/json body.
//
// Any Sender can be used to emulate a Poster via the Post function.
type Poster interface {
	Post(ctx context.Context, host string, port int, uri, content string) (*request.Execution, error)
}

// Executor is the interface that groups the basic Send,
// SendHTTPRequest, Get, and Post methods.
//
// Any Sender can be converted into an Executor via the Inflate function.
type Executor interface {
	Sender
	Requester
	Getter
	Poster
}

// SendHTTPRequest uses the specified Sender to send one request to
// host:port, using the same policies as s.Send.
//
// The method defaults to GET when empty. Content is sent, labelled as
// application/json, only when the method is POST. The Host header is
// request.DefaultHostHeader; to send another, build the plan with
// request.NewPlanWithContext and call s.Send.
//
// If the arguments do not describe a valid request, the returned error
// has type request.FieldErrors and nothing is sent.
func SendHTTPRequest(ctx context.Context, s Sender, host string, port int, uri, method, content string) (*request.Execution, error) {
	p, err := request.NewPlanWithContext(ctx, host, port, uri, method, content)
	if err != nil {
		return nil, err
	}
	return s.Send(p)
}

// Get uses the specified Sender to send a GET, using the same policies
// as s.Send.
func Get(ctx context.Context, s Sender, host string, port int, uri string) (*request.Execution, error) {
	return SendHTTPRequest(ctx, s, host, port, uri, "GET", "")
}

// Post uses the specified Sender to send a POST with content as an
// application/json body, using the same policies as s.Send.
func Post(ctx context.Context, s Sender, host string, port int, uri, content string) (*request.Execution, error) {
	return SendHTTPRequest(ctx, s, host, port, uri, "POST", content)
}

// Inflate converts any non-nil Sender into an Executor. This may be
// helpful for interop across library boundaries, i.e. if code that only
// has access to a Sender needs to call a function that requires an
// Executor.
func Inflate(s Sender) Executor {
	if s == nil {
		panic("oneshot: nil sender")
	}

	if e, ok := s.(Executor); ok {
		return e
	}

	return inflated{s}
}

type inflated struct {
	sender Sender
}

func (i inflated) Send(p *request.Plan) (*request.Execution, error) {
	return i.sender.Send(p)
}

func (i inflated) SendHTTPRequest(ctx context.Context, host string, port int, uri, method, content string) (*request.Execution, error) {
	return SendHTTPRequest(ctx, i.sender, host, port, uri, method, content)
}

func (i inflated) Get(ctx context.Context, host string, port int, uri string) (*request.Execution, error) {
	return Get(ctx, i.sender, host, port, uri)
}

func (i inflated) Post(ctx context.Context, host string, port int, uri, content string) (*request.Execution, error) {
	return Post(ctx, i.sender, host, port, uri, content)
}
