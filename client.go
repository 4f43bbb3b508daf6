// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package oneshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogama/oneshot/request"
	"github.com/gogama/oneshot/timeout"
	"github.com/gogama/oneshot/transient"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/gogama/oneshot"

var (
	emptyHandlers = HandlerGroup{}
	noopTracer    = noop.NewTracerProvider().Tracer(tracerName)
)

// A Client sends single HTTP/1.1 requests, each over its own TCP
// connection, and reports whether the request was written. It does not
// wait for or require a response.
//
// A Client needs a started Bootstrap, which supplies the connections.
// All other fields are optional: the zero value of each uses
// timeout.DefaultPolicy as the timeout policy, no event handlers,
// slog.Default() as the logger, and a no-op tracer.
//
// Client is safe for concurrent use by multiple goroutines. Concurrent
// sends share only the Bootstrap; each has its own connection.
//
// Each send runs through the following phases:
//
// • connect: the bootstrap dials the plan's host and port and attaches
// its pipeline;
//
// • write: the plan is converted to an http.Request, encoded, and
// written, completing the pending write;
//
// • close: the client waits for the connection to close. A peer which
// responds and closes ends the wait, and its decoded response is made
// available on the execution.
//
// Connect and write failures are logged at error level and a successful
// write is logged at info level. The client never retries.
type Client struct {
	// Bootstrap provides connections. It must be started before the
	// client is used, and the client must not be used after it is
	// shut down.
	Bootstrap *Bootstrap
	// TimeoutPolicy bounds each phase of a send.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used, which
	// never times out.
	TimeoutPolicy timeout.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur while a request is sent.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
	// Logger receives the client's logs. If Logger is nil,
	// slog.Default() is used.
	Logger *slog.Logger
	// Tracer starts one span for each send. If Tracer is nil, no spans
	// are recorded.
	Tracer trace.Tracer
}

// Send sends the request described by p over a new connection and
// returns the final execution state.
//
// The returned error is nil if the request was written and the
// connection then closed. Otherwise it is a *ConnectError if no
// connection could be made, a *WriteError if the request could not be
// written, or a *CloseError if the wait for the connection to close was
// cut short by the plan's context or the close-phase timeout. A
// non-2XX response status does not result in an error.
//
// The returned Execution is never nil unless the client has no
// Bootstrap or p is invalid, in which case no connection is attempted
// and ErrNilBootstrap or a request.FieldErrors is returned. If an
// execution is returned, its Err field references the same error.
func (c *Client) Send(p *request.Plan) (*request.Execution, error) {
	if c.Bootstrap == nil {
		return nil, ErrNilBootstrap
	}
	if err := request.Validate(p); err != nil {
		log := c.logger()
		if p != nil {
			log = log.With("addr", p.Addr(), "method", p.Method, "uri", p.URI)
		}
		log.Error("invalid request", "error", err)
		return nil, err
	}

	ctx, span := c.tracer().Start(p.Context(), "oneshot.Send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", p.Method),
			attribute.String("server.address", p.Host),
			attribute.Int("server.port", p.Port),
			attribute.String("url.path", p.URI),
		))
	defer span.End()

	e := &request.Execution{
		ID:   executionID(span),
		Plan: p,
	}
	log := c.logger().With("id", e.ID, "addr", p.Addr(), "method", p.Method, "uri", p.URI)
	handlers := c.handlers()

	handlers.run(BeforeExecutionStart, e)
	e.Start = time.Now()

	var conn *Conn
	defer func() {
		// Only reached with the connection still open if a handler
		// panicked.
		if conn != nil && e.State != request.Closed {
			_ = conn.Close()
		}
	}()

	conn = c.connect(ctx, e, handlers, log)
	handlers.run(AfterConnect, e)
	if conn != nil {
		c.write(ctx, e, conn, handlers, log)
		c.awaitClose(ctx, e, conn, handlers, log)
	}

	e.State = request.Closed
	handlers.run(AfterClose, e)
	e.End = time.Now()
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	} else if e.Response != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", e.Response.StatusCode))
	}
	handlers.run(AfterExecutionEnd, e)
	return e, e.Err
}

func (c *Client) connect(ctx context.Context, e *request.Execution, handlers *HandlerGroup, log *slog.Logger) *Conn {
	e.State = request.Connecting
	handlers.run(BeforeConnect, e)
	phaseCtx, cancel := c.phaseContext(ctx, e)
	defer cancel()

	f := c.Bootstrap.Connect(phaseCtx, e.Plan.Host, e.Plan.Port)
	// The dial is bound to phaseCtx, so the future always completes.
	<-f.Done()
	if err := f.Err(); err != nil {
		err = withContextCause(phaseCtx, err)
		cat := transient.Categorize(err)
		e.Err = &ConnectError{Addr: e.Plan.Addr(), Category: cat, Err: err}
		e.State = request.Failed
		log.Error("failed to connect", "state", e.State.Name(), "category", cat.String(), "error", err)
		return nil
	}

	conn := f.Conn()
	e.LocalAddr = conn.LocalAddr()
	e.RemoteAddr = conn.RemoteAddr()
	e.State = request.Attached
	return conn
}

func (c *Client) write(ctx context.Context, e *request.Execution, conn *Conn, handlers *HandlerGroup, log *slog.Logger) {
	e.State = request.Writing
	phaseCtx, cancel := c.phaseContext(ctx, e)
	defer cancel()

	e.Request = e.Plan.ToRequest(ctx)
	handlers.run(BeforeWrite, e)
	f := conn.Write(e.Request)

	var err error
	select {
	case <-f.Done():
		err = f.Err()
	case <-phaseCtx.Done():
		// Closing the socket unblocks the writer.
		_ = conn.Close()
		<-f.Done()
		if err = f.Err(); err != nil {
			err = withContextCause(phaseCtx, err)
		}
	}

	if err == nil {
		e.Sent = true
		e.State = request.Succeeded
		log.Info("request sent successfully", "state", e.State.Name())
	} else {
		cat := transient.Categorize(err)
		e.Err = &WriteError{Addr: e.Plan.Addr(), Category: cat, Err: err}
		e.State = request.Failed
		log.Error("failed to send request", "state", e.State.Name(), "category", cat.String(), "error", err)
		_ = conn.Close()
	}
	handlers.run(AfterWrite, e)
}

func (c *Client) awaitClose(ctx context.Context, e *request.Execution, conn *Conn, handlers *HandlerGroup, log *slog.Logger) {
	e.State = request.Closing
	phaseCtx, cancel := c.phaseContext(ctx, e)
	defer cancel()

	closed := conn.CloseFuture()
	select {
	case <-closed.Done():
	case <-phaseCtx.Done():
		_ = conn.Close()
		<-closed.Done()
		if e.Err == nil {
			e.Err = &CloseError{Addr: e.Plan.Addr(), Err: phaseCtx.Err()}
		}
		log.Warn("gave up waiting for peer to close", "state", e.State.Name(), "error", phaseCtx.Err())
	}

	resp, body, err := conn.Response()
	if err != nil {
		log.Debug("failed to decode response", "error", err)
	}
	if resp != nil {
		e.Response = resp
		e.Body = body
		handlers.run(AfterResponse, e)
	}
}

// phaseContext derives the context for the phase e is entering.
func (c *Client) phaseContext(ctx context.Context, e *request.Execution) (context.Context, context.CancelFunc) {
	d := c.timeoutPolicy().Timeout(e)
	if d <= 0 || d == timeout.Never {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// SendHTTPRequest creates a plan from its arguments and sends it, using
// the same policies as Send. An empty method means GET, and content is
// only sent for POST.
func (c *Client) SendHTTPRequest(ctx context.Context, host string, port int, uri, method, content string) (*request.Execution, error) {
	return SendHTTPRequest(ctx, c, host, port, uri, method, content)
}

// Get sends a GET for uri to host:port, using the same policies as
// Send.
func (c *Client) Get(ctx context.Context, host string, port int, uri string) (*request.Execution, error) {
	return Get(ctx, c, host, port, uri)
}

// Post sends a POST for uri to host:port with content as a JSON body,
// using the same policies as Send.
func (c *Client) Post(ctx context.Context, host string, port int, uri, content string) (*request.Execution, error) {
	return Post(ctx, c, host, port, uri, content)
}

func (c *Client) timeoutPolicy() timeout.Policy {
	if c.TimeoutPolicy == nil {
		return timeout.DefaultPolicy
	}
	return c.TimeoutPolicy
}

func (c *Client) handlers() *HandlerGroup {
	if c.Handlers == nil {
		return &emptyHandlers
	}
	return c.Handlers
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Client) tracer() trace.Tracer {
	if c.Tracer == nil {
		return noopTracer
	}
	return c.Tracer
}

func executionID(span trace.Span) string {
	if sc := span.SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return uuid.NewString()
}

// withContextCause attaches the reason ctx ended to err. The net
// package reports cancellation with its own error values.
func withContextCause(ctx context.Context, err error) error {
	ctxErr := ctx.Err()
	if ctxErr == nil || errors.Is(err, ctxErr) {
		return err
	}
	return fmt.Errorf("%w: %w", ctxErr, err)
}
