// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	urlpkg "net/url"
	"strconv"
)

var (
	template, _ = http.NewRequest("GET", "", nil)
)

const (
	nilCtxMsg = "oneshot/request: nil context"
)

// DefaultHostHeader is the Host header value sent when a plan does not
// name one. It is deliberately independent of the host the client
// connects to.
const DefaultHostHeader = "example.com"

// A Plan describes the single HTTP/1.1 request to be made over a fresh
// TCP connection.
//
// A Plan is immutable once constructed: the client reads it but never
// changes it, and every call that sends a Plan opens its own connection.
// Like the http.Request structure, a Plan has a context which controls
// the whole send, and can be used to cancel it at any time.
type Plan struct {
	// Host is the host name or IP address to connect to. Names are
	// resolved when dialing, so one which does not resolve fails the
	// connect rather than validation.
	Host string `validate:"required,dial_host"`

	// Port is the TCP port to connect to.
	Port int `validate:"min=1,max=65535"`

	// URI is the request-target written on the request line, exactly
	// as given (for example "/index.html?a=b").
	URI string `validate:"required,request_target"`

	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	Method string `validate:"required,http_method"`

	// Content is the request content. It is only sent when Method is
	// POST, in which case it is encoded as UTF-8 and labelled as
	// application/json.
	Content string

	// HostHeader is the value of the Host header. It is not derived
	// from Host; NewPlan sets it to DefaultHostHeader.
	HostHeader string `validate:"required,host_header"`

	// ctx allows the entire send to be cancelled. It should only be
	// modified by copying the whole Plan using WithContext.
	ctx context.Context
}

// NewPlan wraps NewPlanWithContext using the background context.
func NewPlan(host string, port int, uri, method, content string) (*Plan, error) {
	return NewPlanWithContext(context.Background(), host, port, uri, method, content)
}

// NewPlanWithContext returns a new, validated Plan. An empty method
// means GET. The Host header is set to DefaultHostHeader; to send a
// different one, change HostHeader and call Validate again.
//
// If the plan is invalid the returned error has type FieldErrors.
func NewPlanWithContext(ctx context.Context, host string, port int, uri, method, content string) (*Plan, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = http.MethodGet
	}
	p := &Plan{
		ctx:        ctx,
		Host:       host,
		Port:       port,
		URI:        uri,
		Method:     method,
		Content:    content,
		HostHeader: DefaultHostHeader,
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Context returns the plan's context. To change the context, use
// WithContext.
//
// The returned context is always non-nil; it defaults to the
// background context.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of p with its context changed to
// ctx, which must be non-nil.
//
// The context controls the entire lifetime of the send: connecting,
// writing the request, and waiting for the connection to close.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	p2 := new(Plan)
	*p2 = *p
	p2.ctx = ctx
	return p2
}

// Addr returns the "host:port" address to dial.
func (p *Plan) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Body returns the bytes to send as the request body: the UTF-8
// encoding of Content for POST, and nil for every other method.
func (p *Plan) Body() []byte {
	if p.Method != http.MethodPost {
		return nil
	}
	return bodyBytes(p.Content)
}

// ContentType returns the Content-Type header value to send, or the
// empty string if none is sent.
func (p *Plan) ContentType() string {
	if p.Method != http.MethodPost {
		return ""
	}
	return ContentTypeJSON
}

// ToRequest creates the HTTP/1.1 request corresponding to the plan. The
// context of the new request is set to ctx, which may not be nil.
//
// The request-target is written verbatim from URI, the Host header is
// HostHeader, and no User-Agent header is sent. For POST the request
// carries Content-Type and the body; the encoder adds Content-Length.
func (p *Plan) ToRequest(ctx context.Context) *http.Request {
	r := template.WithContext(ctx)
	r.Method = p.Method
	r.URL = &urlpkg.URL{Opaque: p.URI}
	r.Host = p.HostHeader
	r.Header = http.Header{"User-Agent": {""}}
	if ct := p.ContentType(); ct != "" {
		r.Header.Set("Content-Type", ct)
	}
	if b := p.Body(); len(b) > 0 {
		r.Body = io.NopCloser(bytes.NewReader(b))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		}
		r.ContentLength = int64(len(b))
	}
	return r
}
