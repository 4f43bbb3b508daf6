// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package oneshot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/valyala/bytebufferpool"
	"golang.org/x/net/http/httpguts"
)

// DefaultMaxBodySize is the largest response body HTTPDecoder buffers
// when its MaxBodySize is not set.
const DefaultMaxBodySize = 10 << 20

// A RequestEncoder turns an outbound request into HTTP/1.1 wire bytes.
//
// Implementations must be safe for concurrent use by multiple
// goroutines.
type RequestEncoder interface {
	// Encode appends the wire form of req to buf.
	Encode(buf *bytebufferpool.ByteBuffer, req *http.Request) error
}

// A ResponseDecoder reads the response to req from a connection.
//
// Implementations must be safe for concurrent use by multiple
// goroutines.
type ResponseDecoder interface {
	// Decode reads one response from br. The returned response's Body
	// has already been consumed into the returned byte slice and
	// closed.
	Decode(br *bufio.Reader, req *http.Request) (*http.Response, []byte, error)
}

// HTTPEncoder is the default RequestEncoder. It writes the request line
// and headers in HTTP/1.1 form and frames the body with Content-Length.
//
// A request whose URL has an Opaque part uses it as the request-target
// verbatim, so targets such as "//a/b" reach the server unchanged.
// Header names and values are checked rather than sanitized: a request
// carrying an invalid one is refused with an error.
type HTTPEncoder struct{}

// Encode implements RequestEncoder.
func (HTTPEncoder) Encode(buf *bytebufferpool.ByteBuffer, req *http.Request) error {
	if req.URL == nil {
		return errors.New("oneshot: request has no URL")
	}
	target := req.URL.Opaque
	if target == "" {
		target = req.URL.RequestURI()
	}
	if !httpguts.ValidHeaderFieldName(req.Method) {
		return fmt.Errorf("oneshot: invalid method %q", req.Method)
	}
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	if !httpguts.ValidHostHeader(host) {
		return fmt.Errorf("oneshot: invalid Host header %q", host)
	}
	for name, values := range req.Header {
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("oneshot: invalid header name %q", name)
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				return fmt.Errorf("oneshot: invalid value for header %q", name)
			}
		}
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintf(buf, "%s %s HTTP/1.1\r\n", req.Method, target)
	_, _ = fmt.Fprintf(buf, "Host: %s\r\n", host)
	if len(body) > 0 || sendsContentLength(req.Method) {
		_, _ = fmt.Fprintf(buf, "Content-Length: %d\r\n", len(body))
	}
	exclude := map[string]bool{
		"Host":              true,
		"Content-Length":    true,
		"Transfer-Encoding": true,
	}
	if emptyValues(req.Header["User-Agent"]) {
		exclude["User-Agent"] = true
	}
	if err := req.Header.WriteSubset(buf, exclude); err != nil {
		return err
	}
	_, _ = buf.WriteString("\r\n")
	_, _ = buf.Write(body)
	return nil
}

// sendsContentLength reports whether a request with method must carry
// Content-Length even when its body is empty.
func sendsContentLength(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

func emptyValues(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}

// HTTPDecoder is the default ResponseDecoder.
type HTTPDecoder struct {
	// MaxBodySize is the number of body bytes buffered. Anything
	// beyond it is discarded. If MaxBodySize is zero or negative,
	// DefaultMaxBodySize is used.
	MaxBodySize int64
}

// Decode implements ResponseDecoder.
func (d HTTPDecoder) Decode(br *bufio.Reader, req *http.Request) (*http.Response, []byte, error) {
	resp, err := http.ReadResponse(br, req)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	limit := d.MaxBodySize
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	return resp, body, err
}

// A Pipeline is the template of handlers attached to every connection a
// Bootstrap opens: a decoder for the inbound side and an encoder for the
// outbound side. It is read-only once the Bootstrap starts.
//
// The zero value is a valid pipeline using HTTPDecoder and HTTPEncoder.
type Pipeline struct {
	Decoder ResponseDecoder
	Encoder RequestEncoder
}

func (p Pipeline) decoder() ResponseDecoder {
	if p.Decoder == nil {
		return HTTPDecoder{}
	}
	return p.Decoder
}

func (p Pipeline) encoder() RequestEncoder {
	if p.Encoder == nil {
		return HTTPEncoder{}
	}
	return p.Encoder
}
