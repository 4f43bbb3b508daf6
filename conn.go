// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package oneshot

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/valyala/bytebufferpool"
)

// A Conn is one TCP connection opened by a Bootstrap, with the
// bootstrap's pipeline attached. It carries exactly one request.
//
// A Conn owns a read loop which decodes the response, if the peer sends
// one, and notices when the peer closes the connection. Whichever side
// closes first, the close future completes once the socket is closed
// and the read loop has finished.
type Conn struct {
	id       uint64
	b        *Bootstrap
	nc       net.Conn
	br       *bufio.Reader
	pipeline Pipeline

	mu   sync.Mutex
	used bool

	written chan struct{} // closed when the write has finished
	req     *http.Request // set before written is closed if the write succeeded

	closeOnce   sync.Once
	closing     chan struct{}
	closeFuture *Future

	// Set by the read loop before closeFuture completes.
	resp    *http.Response
	body    []byte
	respErr error
}

func newConn(b *Bootstrap, nc net.Conn) *Conn {
	return &Conn{
		id:          b.seq.Add(1),
		b:           b,
		nc:          nc,
		br:          bufio.NewReader(nc),
		pipeline:    b.Pipeline,
		written:     make(chan struct{}),
		closing:     make(chan struct{}),
		closeFuture: newFuture(),
	}
}

// ID returns a number identifying the connection within its Bootstrap.
func (c *Conn) ID() uint64 {
	return c.id
}

// LocalAddr returns the local network address.
func (c *Conn) LocalAddr() net.Addr {
	return c.nc.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

// Write asynchronously encodes req and writes it to the connection,
// returning the pending-write future. The future succeeds once every
// byte has been handed to the socket. Writing does not wait for a
// response.
//
// Only the first call to Write sends anything; later calls fail with
// ErrConnUsed.
func (c *Conn) Write(req *http.Request) *Future {
	c.mu.Lock()
	if c.used {
		c.mu.Unlock()
		return completedFuture(ErrConnUsed)
	}
	c.used = true
	c.mu.Unlock()

	f := newFuture()
	err := c.b.goTrack(func() {
		c.write(req, f)
	})
	if err != nil {
		c.finishWrite(nil, f, err)
	}
	return f
}

func (c *Conn) write(req *http.Request, f *Future) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	err := c.pipeline.encoder().Encode(buf, req)
	if err == nil {
		_, err = c.nc.Write(buf.B)
	}
	if err != nil {
		req = nil
	}
	c.finishWrite(req, f, err)
}

func (c *Conn) finishWrite(req *http.Request, f *Future, err error) {
	if err == nil {
		c.b.stats.writesSucceeded.Add(1)
	} else {
		c.b.stats.writesFailed.Add(1)
	}
	c.req = req
	close(c.written)
	f.complete(err)
}

// Close closes the connection. The close future completes once the
// read loop has finished. Close may be called more than once; only the
// first call returns the socket's close error.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closing)
		err = c.nc.Close()
	})
	return err
}

// CloseFuture returns the future which completes when the connection is
// closed, by either side.
func (c *Conn) CloseFuture() *Future {
	return c.closeFuture
}

// Response returns what the decoder read from the connection. It
// returns all nils until the close future has completed, and also if
// the peer closed without responding.
func (c *Conn) Response() (*http.Response, []byte, error) {
	if !c.closeFuture.IsDone() {
		return nil, nil, nil
	}
	return c.resp, c.body, c.respErr
}

func (c *Conn) readLoop() {
	defer c.finish()

	// Block until the peer sends something or either side closes.
	if _, err := c.br.Peek(1); err != nil {
		return
	}

	// The peer answers only once it has the request, but the write
	// goroutine may not have recorded the outcome yet.
	select {
	case <-c.written:
	case <-c.closing:
		return
	}
	if c.req == nil {
		return
	}

	c.resp, c.body, c.respErr = c.pipeline.decoder().Decode(c.br, c.req)
	_, _ = io.Copy(io.Discard, c.br)
}

func (c *Conn) finish() {
	_ = c.Close()
	c.b.release(c)
	c.closeFuture.complete(nil)
}
