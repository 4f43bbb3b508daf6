// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package oneshot

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const okReply = "HTTP/1.1 200 OK\r\nContent-Length: 2\r\nConnection: close\r\n\r\nok"

type serverMode int

const (
	// replyAndClose reads the request, writes the reply, and closes.
	replyAndClose serverMode = iota
	// closeImmediately closes every connection as soon as it is
	// accepted.
	closeImmediately
	// holdOpen reads the request and then waits for the client to
	// close.
	holdOpen
)

type capturedRequest struct {
	Line          string
	Host          string
	Header        http.Header
	ContentLength int64
	Body          []byte
}

// mockServer is a raw loopback TCP server which records each request
// it reads.
type mockServer struct {
	ln    net.Listener
	mode  serverMode
	reply string

	mu       sync.Mutex
	conns    []net.Conn
	captured []capturedRequest
	wg       sync.WaitGroup
}

func newMockServer(t *testing.T, mode serverMode) *mockServer {
	return newReplyServer(t, mode, okReply)
}

func newReplyServer(t *testing.T, mode serverMode, reply string) *mockServer {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &mockServer{
		ln:    ln,
		mode:  mode,
		reply: reply,
	}
	s.wg.Add(1)
	go s.serve()
	return s
}

func (s *mockServer) host() string {
	return "127.0.0.1"
}

func (s *mockServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *mockServer) serve() {
	defer s.wg.Done()
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, c)
		s.mu.Unlock()
		s.wg.Add(1)
		go s.handle(c)
	}
}

func (s *mockServer) handle(c net.Conn) {
	defer s.wg.Done()
	defer func() {
		_ = c.Close()
	}()

	if s.mode == closeImmediately {
		return
	}

	br := bufio.NewReader(c)
	req, err := http.ReadRequest(br)
	if err != nil {
		return
	}
	body, _ := io.ReadAll(req.Body)
	s.mu.Lock()
	s.captured = append(s.captured, capturedRequest{
		Line:          req.Method + " " + req.RequestURI + " " + req.Proto,
		Host:          req.Host,
		Header:        req.Header,
		ContentLength: req.ContentLength,
		Body:          body,
	})
	s.mu.Unlock()

	switch s.mode {
	case replyAndClose:
		_, _ = io.WriteString(c, s.reply)
	case holdOpen:
		_, _ = io.Copy(io.Discard, br)
	}
}

func (s *mockServer) requests() []capturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]capturedRequest(nil), s.captured...)
}

// close stops the server and waits for its goroutines.
func (s *mockServer) close() {
	_ = s.ln.Close()
	s.mu.Lock()
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// refusedPort returns a loopback port nothing is listening on.
func refusedPort(t *testing.T) int {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

type dialerFunc func(ctx context.Context, network, address string) (net.Conn, error)

func (f dialerFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f(ctx, network, address)
}

// blockingDialer never connects; it fails once ctx is done.
var blockingDialer = dialerFunc(func(ctx context.Context, _, _ string) (net.Conn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
})

// failingConn accepts no writes. Reads block until Close.
type failingConn struct {
	net.Conn
	peer net.Conn
	err  error
}

func newFailingConn(err error) *failingConn {
	a, b := net.Pipe()
	return &failingConn{Conn: a, peer: b, err: err}
}

func (c *failingConn) Write(_ []byte) (int, error) {
	return 0, c.err
}

func (c *failingConn) Close() error {
	_ = c.peer.Close()
	return c.Conn.Close()
}

func failingDialer(err error) Dialer {
	return dialerFunc(func(context.Context, string, string) (net.Conn, error) {
		return newFailingConn(err), nil
	})
}

// logBuffer collects log output from concurrent goroutines.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *logBuffer) logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(b, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type connStateRecorder struct {
	mu     sync.Mutex
	states map[uint64][]ConnState
}

func (r *connStateRecorder) HandleConnState(c *Conn, s ConnState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states == nil {
		r.states = make(map[uint64][]ConnState)
	}
	r.states[c.ID()] = append(r.states[c.ID()], s)
}

func (r *connStateRecorder) get(id uint64) []ConnState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ConnState(nil), r.states[id]...)
}

func startBootstrap(t *testing.T, b *Bootstrap) *Bootstrap {
	require.NoError(t, b.Start())
	return b
}
