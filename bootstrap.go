// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package oneshot

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
)

// A Dialer opens TCP connections. *net.Dialer implements Dialer.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// A ConnState describes a point in a connection's life.
type ConnState int

const (
	// StateNew is reported once a connection has been dialed and its
	// pipeline attached, before any request is written.
	StateNew ConnState = iota
	// StateClosed is reported once a connection is fully closed and
	// its goroutines have finished with it.
	StateClosed
)

var connStateNames = []string{"new", "closed"}

func (s ConnState) String() string {
	if s < 0 || int(s) >= len(connStateNames) {
		return "unknown"
	}
	return connStateNames[s]
}

// A ConnStateHandler observes connections opening and closing.
// Implementations must be safe for concurrent use.
type ConnStateHandler interface {
	HandleConnState(c *Conn, s ConnState)
}

// The ConnStateHandlerFunc type is an adapter to allow the use of
// ordinary functions as connection state handlers.
type ConnStateHandlerFunc func(*Conn, ConnState)

// HandleConnState calls f(c, s).
func (f ConnStateHandlerFunc) HandleConnState(c *Conn, s ConnState) {
	f(c, s)
}

// Stats is a snapshot of a Bootstrap's counters.
type Stats struct {
	Dials           uint64 // connect attempts that reached the dialer
	DialFailures    uint64 // connect attempts that failed
	Opened          uint64 // connections attached
	Closed          uint64 // connections fully closed
	WritesSucceeded uint64
	WritesFailed    uint64
}

// Active returns the number of connections open at the time of the
// snapshot.
func (s Stats) Active() uint64 {
	return s.Opened - s.Closed
}

type counters struct {
	dials           atomic.Uint64
	dialFailures    atomic.Uint64
	opened          atomic.Uint64
	closed          atomic.Uint64
	writesSucceeded atomic.Uint64
	writesFailed    atomic.Uint64
}

type bootstrapState int

const (
	bootstrapNew bootstrapState = iota
	bootstrapRunning
	bootstrapShutdown
)

// A Bootstrap is the shared client configuration from which connections
// are made: how to dial, which pipeline to attach to each connection,
// and who to tell about connection state changes.
//
// The zero value is ready to Start. Once started, a Bootstrap is safe
// for concurrent use by multiple goroutines, and every connection and
// goroutine it creates lives no longer than the Bootstrap: Shutdown
// closes them all and waits for them to finish.
type Bootstrap struct {
	// Dialer opens TCP connections. If Dialer is nil, a zero
	// net.Dialer is used.
	Dialer Dialer

	// Pipeline is attached to every new connection.
	Pipeline Pipeline

	// ConnState, if not nil, is called when a connection opens and
	// when it closes. It is called from the bootstrap's goroutines.
	ConnState ConnStateHandler

	// Logger receives connection lifecycle logs at debug level. If
	// Logger is nil, slog.Default() is used.
	Logger *slog.Logger

	mu     sync.Mutex
	state  bootstrapState
	ctx    context.Context
	cancel context.CancelFunc
	conns  map[*Conn]struct{}
	wg     sync.WaitGroup
	seq    atomic.Uint64
	stats  counters
}

// Start initializes the bootstrap's shared resources. It returns
// ErrAlreadyStarted if called more than once, and ErrShutdown if the
// bootstrap has been shut down.
func (b *Bootstrap) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case bootstrapRunning:
		return ErrAlreadyStarted
	case bootstrapShutdown:
		return ErrShutdown
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	b.conns = make(map[*Conn]struct{})
	b.state = bootstrapRunning
	return nil
}

// Connect asynchronously opens a TCP connection to host:port and
// attaches the pipeline to it. The returned future completes when the
// connection is ready or the attempt has failed.
//
// The dial is abandoned if ctx is done or the bootstrap shuts down
// first. If the bootstrap is not running, the future fails immediately
// with ErrNotStarted or ErrShutdown.
func (b *Bootstrap) Connect(ctx context.Context, host string, port int) *ConnectFuture {
	f := &ConnectFuture{Future: newFuture()}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	dialCtx, cancel := context.WithCancel(ctx)
	err := b.goTrack(func() {
		defer cancel()
		stop := context.AfterFunc(b.ctx, cancel)
		defer stop()
		b.dial(dialCtx, addr, f)
	})
	if err != nil {
		cancel()
		f.complete(err)
	}
	return f
}

func (b *Bootstrap) dial(ctx context.Context, addr string, f *ConnectFuture) {
	b.stats.dials.Add(1)
	nc, err := b.dialer().DialContext(ctx, "tcp", addr)
	if err != nil {
		b.stats.dialFailures.Add(1)
		f.complete(err)
		return
	}

	c, err := b.attach(nc)
	if err != nil {
		b.stats.dialFailures.Add(1)
		_ = nc.Close()
		f.complete(err)
		return
	}

	f.conn = c
	f.complete(nil)
}

// attach wraps nc in a Conn, registers it and starts its read loop.
func (b *Bootstrap) attach(nc net.Conn) (*Conn, error) {
	c := newConn(b, nc)

	b.mu.Lock()
	if b.state != bootstrapRunning {
		b.mu.Unlock()
		return nil, ErrShutdown
	}
	b.conns[c] = struct{}{}
	b.wg.Add(1)
	b.mu.Unlock()

	b.stats.opened.Add(1)
	b.logger().Debug("connection opened", "conn", c.ID(), "local", nc.LocalAddr().String(), "remote", nc.RemoteAddr().String())
	b.connState(c, StateNew)

	go func() {
		defer b.wg.Done()
		c.readLoop()
	}()
	return c, nil
}

// release forgets c once it is fully closed.
func (b *Bootstrap) release(c *Conn) {
	b.mu.Lock()
	delete(b.conns, c)
	b.mu.Unlock()

	b.stats.closed.Add(1)
	b.logger().Debug("connection closed", "conn", c.ID())
	b.connState(c, StateClosed)
}

// goTrack runs fn on a new goroutine which Shutdown waits for. It
// fails if the bootstrap is not running.
func (b *Bootstrap) goTrack(fn func()) error {
	b.mu.Lock()
	switch b.state {
	case bootstrapNew:
		b.mu.Unlock()
		return ErrNotStarted
	case bootstrapShutdown:
		b.mu.Unlock()
		return ErrShutdown
	}
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		fn()
	}()
	return nil
}

// Shutdown cancels in-flight connects, closes every open connection,
// and waits for all goroutines started by the bootstrap to finish. It
// may be called more than once. A bootstrap cannot be restarted after
// Shutdown.
func (b *Bootstrap) Shutdown() {
	b.mu.Lock()
	running := b.state == bootstrapRunning
	b.state = bootstrapShutdown
	conns := make([]*Conn, 0, len(b.conns))
	for c := range b.conns {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	if running {
		b.cancel()
	}
	for _, c := range conns {
		_ = c.Close()
	}
	b.wg.Wait()
}

// Stats returns a snapshot of the bootstrap's counters.
func (b *Bootstrap) Stats() Stats {
	return Stats{
		Dials:           b.stats.dials.Load(),
		DialFailures:    b.stats.dialFailures.Load(),
		Opened:          b.stats.opened.Load(),
		Closed:          b.stats.closed.Load(),
		WritesSucceeded: b.stats.writesSucceeded.Load(),
		WritesFailed:    b.stats.writesFailed.Load(),
	}
}

func (b *Bootstrap) dialer() Dialer {
	if b.Dialer == nil {
		return &net.Dialer{}
	}
	return b.Dialer
}

func (b *Bootstrap) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

func (b *Bootstrap) connState(c *Conn, s ConnState) {
	if b.ConnState != nil {
		b.ConnState.HandleConnState(c, s)
	}
}
