// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package oneshot

import (
	"context"
	"sync"
)

// A Future is the handle to an asynchronous operation which completes
// exactly once, either successfully or with an error.
//
// Futures are created by Bootstrap and Conn. All methods are safe for
// concurrent use by multiple goroutines.
type Future struct {
	done      chan struct{}
	mu        sync.Mutex
	err       error
	listeners []func(*Future)
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func completedFuture(err error) *Future {
	f := newFuture()
	f.complete(err)
	return f
}

// complete finishes the operation with err and runs the listeners. It
// reports false if the future was already complete.
func (f *Future) complete(err error) bool {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		return false
	default:
	}
	f.err = err
	close(f.done)
	listeners := f.listeners
	f.listeners = nil
	f.mu.Unlock()

	for _, l := range listeners {
		l(f)
	}
	return true
}

// Done returns a channel that is closed when the operation completes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the operation has completed.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// IsSuccess reports whether the operation has completed without error.
func (f *Future) IsSuccess() bool {
	return f.IsDone() && f.Err() == nil
}

// Err returns the error the operation completed with. It returns nil
// if the operation succeeded or has not completed yet.
func (f *Future) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// AddListener arranges for fn to be called once the operation
// completes. If it already has, fn is called immediately on the calling
// goroutine. Otherwise fn runs on the goroutine that completes the
// operation, so it should not block.
func (f *Future) AddListener(fn func(*Future)) {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		fn(f)
		return
	default:
	}
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}

// Await blocks until the operation completes or ctx is done. It returns
// the operation's error in the former case and ctx.Err() in the latter.
// Abandoning the wait does not cancel the operation.
func (f *Future) Await(ctx context.Context) error {
	select {
	case <-f.done:
		return f.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// A ConnectFuture is the Future returned by Bootstrap.Connect. On
// success it carries the new connection.
type ConnectFuture struct {
	*Future
	conn *Conn
}

// Conn returns the established connection, or nil if the connect has
// not completed or failed.
func (f *ConnectFuture) Conn() *Conn {
	if !f.IsDone() {
		return nil
	}
	return f.conn
}
