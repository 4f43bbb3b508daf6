// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	assert.Equal(t, Not, Categorize(nil))
	assert.Equal(t, Not, Categorize(errors.New("foo")))
	assert.Equal(t, Not, Categorize(wrapper{}))
	assert.Equal(t, Not, Categorize(wrapper{errors.New("bar")}))
	assert.Equal(t, Timeout, Categorize(syscall.ETIMEDOUT))
	assert.Equal(t, Timeout, Categorize(timeout{}))
	assert.Equal(t, Timeout, Categorize(context.DeadlineExceeded))
	assert.Equal(t, Timeout, Categorize(fmt.Errorf("dial: %w", context.DeadlineExceeded)))
	assert.Equal(t, Timeout, Categorize(&net.OpError{Op: "dial", Err: timeout{}}))
	assert.Equal(t, Timeout, Categorize(wrapper{wrapper{timeout{}}}))
	assert.Equal(t, Timeout, Categorize(timeoutWrapper{true, syscall.ECONNRESET}))
	assert.Equal(t, Timeout, Categorize(&net.DNSError{Err: "slow", IsTimeout: true}))
	assert.Equal(t, Canceled, Categorize(context.Canceled))
	assert.Equal(t, Canceled, Categorize(wrapper{context.Canceled}))
	assert.Equal(t, ConnReset, Categorize(syscall.ECONNRESET))
	assert.Equal(t, ConnReset, Categorize(syscall.EPIPE))
	assert.Equal(t, ConnReset, Categorize(&net.OpError{Op: "write", Err: os.NewSyscallError("write", syscall.EPIPE)}))
	assert.Equal(t, ConnReset, Categorize(timeoutWrapper{false, syscall.ECONNRESET}))
	assert.Equal(t, ConnRefused, Categorize(syscall.ECONNREFUSED))
	assert.Equal(t, ConnRefused, Categorize(&net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}))
	assert.Equal(t, ConnRefused, Categorize(wrapper{timeoutWrapper{false, syscall.ECONNREFUSED}}))
	assert.Equal(t, DNS, Categorize(&net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}))
	assert.Equal(t, DNS, Categorize(&net.OpError{Op: "dial", Err: &net.DNSError{Err: "no such host"}}))
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "Not", Not.String())
	assert.Equal(t, "Timeout", Timeout.String())
	assert.Equal(t, "ConnRefused", ConnRefused.String())
	assert.Equal(t, "ConnReset", ConnReset.String())
	assert.Equal(t, "DNS", DNS.String())
	assert.Equal(t, "Canceled", Canceled.String())
	assert.Equal(t, "Unknown", Category(-1).String())
	assert.Equal(t, "Unknown", categorySentinel.String())
	assert.Len(t, categoryNames, int(categorySentinel))
}

type timeout struct{}

func (err timeout) Error() string {
	return "timeout"
}

func (_ timeout) Timeout() bool {
	return true
}

type wrapper struct {
	wrappedError error
}

func (err wrapper) Error() string {
	return fmt.Sprintf("wrapper - wraps %v", err.wrappedError)
}

func (err wrapper) Unwrap() error {
	return err.wrappedError
}

type timeoutWrapper struct {
	timeout      bool
	wrappedError error
}

func (err timeoutWrapper) Error() string {
	return fmt.Sprintf("timeoutWrapper - timeout %t, wraps %v", err.timeout, err.wrappedError)
}

func (err timeoutWrapper) Timeout() bool {
	return err.timeout
}

func (err timeoutWrapper) Unwrap() error {
	return err.wrappedError
}
