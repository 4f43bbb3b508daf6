// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"math"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/oneshot/request"
	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	a := DefaultPolicy.Timeout(&request.Execution{State: request.Connecting})
	assert.Equal(t, Never, a)
	b := DefaultPolicy.Timeout(&request.Execution{State: request.Closing, Err: syscall.ETIMEDOUT, Body: []byte("foo")})
	assert.Equal(t, Never, b)
}

func TestInfinite(t *testing.T) {
	for s := request.Created; s <= request.Closed; s++ {
		assert.Equal(t, time.Duration(math.MaxInt64), Infinite.Timeout(&request.Execution{State: s}), s.Name())
	}
}

func TestFixed(t *testing.T) {
	p := Fixed(33 * time.Hour)
	a := p.Timeout(&request.Execution{})
	assert.Equal(t, 33*time.Hour, a)
	b := p.Timeout(&request.Execution{State: request.Writing, Err: syscall.ETIMEDOUT})
	assert.Equal(t, 33*time.Hour, b)
	c := p.Timeout(&request.Execution{State: request.Closing})
	assert.Equal(t, 33*time.Hour, c)
}

func TestPhased(t *testing.T) {
	p := Phased(5*time.Millisecond, 10*time.Millisecond, 100*time.Millisecond)
	testCases := []struct {
		state    request.State
		expected time.Duration
	}{
		{request.Created, 5 * time.Millisecond},
		{request.Connecting, 5 * time.Millisecond},
		{request.Attached, 10 * time.Millisecond},
		{request.Writing, 10 * time.Millisecond},
		{request.Succeeded, 100 * time.Millisecond},
		{request.Failed, 100 * time.Millisecond},
		{request.Closing, 100 * time.Millisecond},
		{request.Closed, 100 * time.Millisecond},
	}
	for _, testCase := range testCases {
		t.Run(testCase.state.Name(), func(t *testing.T) {
			x := &request.Execution{State: testCase.state}
			assert.Equal(t, testCase.expected, p.Timeout(x))
		})
	}
}
