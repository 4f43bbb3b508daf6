// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for bounding the phases of a single
// request send: connecting, writing the request, and waiting for the
// connection to close. A generic interface for timeout policies is
// provided, Policy, along with several useful policy generating
// functions and built-in policies.
package timeout
