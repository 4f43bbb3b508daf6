// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Plan (describes one HTTP
request to send over its own connection) and Execution (describes the
progress and outcome of sending it).

Create a plan, then hand it to a client:

	p, err := request.NewPlan("localhost", 8080, "/hello", "POST", "{}")
	...
	e, err := client.Send(p)
	...

NewPlan validates the plan and returns FieldErrors naming every field
that is wrong. A plan may be assigned a context to bound or cancel the
whole send:

	p, err := request.NewPlanWithContext(ctx, "localhost", 8080, "/", "GET", "")
	...

The Host header of the request is not derived from the host that is
dialled. It defaults to DefaultHostHeader and can be set explicitly:

	p.HostHeader = "api.internal"
	if err := request.Validate(p); err != nil {
		...
	}

The second core type is Execution, which is both the output of the
client's sending methods and the input to timeout policies and event
handlers. Its State field walks through Created, Connecting, Attached,
Writing, Succeeded or Failed, Closing and finally Closed.
*/
package request
