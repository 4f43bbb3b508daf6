// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package oneshot provides a fire-and-forget HTTP/1.1 client: each request
goes out over its own TCP connection, the client reports whether the
request was written, and the connection is closed. There is no
connection reuse, no retry, and no TLS.

Start a Bootstrap, which owns the connections, and give it to a Client.

	b := &oneshot.Bootstrap{}
	if err := b.Start(); err != nil {
		...
	}
	defer b.Shutdown()

	client := &oneshot.Client{Bootstrap: b}
	ex, err := client.Get(ctx, "localhost", 8080, "/health")
	...
	ex, err := client.Post(ctx, "localhost", 8080, "/events", `{"id":1}`)

The Host header is always request.DefaultHostHeader unless the plan says
otherwise:

	p, err := request.NewPlanWithContext(ctx, "10.0.0.7", 80, "/", "GET", "")
	...
	p.HostHeader = "api.internal"
	ex, err := client.Send(p)

By default the client waits, for as long as the plan's context allows,
for the peer to close the connection after the request is written. To
bound each phase of a send, set a timeout policy using package timeout:

	client := &oneshot.Client{
		Bootstrap:     b,
		TimeoutPolicy: timeout.Phased(time.Second, time.Second, 5*time.Second),
	}

To hook into the fine-grained details of a send, install a handler into
the appropriate handler chain:

	handlers := &oneshot.HandlerGroup{}
	handlers.PushBack(oneshot.AfterWrite, oneshot.HandlerFunc(
		func(_ oneshot.Event, e *request.Execution) {
			metrics.Count("sent", e.Sent)
		}),
	)
	client := &oneshot.Client{
		Bootstrap: b,
		Handlers:  handlers,
	}

Lower down, Bootstrap.Connect and Conn expose the asynchronous connect,
pending-write, and close futures the client is built on.

Package oneshot provides basic interfaces for each method of the client
(Sender, Requester, Getter, and Poster); a combined interface that
composes them (Executor); and utility functions for working with a
Sender (Inflate, SendHTTPRequest, Get, and Post).
*/
package oneshot
