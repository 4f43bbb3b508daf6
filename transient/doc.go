// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies the errors that can end a one-shot
// request: failures to establish the connection and failures to write
// the request onto it. The category is attached to the errors returned
// by the client and to its log lines.
//
// Package transient depends only on the standard library, so it
// doesn't bring any significant dependencies when imported as a
// standalone package.
package transient
