// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "strings"

// ContentTypeJSON is the Content-Type sent with POST content.
const ContentTypeJSON = "application/json"

// bodyBytes converts request content to the bytes sent on the wire.
//
// Content is sent as UTF-8. Go strings usually already are, but a
// string built from arbitrary bytes may not be; invalid sequences are
// replaced with U+FFFD rather than being passed through.
func bodyBytes(content string) []byte {
	return []byte(strings.ToValidUTF8(content, "�"))
}
