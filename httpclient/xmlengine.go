// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package httpclient

import "io"

// XmlEngine is the abstract XPath/XML capability the runner consumes
// (spec §6). The core never parses XML itself: the teacher shows the same
// discipline in check/html.go and check/xml.go, delegating to an external
// SAX-capable parser rather than hand-rolling one. No concrete
// implementation is provided in this module — XML parsing is explicitly
// out of scope (spec §1).
type XmlEngine interface {
	// XPath evaluates expr against doc, returning either a Nodeset count
	// or a scalar Value-shaped result (left as interface{} since the
	// concrete shape is the collaborator's choice).
	XPath(doc []byte, expr string) (interface{}, error)

	// ParseUntilBalanced consumes exactly one well-formed XML document
	// from r (used for body-delimiter detection when a script embeds a
	// literal XML body inline) and reports how many bytes it consumed.
	ParseUntilBalanced(r io.Reader) (int, error)
}
