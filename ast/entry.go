// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

// Response is the optional expectation block of an Entry (§3): version and
// status matchers, header matchers, an optional body matcher, and ordered
// Captures/Asserts.
type Response struct {
	Version      string // "" means unconstrained, else "HTTP/1.0"|"HTTP/1.1"|"HTTP/2"
	Status       *int   // nil means unconstrained
	Headers      []HeaderMatcher
	Body         *Body
	Captures     []Capture
	Asserts      []Assert
	Source       SourceInfo
}

// HeaderMatcher pairs a header name with the Template its value must equal.
type HeaderMatcher struct {
	Name   string
	Value  Template
	Source SourceInfo
}

// Entry owns a Request and an optional Response block (§3).
type Entry struct {
	Request  Request
	Response *Response
	Source   SourceInfo
}

// Script is the ordered sequence of Entries a single file parses into (§3).
type Script struct {
	Entries  []Entry
	Filename string
}
