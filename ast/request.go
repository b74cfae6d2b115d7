// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

// Request is the parsed request half of an Entry, generalizing the
// teacher's Request struct (ht.go) from a single flat http.Header/url.Values
// pair into template-bearing fields, since every part of a Hurl request may
// itself contain `{{placeholders}}`.
type Request struct {
	Method  string
	URL     Template
	Headers []KeyTemplate
	Query   []KeyTemplate
	Form    []KeyTemplate
	Multipart []MultipartPart
	Cookies []RequestCookie
	Body    *Body
	Options EntryOptions
	Source  SourceInfo
}

// KeyTemplate is a `name: value` pair where value is itself a Template —
// used for headers, query-string params and form params alike.
type KeyTemplate struct {
	Name   string
	Value  Template
	Source SourceInfo
}

// RequestCookie is a cookie declared inline on a request (§3).
type RequestCookie struct {
	Name   string
	Value  Template
	Source SourceInfo
}

// MultipartPart is one part of a multipart/form-data body. Filename is
// present only for file parts and follows the escape alphabet of §4.2.
type MultipartPart struct {
	Name        string
	Value       *Template
	Filename    *Template
	ContentType string
	Source      SourceInfo
}

// BodyKind distinguishes the supported request/response body forms.
type BodyKind int

const (
	BodyPlain BodyKind = iota
	BodyJSON
	BodyXML
	BodyFile
)

// Body is an entry's request body or a response's expected body.
type Body struct {
	Kind     BodyKind
	Inline   *Template
	FilePath *Template
	Source   SourceInfo
}

// EntryOptions are the per-entry overrides of spec §4.7 and the Rust
// `options.rs` source this spec was distilled from (retry, redirects,
// timeout, insecure TLS).
type EntryOptions struct {
	Retry           int
	RetryInterval   int64 // milliseconds
	MaxRedirects    int   // -1 = unlimited (Hurl sentinel), 0 = follow none
	TimeoutMillis   int64
	ContinueOnError bool
	Insecure        bool
}

// DefaultEntryOptions returns the §4.7 defaults: 50 max redirects, 300s
// timeout, no retries.
func DefaultEntryOptions() EntryOptions {
	return EntryOptions{
		Retry:         0,
		MaxRedirects:  50,
		TimeoutMillis: 300_000,
	}
}
