// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

// QueryKind enumerates the query kinds of §4.5. Each name/expr argument is
// itself a Template.
type QueryKind int

const (
	QStatus QueryKind = iota
	QVersion
	QURL
	QHeader
	QCookie
	QBody
	QXPath
	QJSONPath
	QRegex
	QVariable
	QDuration
	QBytes
	QSha256
	QMd5
	QCertificate
	QIP
	QRedirects
)

// QueryExpr is the parsed form of a query: a kind plus its (possibly
// template-valued) argument, e.g. Header("X-Request-Id") or
// Jsonpath("$.items[0].id").
type QueryExpr struct {
	Kind   QueryKind
	Arg    *Template // header name, cookie path, xpath/jsonpath/regex expr, variable name, certificate field
	Source SourceInfo
}

// FilterKind enumerates the filter pipeline stages of §4.5.
type FilterKind int

const (
	FCount FilterKind = iota
	FHTMLEscape
	FHTMLUnescape
	FURLEncode
	FURLDecode
	FRegex
	FJSONPath
	FXPath
	FFirst
	FLast
	FNth
	FReplace
	FSplit
	FJoin
	FToInt
	FToFloat
	FToString
	FToDate
	FDaysAfterNow
	FDaysBeforeNow
	FFormat
	FDecode
	FBase64Encode
	FBase64Decode
)

// FilterExpr is one stage of a filter pipeline. Args holds the filter's
// positional string/template arguments (e.g. regex pattern and capture
// group index, or the format string for to_date/format).
type FilterExpr struct {
	Kind   FilterKind
	Args   []Template
	Source SourceInfo
}

// PredicateKind mirrors value.PredicateKind at the AST level, prior to
// argument resolution.
type PredicateKind int

const (
	PEquals PredicateKind = iota
	PNotEquals
	PGreater
	PGreaterOrEqual
	PLess
	PLessOrEqual
	PStartsWith
	PEndsWith
	PContains
	PIncludes
	PMatches
	PExists
	PIsBoolean
	PIsNumber
	PIsInteger
	PIsFloat
	PIsString
	PIsCollection
	PIsDate
	PIsEmpty
	PIsISODate
	PIsIPv4
	PIsIPv6
)

// PredicateExpr is a (possibly negated) predicate with its literal operand,
// the form captured after `[Asserts]` in a script (§4.5).
type PredicateExpr struct {
	Kind     PredicateKind
	Operand  *Template
	Negated  bool
	Source   SourceInfo
}

// Capture is a named extraction: a Query followed by an optional Filter
// pipeline, assigned to Name. IsSecret marks a `redact` capture (§4.7).
type Capture struct {
	Name     string
	Query    QueryExpr
	Filters  []FilterExpr
	IsSecret bool
	Source   SourceInfo
}

// Assert is a Query, an optional Filter pipeline, and the Predicate the
// filtered value must satisfy (§4.5).
type Assert struct {
	Query     QueryExpr
	Filters   []FilterExpr
	Predicate PredicateExpr
	Source    SourceInfo
}
