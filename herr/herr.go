// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package herr is the closed taxonomy of runtime/assert errors from spec
// §7, each carrying ast.SourceInfo the way the teacher's CantCheck /
// WrongCount / MalformedCheck (check/check.go) carry just enough context
// to produce a useful diagnostic, generalized here to also carry a
// position since every hurlgo error must be locatable in the script.
package herr

import (
	"fmt"

	"github.com/vdobler/hurlgo/ast"
)

// Kind names one of the closed set of runtime evaluation error kinds (§7).
type Kind string

const (
	InvalidURL               Kind = "InvalidURL"
	HttpConnection           Kind = "HttpConnection"
	Timeout                  Kind = "Timeout"
	TooManyRedirect          Kind = "TooManyRedirect"
	SSLCertificate           Kind = "SSLCertificate"
	CouldNotUncompress       Kind = "CouldNotUncompress"
	UnsupportedContentEncoding Kind = "UnsupportedContentEncoding"
	InvalidDecoding          Kind = "InvalidDecoding"
	InvalidCharset           Kind = "InvalidCharset"
	QueryHeaderNotFound      Kind = "QueryHeaderNotFound"
	QueryInvalidJson         Kind = "QueryInvalidJson"
	QueryInvalidXml          Kind = "QueryInvalidXml"
	QueryInvalidXpathEval    Kind = "QueryInvalidXpathEval"
	NoQueryResult            Kind = "NoQueryResult"
	FilterMissingInput       Kind = "FilterMissingInput"
	InvalidRegex             Kind = "InvalidRegex"
	TypeMismatch             Kind = "TypeMismatch"
	FileReadAccess           Kind = "FileReadAccess"
)

// RuntimeError is a single typed runtime-evaluation failure (§7).
type RuntimeError struct {
	Kind    Kind
	Message string
	Source  ast.SourceInfo
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Source.Start, e.Kind, e.Message)
}

// New builds a RuntimeError.
func New(kind Kind, source ast.SourceInfo, format string, args ...interface{}) RuntimeError {
	return RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Source: source}
}

// AssertKind names one of the closed set of assert-failure kinds (§7).
type AssertKind string

const (
	AssertVersion         AssertKind = "AssertVersion"
	AssertStatus          AssertKind = "AssertStatus"
	AssertHeaderValueError AssertKind = "AssertHeaderValueError"
	AssertBodyValueError  AssertKind = "AssertBodyValueError"
	AssertPredicate       AssertKind = "Predicate"
)

// BodyDiff carries the minimal data a body-mismatch diagnostic needs: the
// line/column of the first differing character (§7; full diff rendering is
// the abstract diff collaborator's job, out of scope per §1).
type BodyDiff struct {
	Line   int
	Column int
}

// AssertError is the failure attached to an AssertResult when a predicate
// does not hold (§4.5, §7).
type AssertError struct {
	Kind   AssertKind
	Message string
	Diff   *BodyDiff
	Source ast.SourceInfo
}

func (e AssertError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Source.Start, e.Kind, e.Message)
}

// NewAssertError builds an AssertError.
func NewAssertError(kind AssertKind, source ast.SourceInfo, format string, args ...interface{}) AssertError {
	return AssertError{Kind: kind, Message: fmt.Sprintf(format, args...), Source: source}
}
