// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errorlist collects the errors accumulated while evaluating the
// asserts of a single entry (§4.7: "Assert failures accumulate within the
// entry result and do not short-circuit sibling asserts"). Adapted from
// the teacher's errorlist.List (errorlist/error.go): GroupByAssertKind
// gives the CLI summary a per-kind failure breakdown, something the
// teacher's version never needed since it only ever aggregated plain
// errors, not a closed herr.AssertKind taxonomy.
package errorlist

import (
	"fmt"
	"os"
	"strings"

	"github.com/vdobler/hurlgo/herr"
)

// List is an ordered collection of errors.
type List []error

// Append adds err to el, flattening a nested List instead of nesting it.
func (el List) Append(err error) List {
	if err == nil {
		return el
	}
	if list, ok := err.(List); ok {
		return append(el, list...)
	}
	return append(el, err)
}

// Error implements the error interface, joining every collected message.
func (el List) Error() string {
	return strings.Join(el.AsStrings(), ";  ")
}

// AsError returns el as an error, or nil if el is empty.
func (el List) AsError() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// AsStrings renders every collected error as a string, flattening nested
// Lists.
func (el List) AsStrings() []string {
	s := make([]string, 0, len(el))
	for _, e := range el {
		if nel, ok := e.(List); ok {
			s = append(s, nel.AsStrings()...)
		} else {
			s = append(s, e.Error())
		}
	}
	return s
}

// Errors returns the flat list of underlying errors, with nested Lists
// flattened, the same shape AsStrings walks.
func (el List) Errors() []error {
	var out []error
	for _, e := range el {
		if nel, ok := e.(List); ok {
			out = append(out, nel.Errors()...)
		} else {
			out = append(out, e)
		}
	}
	return out
}

// OfKind returns every herr.AssertError in el whose Kind matches k.
func (el List) OfKind(k herr.AssertKind) []herr.AssertError {
	var out []herr.AssertError
	for _, e := range el.Errors() {
		if ae, ok := e.(herr.AssertError); ok && ae.Kind == k {
			out = append(out, ae)
		}
	}
	return out
}

// assertKinds is the closed taxonomy GroupByAssertKind breaks a List down
// by (herr.go's AssertKind constants).
var assertKinds = []herr.AssertKind{
	herr.AssertVersion,
	herr.AssertStatus,
	herr.AssertHeaderValueError,
	herr.AssertBodyValueError,
	herr.AssertPredicate,
}

// GroupByAssertKind tallies el's herr.AssertError entries by kind, the
// breakdown a failing run's CLI summary prints alongside the pass/fail
// line (cmd/hurlgo/main.go's printSummary).
func (el List) GroupByAssertKind() map[herr.AssertKind]int {
	counts := map[herr.AssertKind]int{}
	for _, k := range assertKinds {
		if n := len(el.OfKind(k)); n > 0 {
			counts[k] = n
		}
	}
	return counts
}

// PrintlnStderr prints err to stderr, one line per collected error if err
// is a List.
func PrintlnStderr(err error) {
	if err == nil {
		return
	}
	if el, ok := err.(List); ok {
		for _, msg := range el.AsStrings() {
			fmt.Fprintln(os.Stderr, msg)
		}
	} else {
		fmt.Fprintln(os.Stderr, err.Error())
	}
}
