// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ast defines the in-memory representation of a parsed script: the
// typed AST the parser builds and the runner consumes, grounded on the
// shape of the teacher's Test/Request types (ht.go) generalized to the
// Entry/Request/Response model of §3.
package ast

import "fmt"

// Position is a single point in a script file.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SourceInfo spans the construct that produced an AST node. Every AST node
// carries one — there is no node without source coordinates (§3 invariant).
type SourceInfo struct {
	Start Position
	End   Position
}

// Empty reports whether the span collapsed to a single point, which would
// violate the "non-empty, nondecreasing" invariant of §8 for any real node.
func (s SourceInfo) Empty() bool {
	return s.Start == s.End
}

// Valid reports whether the span is non-empty and nondecreasing, the
// invariant every parsed node must satisfy (§8).
func (s SourceInfo) Valid() bool {
	if s.Start.Line > s.End.Line {
		return false
	}
	if s.Start.Line == s.End.Line && s.Start.Column > s.End.Column {
		return false
	}
	return !s.Empty()
}
