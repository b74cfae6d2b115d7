// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

// Template is a non-empty ordered list of TemplateElements, the unit every
// URL, header value, query/form param, filename and query/filter/predicate
// argument in a script is parsed into (§3, §4.2).
type Template struct {
	Elements []TemplateElement
	Source   SourceInfo
}

// TemplateElement is either a literal run of text or a Placeholder.
type TemplateElement struct {
	Literal     *Literal
	Placeholder *Placeholder
}

// Literal carries both the rendered value (escapes resolved) and the
// as-written source form, needed for diagnostics that must quote the
// original script text.
type Literal struct {
	Rendered string
	AsWritten string
	Source   SourceInfo
}

// Placeholder is a `{{expr}}` occurrence. Kind is extensible (spec §3:
// "expression (variable name + future-extensible kinds)"); the parser
// produces KindNow for an expression starting with NOW and KindVariable
// for every other expression.
type Placeholder struct {
	Kind       PlaceholderKind
	Expression string
	Source     SourceInfo
}

// PlaceholderKind distinguishes what a placeholder's expression denotes.
type PlaceholderKind int

const (
	// KindVariable is a bare variable-name reference, `{{name}}`.
	KindVariable PlaceholderKind = iota
	// KindNow is the built-in `{{NOW [+-offset] [| "format"]}}` form,
	// grounded on the teacher's variables.go:nowTimeRe handling.
	KindNow
)
