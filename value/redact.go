// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import "strings"

// Redactor substitutes every occurrence of a set of secret literals with
// SecretMask. It is grounded on the teacher's sanitize.SanitizeFilename,
// which performs the same kind of whole-string, multi-literal substring
// replacement pass (there for forbidden filename characters, here for
// secrets) — the technique generalizes directly.
type Redactor struct {
	literals []string
}

// NewRedactor builds a Redactor over the given secret literals. Literals
// are sorted longest-first so that a secret that is itself a substring of
// a longer registered secret never gets partially unmasked.
func NewRedactor(literals []string) *Redactor {
	filtered := make([]string, 0, len(literals))
	for _, l := range literals {
		if l != "" {
			filtered = append(filtered, l)
		}
	}
	return &Redactor{literals: SortedSecretLiterals(filtered)}
}

// Redact replaces every occurrence of every registered literal in s with
// SecretMask. Redaction runs on the full string in one linear scan so that
// a secret spanning a concatenation boundary is still caught; it is
// idempotent since the mask itself never matches a registered literal.
func (r *Redactor) Redact(s string) string {
	if r == nil || len(r.literals) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		matched := false
		for _, lit := range r.literals {
			if len(lit) == 0 || i+len(lit) > len(s) {
				continue
			}
			if s[i:i+len(lit)] == lit {
				b.WriteString(SecretMask)
				i += len(lit)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}

// Add registers an additional literal, keeping the longest-first order.
func (r *Redactor) Add(literal string) {
	if literal == "" {
		return
	}
	for _, l := range r.literals {
		if l == literal {
			return
		}
	}
	r.literals = SortedSecretLiterals(append(r.literals, literal))
}

// Literals returns a copy of the registered secret literals.
func (r *Redactor) Literals() []string {
	return append([]string(nil), r.literals...)
}
