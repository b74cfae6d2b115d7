// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package template implements the substitution engine (§4.2) and the
// VariableSet it resolves placeholders against (§3), generalizing the
// teacher's scope.Variables / scope.New (scope/scope.go) from a flat
// string-to-string map into the typed Value lattice with secret tracking.
package template

import (
	"fmt"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/value"
)

// VariableSet is an ordered mapping Name -> Value. Names are unique; once a
// secret is registered for a name, re-assignment preserves the secret flag
// (§3 invariant).
type VariableSet struct {
	order   []string
	values  map[string]value.Value
	secrets map[string]bool
}

// NewVariableSet returns an empty VariableSet.
func NewVariableSet() *VariableSet {
	return &VariableSet{
		values:  make(map[string]value.Value),
		secrets: make(map[string]bool),
	}
}

// Insert adds or updates name with val, visible in output. If name was
// previously inserted as a secret, the secret flag is preserved (§3).
func (vs *VariableSet) Insert(name string, val value.Value) {
	vs.insert(name, val, false)
}

// InsertSecret adds or updates name with val, masked in all emitted strings.
func (vs *VariableSet) InsertSecret(name string, val value.Value) {
	vs.insert(name, val, true)
}

func (vs *VariableSet) insert(name string, val value.Value, secret bool) {
	if _, ok := vs.values[name]; !ok {
		vs.order = append(vs.order, name)
	}
	if vs.secrets[name] {
		secret = true
	}
	vs.values[name] = val
	vs.secrets[name] = secret
}

// Get returns the value bound to name and whether it is present.
func (vs *VariableSet) Get(name string) (value.Value, bool) {
	v, ok := vs.values[name]
	return v, ok
}

// IsSecret reports whether name was ever inserted as a secret.
func (vs *VariableSet) IsSecret(name string) bool {
	return vs.secrets[name]
}

// Names returns all variable names in insertion order.
func (vs *VariableSet) Names() []string {
	return append([]string(nil), vs.order...)
}

// Clone returns a deep-enough copy suitable for per-retry rollback (§4.7:
// "captures are rolled back between retries").
func (vs *VariableSet) Clone() *VariableSet {
	c := NewVariableSet()
	for _, n := range vs.order {
		c.order = append(c.order, n)
		c.values[n] = vs.values[n]
		c.secrets[n] = vs.secrets[n]
	}
	return c
}

// SecretLiterals returns the rendered string form of every secret variable,
// the set the logger's Redactor must be seeded with (§3).
func (vs *VariableSet) SecretLiterals() []string {
	var out []string
	for name, isSecret := range vs.secrets {
		if !isSecret {
			continue
		}
		v := vs.values[name]
		if s, err := value.Render(v); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// TemplateVariableNotDefined is returned when a placeholder references an
// unset variable (§4.2, §7).
type TemplateVariableNotDefined struct {
	Name   string
	Source ast.SourceInfo
}

func (e TemplateVariableNotDefined) Error() string {
	return fmt.Sprintf("%s: variable %q is not defined", e.Source.Start, e.Name)
}

// UnrenderableVariable is returned when a resolved value cannot be
// stringified (e.g. List, Object, Nodeset) (§4.2, §7).
type UnrenderableVariable struct {
	Name   string
	Kind   value.Kind
	Source ast.SourceInfo
}

func (e UnrenderableVariable) Error() string {
	return fmt.Sprintf("%s: variable %q of kind %s cannot be rendered into a string", e.Source.Start, e.Name, e.Kind)
}
