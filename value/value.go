// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package value implements the typed runtime value lattice shared by the
// query, filter and predicate evaluators: a tagged union with equality,
// ordering and predicate operations that abstract away the concrete Go type
// backing a value extracted from a script or a HTTP response.
package value

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"time"
)

// Kind identifies the tag of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindBigInteger
	KindString
	KindSecret
	KindBytes
	KindDate
	KindList
	KindObject
	KindNodeset
	KindRegex
	KindUnit
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBigInteger:
		return "biginteger"
	case KindString:
		return "string"
	case KindSecret:
		return "secret"
	case KindBytes:
		return "bytes"
	case KindDate:
		return "date"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	case KindNodeset:
		return "nodeset"
	case KindRegex:
		return "regex"
	case KindUnit:
		return "unit"
	}
	return "unknown"
}

// SecretMask is the fixed display form of any Secret value.
const SecretMask = "***"

// Value is a tagged union over the value lattice described by the value
// system of a script: scalars, collections and the two opaque kinds
// (Nodeset, Regex) that only support a restricted set of operations.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	big   string
	s     string
	bytes []byte
	date  time.Time
	list  []Value
	obj   *Object
	nodes int
	re    *regexp.Regexp
}

// Object is an ordered map of string to Value, preserving insertion order
// so that rendering and iteration are deterministic.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty ordered Object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set inserts or overwrites key with val, preserving first-insertion order.
func (o *Object) Set(key string, val Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = val
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of entries.
func (o *Object) Len() int {
	return len(o.keys)
}

// Constructors.

func Null() Value                { return Value{kind: KindNull} }
func Unit() Value                { return Value{kind: KindUnit} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Integer(i int64) Value      { return Value{kind: KindInteger, i: i} }
func Float(f float64) Value      { return Value{kind: KindFloat, f: f} }
func BigInteger(s string) Value  { return Value{kind: KindBigInteger, big: s} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func Secret(s string) Value      { return Value{kind: KindSecret, s: s} }
func Bytes(b []byte) Value       { return Value{kind: KindBytes, bytes: b} }
func Date(t time.Time) Value     { return Value{kind: KindDate, date: t} }
func List(vs ...Value) Value     { return Value{kind: KindList, list: vs} }
func Nodeset(count int) Value    { return Value{kind: KindNodeset, nodes: count} }
func Regex(re *regexp.Regexp) Value {
	return Value{kind: KindRegex, re: re}
}
func ObjectValue(o *Object) Value { return Value{kind: KindObject, obj: o} }

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

// AsBool, AsInteger, ... are raw accessors; callers must check Kind first.
func (v Value) AsBool() bool               { return v.b }
func (v Value) AsInteger() int64           { return v.i }
func (v Value) AsFloat() float64           { return v.f }
func (v Value) AsBigInteger() string       { return v.big }
func (v Value) AsString() string           { return v.s }
func (v Value) AsBytes() []byte            { return v.bytes }
func (v Value) AsDate() time.Time          { return v.date }
func (v Value) AsList() []Value            { return v.list }
func (v Value) AsObject() *Object          { return v.obj }
func (v Value) AsNodesetCount() int        { return v.nodes }
func (v Value) AsRegex() *regexp.Regexp    { return v.re }

// IsNull reports whether v is the Null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// TypeMismatch is returned by operations undefined for the given Kind pair.
type TypeMismatch struct {
	Op       string
	A, B     Kind
}

func (e TypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch in %s: %s vs %s", e.Op, e.A, e.B)
}

// InvalidRegex is returned when a string cannot be compiled into a regex.
type InvalidRegex struct {
	Pattern string
	Err     error
}

func (e InvalidRegex) Error() string {
	return fmt.Sprintf("invalid regex %q: %s", e.Pattern, e.Err)
}

const ulpTolerance = 2

// isNumber reports whether k is one of the numeric kinds.
func isNumber(k Kind) bool {
	return k == KindInteger || k == KindFloat || k == KindBigInteger
}

// asF64 converts a numeric Value to float64. Only valid for numeric kinds.
func asF64(v Value) float64 {
	switch v.kind {
	case KindInteger:
		return float64(v.i)
	case KindFloat:
		return v.f
	case KindBigInteger:
		f, _ := new(big64).SetString(v.big)
		return f
	}
	return math.NaN()
}

// big64 is a minimal stand-in parser for the BigInteger overflow fallback;
// BigInteger values are kept as their decimal string and only approximated
// as float64 for ordering/equality purposes.
type big64 float64

func (b *big64) SetString(s string) (float64, bool) {
	var f float64
	_, err := fmt.Sscanf(s, "%g", &f)
	if err != nil {
		return 0, false
	}
	*b = big64(f)
	return f, true
}

// Ordering mirrors the three-way comparison result.
type Ordering int

const (
	Less Ordering = -1
	Equal Ordering = 0
	Greater Ordering = 1
)

// Compare implements compare(a,b) from spec §4.1: lexicographic for
// (String,String), numeric for (Number,Number) pairs (cross-type
// normalizes through float64). Any other combination is a TypeMismatch.
func Compare(a, b Value) (Ordering, error) {
	switch {
	case (a.kind == KindString || a.kind == KindSecret) && (b.kind == KindString || b.kind == KindSecret):
		return compareStrings(a.s, b.s), nil
	case isNumber(a.kind) && isNumber(b.kind):
		return compareFloats(asF64(a), asF64(b)), nil
	}
	return Equal, TypeMismatch{Op: "compare", A: a.kind, B: b.kind}
}

func compareStrings(a, b string) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	}
	return Equal
}

func compareFloats(a, b float64) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	}
	return Equal
}

// nearlyEqual reports whether a and b are equal within ulpTolerance ULPs,
// as required for Float equality in predicates.
func nearlyEqual(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	if diff == 0 {
		return true
	}
	// Approximate ULP tolerance via a relative epsilon: one ULP of the
	// larger magnitude is at most scale times machine epsilon.
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= scale*float64(ulpTolerance)*2.220446049250313e-16
}

// Equals implements equals(a,b) from spec §4.1.
func Equals(a, b Value) (bool, error) {
	if a.kind == KindNodeset && b.kind == KindNodeset {
		return a.nodes == b.nodes, nil
	}
	switch {
	case (a.kind == KindString || a.kind == KindSecret) && (b.kind == KindString || b.kind == KindSecret):
		return a.s == b.s, nil
	case isNumber(a.kind) && isNumber(b.kind):
		return nearlyEqual(asF64(a), asF64(b)), nil
	case a.kind == KindBool && b.kind == KindBool:
		return a.b == b.b, nil
	case a.kind == KindBytes && b.kind == KindBytes:
		return string(a.bytes) == string(b.bytes), nil
	case a.kind == KindNull && b.kind == KindNull:
		return true, nil
	case a.kind == KindDate && b.kind == KindDate:
		return a.date.Equal(b.date), nil
	case a.kind == KindList && b.kind == KindList:
		return listEquals(a.list, b.list)
	case a.kind == KindObject && b.kind == KindObject:
		return objectEquals(a.obj, b.obj)
	}
	return false, TypeMismatch{Op: "equals", A: a.kind, B: b.kind}
}

func listEquals(a, b []Value) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		eq, err := Equals(a[i], b[i])
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

// objectEquals implements order-insensitive object equality.
func objectEquals(a, b *Object) (bool, error) {
	if a.Len() != b.Len() {
		return false, nil
	}
	for _, k := range a.keys {
		av := a.values[k]
		bv, ok := b.values[k]
		if !ok {
			return false, nil
		}
		eq, err := Equals(av, bv)
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

// StartsWith implements starts_with(a,b).
func StartsWith(a, b Value) (bool, error) {
	switch {
	case a.kind == KindString && b.kind == KindString:
		return hasPrefix(a.s, b.s), nil
	case a.kind == KindBytes && b.kind == KindBytes:
		return hasPrefixBytes(a.bytes, b.bytes), nil
	}
	return false, TypeMismatch{Op: "starts_with", A: a.kind, B: b.kind}
}

// EndsWith implements ends_with(a,b).
func EndsWith(a, b Value) (bool, error) {
	switch {
	case a.kind == KindString && b.kind == KindString:
		return hasSuffix(a.s, b.s), nil
	case a.kind == KindBytes && b.kind == KindBytes:
		return hasSuffixBytes(a.bytes, b.bytes), nil
	}
	return false, TypeMismatch{Op: "ends_with", A: a.kind, B: b.kind}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
func hasPrefixBytes(s, prefix []byte) bool {
	return len(s) >= len(prefix) && string(s[:len(prefix)]) == string(prefix)
}
func hasSuffixBytes(s, suffix []byte) bool {
	return len(s) >= len(suffix) && string(s[len(s)-len(suffix):]) == string(suffix)
}

// Contains implements contains(a,b): substring, byte-substring or
// list-membership depending on a's kind.
func Contains(a, b Value) (bool, error) {
	switch a.kind {
	case KindString:
		if b.kind != KindString {
			return false, TypeMismatch{Op: "contains", A: a.kind, B: b.kind}
		}
		return indexOf(a.s, b.s) >= 0, nil
	case KindBytes:
		if b.kind != KindBytes {
			return false, TypeMismatch{Op: "contains", A: a.kind, B: b.kind}
		}
		return indexOf(string(a.bytes), string(b.bytes)) >= 0, nil
	case KindList:
		for _, el := range a.list {
			if eq, err := Equals(el, b); err == nil && eq {
				return true, nil
			}
		}
		return false, nil
	}
	return false, TypeMismatch{Op: "contains", A: a.kind, B: b.kind}
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

// Matches implements matches(value, regex): value must be String; regex may
// already be a compiled Regex or a String to be compiled on the fly.
func Matches(v, pattern Value) (bool, error) {
	if v.kind != KindString && v.kind != KindSecret {
		return false, TypeMismatch{Op: "matches", A: v.kind, B: pattern.kind}
	}
	var re *regexp.Regexp
	switch pattern.kind {
	case KindRegex:
		re = pattern.re
	case KindString:
		compiled, err := regexp.Compile(pattern.s)
		if err != nil {
			return false, InvalidRegex{Pattern: pattern.s, Err: err}
		}
		re = compiled
	default:
		return false, TypeMismatch{Op: "matches", A: v.kind, B: pattern.kind}
	}
	return re.MatchString(v.s), nil
}

// Count implements count(v): List length, String/Bytes byte length, Object
// entry count, Nodeset stored count.
func Count(v Value) (int, error) {
	switch v.kind {
	case KindList:
		return len(v.list), nil
	case KindString, KindSecret:
		return len(v.s), nil
	case KindBytes:
		return len(v.bytes), nil
	case KindObject:
		return v.obj.Len(), nil
	case KindNodeset:
		return v.nodes, nil
	}
	return 0, TypeMismatch{Op: "count", A: v.kind}
}

// Type predicates (§4.1).

func IsBoolean(v Value) bool    { return v.kind == KindBool }
func IsNumber(v Value) bool     { return isNumber(v.kind) }
func IsInteger(v Value) bool    { return v.kind == KindInteger || v.kind == KindBigInteger }
func IsFloat(v Value) bool      { return v.kind == KindFloat }
func IsString(v Value) bool     { return v.kind == KindString || v.kind == KindSecret }
func IsCollection(v Value) bool { return v.kind == KindList || v.kind == KindObject }
func IsDate(v Value) bool       { return v.kind == KindDate }
func IsEmpty(v Value) bool {
	switch v.kind {
	case KindString, KindSecret:
		return v.s == ""
	case KindBytes:
		return len(v.bytes) == 0
	case KindList:
		return len(v.list) == 0
	case KindObject:
		return v.obj == nil || v.obj.Len() == 0
	case KindNull:
		return true
	}
	return false
}
func Exists(v Value) bool { return v.kind != KindNull }

// IsISODate reports whether v is a string parseable as RFC3339.
func IsISODate(v Value) bool {
	if v.kind != KindString && v.kind != KindSecret {
		return false
	}
	_, err := time.Parse(time.RFC3339, v.s)
	return err == nil
}

// Render converts v to its display string form, per the template engine's
// stringification rules (§4.2): Secret renders to its underlying literal,
// so it can be substituted into a request; log output masks it through
// Redactor.
func Render(v Value) (string, error) {
	switch v.kind {
	case KindString:
		return v.s, nil
	case KindSecret:
		return v.s, nil // caller redacts; the *stored* secret literal still equals v.s
	case KindInteger:
		return fmt.Sprintf("%d", v.i), nil
	case KindBigInteger:
		return v.big, nil
	case KindFloat:
		return formatFloat(v.f), nil
	case KindBool:
		return fmt.Sprintf("%t", v.b), nil
	case KindDate:
		return v.date.Format(time.RFC3339), nil
	case KindNull:
		return "null", nil
	}
	return "", fmt.Errorf("unrenderable value of kind %s", v.kind)
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}

// DisplayMask returns the string that must appear in any emitted byte
// stream in place of a Secret's true value.
func DisplayMask() string { return SecretMask }

// SortedSecretLiterals returns lits sorted by descending length, the order
// required for longest-match-first redaction.
func SortedSecretLiterals(lits []string) []string {
	out := append([]string(nil), lits...)
	sort.Slice(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
