// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import "github.com/asaskevich/govalidator"

// IsIPv4 and IsIPv6 delegate to govalidator the same way the teacher's
// Condition.Is validation map does for its "IPv4"/"IPv6" entries.
func IsIPv4(v Value) bool {
	if v.kind != KindString && v.kind != KindSecret {
		return false
	}
	return govalidator.IsIPv4(v.s)
}

func IsIPv6(v Value) bool {
	if v.kind != KindString && v.kind != KindSecret {
		return false
	}
	return govalidator.IsIPv6(v.s)
}

// PredicateKind names a negatable predicate op applied by the query
// evaluator (§4.5).
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

// Predicate is a (kind, expected, negated) triple evaluated against an
// actual Value, per spec §4.5.
type Predicate struct {
	Kind     PredicateKind
	Expected Value
	Negated  bool
}

// Eval applies p to actual, returning the (possibly negated) boolean
// result or a typed error for ill-typed comparisons.
func (p Predicate) Eval(actual Value) (bool, error) {
	ok, err := p.evalRaw(actual)
	if err != nil {
		return false, err
	}
	if p.Negated {
		return !ok, nil
	}
	return ok, nil
}

func (p Predicate) evalRaw(actual Value) (bool, error) {
	switch p.Kind {
	case PEquals:
		return Equals(actual, p.Expected)
	case PNotEquals:
		eq, err := Equals(actual, p.Expected)
		return !eq, err
	case PGreater:
		c, err := Compare(actual, p.Expected)
		return c == Greater, err
	case PGreaterOrEqual:
		c, err := Compare(actual, p.Expected)
		return c == Greater || c == Equal, err
	case PLess:
		c, err := Compare(actual, p.Expected)
		return c == Less, err
	case PLessOrEqual:
		c, err := Compare(actual, p.Expected)
		return c == Less || c == Equal, err
	case PStartsWith:
		return StartsWith(actual, p.Expected)
	case PEndsWith:
		return EndsWith(actual, p.Expected)
	case PContains, PIncludes:
		return Contains(actual, p.Expected)
	case PMatches:
		return Matches(actual, p.Expected)
	case PExists:
		return Exists(actual), nil
	case PIsBoolean:
		return IsBoolean(actual), nil
	case PIsNumber:
		return IsNumber(actual), nil
	case PIsInteger:
		return IsInteger(actual), nil
	case PIsFloat:
		return IsFloat(actual), nil
	case PIsString:
		return IsString(actual), nil
	case PIsCollection:
		return IsCollection(actual), nil
	case PIsDate:
		return IsDate(actual), nil
	case PIsEmpty:
		return IsEmpty(actual), nil
	case PIsISODate:
		return IsISODate(actual), nil
	case PIsIPv4:
		return IsIPv4(actual), nil
	case PIsIPv6:
		return IsIPv6(actual), nil
	}
	return false, TypeMismatch{Op: "predicate", A: actual.kind}
}
