// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"strconv"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/herr"
	"github.com/vdobler/hurlgo/template"
	"github.com/vdobler/hurlgo/value"
)

// AssertResult is the outcome of evaluating a single ast.Assert: the query
// that was run, the (filtered) actual value it produced and whether the
// predicate held (§4.5, §4.7). A failing AssertResult carries the
// herr.AssertError that errorlist.List accumulates for the entry.
type AssertResult struct {
	Source ast.SourceInfo
	Actual value.Value
	Passed bool
	Err    error
}

// EvalAssert runs a's query, threads the result through its filter chain and
// tests it against its predicate, returning the outcome. On success Err is
// nil; any failure — unresolvable query, filter error, or a predicate that
// does not hold — is reported as a herr.AssertError so the caller can
// accumulate it in an errorlist.List (§4.7: asserts never panic or abort the
// entry, they just fail).
func EvalAssert(a ast.Assert, ctx *Context) AssertResult {
	actual, err := Eval(a.Query, ctx)
	if err != nil {
		return AssertResult{Source: a.Source, Err: wrapAssertErr(err, a.Source)}
	}

	actual, err = RunFilters(actual, a.Filters, ctx.Vars)
	if err != nil {
		return AssertResult{Source: a.Source, Err: wrapAssertErr(err, a.Source)}
	}

	pred, err := resolvePredicate(a.Predicate, ctx.Vars, actual)
	if err != nil {
		return AssertResult{Source: a.Source, Actual: actual, Err: wrapAssertErr(err, a.Source)}
	}

	ok, err := pred.Eval(actual)
	if err != nil {
		return AssertResult{Source: a.Source, Actual: actual, Err: wrapAssertErr(err, a.Source)}
	}
	if !ok {
		rendered, _ := value.Render(actual)
		return AssertResult{
			Source: a.Source,
			Actual: actual,
			Err: herr.NewAssertError(herr.AssertPredicate, a.Source,
				"predicate failed on %s", rendered),
		}
	}
	return AssertResult{Source: a.Source, Actual: actual, Passed: true}
}

func wrapAssertErr(err error, src ast.SourceInfo) error {
	if _, ok := err.(herr.AssertError); ok {
		return err
	}
	return herr.NewAssertError(herr.AssertBodyValueError, src, "%s", err)
}

// resolvePredicate renders a PredicateExpr's template operand against vars
// and converts it into a value.Predicate ready for evaluation. Predicates
// with no operand (Exists, IsBoolean, ...) leave Expected as value.Null().
// The rendered operand is always text (script source has no distinct
// numeric-literal AST node), so it is coerced towards actual's kind before
// comparison — the same sort of best-effort coercion the teacher's
// check/numeric.go applies when comparing a parsed check value to a
// response-derived one.
func resolvePredicate(p ast.PredicateExpr, vars *template.VariableSet, actual value.Value) (value.Predicate, error) {
	expected := value.Null()
	if p.Operand != nil {
		rendered, err := template.Eval(*p.Operand, vars)
		if err != nil {
			return value.Predicate{}, err
		}
		expected = coerceExpected(actual, rendered)
	}
	return value.Predicate{
		Kind:     value.PredicateKind(p.Kind),
		Expected: expected,
		Negated:  p.Negated,
	}, nil
}

func coerceExpected(actual value.Value, rendered string) value.Value {
	switch actual.Kind() {
	case value.KindInteger:
		if i, err := strconv.ParseInt(rendered, 10, 64); err == nil {
			return value.Integer(i)
		}
	case value.KindFloat:
		if f, err := strconv.ParseFloat(rendered, 64); err == nil {
			return value.Float(f)
		}
	case value.KindBool:
		if b, err := strconv.ParseBool(rendered); err == nil {
			return value.Bool(b)
		}
	}
	return value.String(rendered)
}
