// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

import (
	"strconv"

	"github.com/vdobler/hurlgo/ast"
)

// tokenStream is a cursor over a line's word tokens, used to parse the
// query/filter/predicate grammar of a Captures or Asserts line.
type tokenStream struct {
	toks []string
	i    int
	pos  ast.Position // position of toks[i] in the source line, best-effort
	line int
}

func (t *tokenStream) peek() (string, bool) {
	if t.i >= len(t.toks) {
		return "", false
	}
	return t.toks[t.i], true
}

func (t *tokenStream) next() (string, bool) {
	w, ok := t.peek()
	if ok {
		t.i++
	}
	return w, ok
}

func (t *tokenStream) here() ast.Position {
	return ast.Position{Line: t.line, Column: t.pos.Column + t.i}
}

// parseQueryExpr consumes the leading query keyword (and its string
// argument, if any) from t.
func parseQueryExpr(t *tokenStream) (ast.QueryExpr, error) {
	kw, ok := t.next()
	if !ok {
		return ast.QueryExpr{}, ParseError{Pos: t.here(), Msg: "expected query keyword"}
	}
	src := ast.SourceInfo{Start: t.here(), End: ast.Position{Line: t.line, Column: t.pos.Column + t.i + 1}}

	withArg := func(kind ast.QueryKind) (ast.QueryExpr, error) {
		argWord, ok := t.next()
		if !ok {
			return ast.QueryExpr{}, ParseError{Pos: t.here(), Msg: kw + ": missing argument"}
		}
		tmpl := parseTemplate(unquote(argWord), t.here())
		return ast.QueryExpr{Kind: kind, Arg: &tmpl, Source: src}, nil
	}

	switch kw {
	case "status":
		return ast.QueryExpr{Kind: ast.QStatus, Source: src}, nil
	case "version":
		return ast.QueryExpr{Kind: ast.QVersion, Source: src}, nil
	case "url":
		return ast.QueryExpr{Kind: ast.QURL, Source: src}, nil
	case "header":
		return withArg(ast.QHeader)
	case "cookie":
		return withArg(ast.QCookie)
	case "body":
		return ast.QueryExpr{Kind: ast.QBody, Source: src}, nil
	case "xpath":
		return withArg(ast.QXPath)
	case "jsonpath":
		return withArg(ast.QJSONPath)
	case "regex":
		return withArg(ast.QRegex)
	case "variable":
		return withArg(ast.QVariable)
	case "duration":
		return ast.QueryExpr{Kind: ast.QDuration, Source: src}, nil
	case "bytes":
		return ast.QueryExpr{Kind: ast.QBytes, Source: src}, nil
	case "sha256":
		return ast.QueryExpr{Kind: ast.QSha256, Source: src}, nil
	case "md5":
		return ast.QueryExpr{Kind: ast.QMd5, Source: src}, nil
	case "certificate":
		return withArg(ast.QCertificate)
	case "ip":
		return ast.QueryExpr{Kind: ast.QIP, Source: src}, nil
	case "redirects":
		return ast.QueryExpr{Kind: ast.QRedirects, Source: src}, nil
	}
	return ast.QueryExpr{}, ParseError{Pos: t.here(), Msg: "unknown query keyword " + kw}
}

var filterKeywords = map[string]ast.FilterKind{
	"count":          ast.FCount,
	"htmlEscape":     ast.FHTMLEscape,
	"htmlUnescape":   ast.FHTMLUnescape,
	"urlEncode":      ast.FURLEncode,
	"urlDecode":      ast.FURLDecode,
	"regex":          ast.FRegex,
	"jsonpath":       ast.FJSONPath,
	"xpath":          ast.FXPath,
	"first":          ast.FFirst,
	"last":           ast.FLast,
	"nth":            ast.FNth,
	"replace":        ast.FReplace,
	"split":          ast.FSplit,
	"join":           ast.FJoin,
	"toInt":          ast.FToInt,
	"toFloat":        ast.FToFloat,
	"toString":       ast.FToString,
	"toDate":         ast.FToDate,
	"daysAfterNow":   ast.FDaysAfterNow,
	"daysBeforeNow":  ast.FDaysBeforeNow,
	"format":         ast.FFormat,
	"decode":         ast.FDecode,
	"base64Encode":   ast.FBase64Encode,
	"base64Decode":   ast.FBase64Decode,
}

// filterArgCount is how many positional arguments each filter keyword
// consumes (§4.5); keywords absent here take zero.
var filterArgCount = map[ast.FilterKind]int{
	ast.FRegex: 1, ast.FJSONPath: 1, ast.FXPath: 1, ast.FNth: 1,
	ast.FReplace: 2, ast.FSplit: 1, ast.FJoin: 1, ast.FToDate: 1,
	ast.FFormat: 1, ast.FDecode: 1,
}

// parseFilterChain consumes every trailing filter keyword in t, stopping
// when the next token is a predicate keyword (or the stream is exhausted).
func parseFilterChain(t *tokenStream) ([]ast.FilterExpr, error) {
	var chain []ast.FilterExpr
	for {
		w, ok := t.peek()
		if !ok {
			return chain, nil
		}
		kind, known := filterKeywords[w]
		if !known {
			return chain, nil
		}
		start := t.here()
		t.next()
		n := filterArgCount[kind]
		args := make([]ast.Template, 0, n)
		for i := 0; i < n; i++ {
			argWord, ok := t.next()
			if !ok {
				return nil, ParseError{Pos: t.here(), Msg: w + ": missing argument"}
			}
			args = append(args, parseTemplate(unquote(argWord), t.here()))
		}
		chain = append(chain, ast.FilterExpr{
			Kind: kind, Args: args,
			Source: ast.SourceInfo{Start: start, End: t.here()},
		})
	}
}

var predicateKeywords = map[string]ast.PredicateKind{
	"==":            ast.PEquals,
	"equals":        ast.PEquals,
	"!=":            ast.PNotEquals,
	"notEquals":     ast.PNotEquals,
	">":             ast.PGreater,
	">=":            ast.PGreaterOrEqual,
	"<":             ast.PLess,
	"<=":            ast.PLessOrEqual,
	"startsWith":    ast.PStartsWith,
	"endsWith":      ast.PEndsWith,
	"contains":      ast.PContains,
	"includes":      ast.PIncludes,
	"matches":       ast.PMatches,
	"exists":        ast.PExists,
	"isBoolean":     ast.PIsBoolean,
	"isNumber":      ast.PIsNumber,
	"isInteger":     ast.PIsInteger,
	"isFloat":       ast.PIsFloat,
	"isString":      ast.PIsString,
	"isCollection":  ast.PIsCollection,
	"isDate":        ast.PIsDate,
	"isEmpty":       ast.PIsEmpty,
	"isIsoDate":     ast.PIsISODate,
	"isIpv4":        ast.PIsIPv4,
	"isIpv6":        ast.PIsIPv6,
}

// predicatesWithOperand is the subset of predicateKeywords that consume a
// trailing operand literal; the rest (exists, isBoolean, ...) are
// zero-argument type tests.
var predicatesWithOperand = map[ast.PredicateKind]bool{
	ast.PEquals: true, ast.PNotEquals: true,
	ast.PGreater: true, ast.PGreaterOrEqual: true,
	ast.PLess: true, ast.PLessOrEqual: true,
	ast.PStartsWith: true, ast.PEndsWith: true,
	ast.PContains: true, ast.PIncludes: true, ast.PMatches: true,
}

// parsePredicateExpr consumes an optional leading "not" and then exactly
// one predicate keyword (plus operand, if the keyword requires one).
func parsePredicateExpr(t *tokenStream) (ast.PredicateExpr, error) {
	start := t.here()
	negated := false
	if w, ok := t.peek(); ok && w == "not" {
		negated = true
		t.next()
	}
	w, ok := t.next()
	if !ok {
		return ast.PredicateExpr{}, ParseError{Pos: t.here(), Msg: "expected predicate"}
	}
	kind, known := predicateKeywords[w]
	if !known {
		return ast.PredicateExpr{}, ParseError{Pos: t.here(), Msg: "unknown predicate " + w}
	}
	var operand *ast.Template
	if predicatesWithOperand[kind] {
		argWord, ok := t.next()
		if !ok {
			return ast.PredicateExpr{}, ParseError{Pos: t.here(), Msg: w + ": missing operand"}
		}
		tmpl := parseTemplate(unquote(argWord), t.here())
		operand = &tmpl
	}
	return ast.PredicateExpr{
		Kind: kind, Operand: operand, Negated: negated,
		Source: ast.SourceInfo{Start: start, End: t.here()},
	}, nil
}

// parseInt parses a plain integer token with strconv.Atoi.
func parseInt(w string) (int, error) {
	return strconv.Atoi(w)
}
