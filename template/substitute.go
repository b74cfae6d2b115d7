// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package template

import (
	"strconv"
	"strings"
	"time"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/value"
)

// Eval substitutes every element of tmpl in order against vars, returning a
// single rendered string (§4.2).
func Eval(tmpl ast.Template, vars *VariableSet) (string, error) {
	var b strings.Builder
	for _, el := range tmpl.Elements {
		switch {
		case el.Literal != nil:
			b.WriteString(el.Literal.Rendered)
		case el.Placeholder != nil:
			s, err := evalPlaceholder(*el.Placeholder, vars)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
	}
	return b.String(), nil
}

func evalPlaceholder(ph ast.Placeholder, vars *VariableSet) (string, error) {
	if ph.Kind == ast.KindNow {
		return evalNow(ph)
	}
	v, ok := vars.Get(ph.Expression)
	if !ok {
		return "", TemplateVariableNotDefined{Name: ph.Expression, Source: ph.Source}
	}
	if v.IsNull() {
		return "null", nil
	}
	s, err := value.Render(v)
	if err != nil {
		return "", UnrenderableVariable{Name: ph.Expression, Kind: v.Kind(), Source: ph.Source}
	}
	return s, nil
}

// evalNow renders a `{{NOW [+-N] [| "format"]}}` placeholder, the
// built-in clock variable the teacher implements in variables.go via
// nowTimeRe / nowVariables. Expression holds the placeholder text as the
// parser found it; N is an offset in seconds and format is a Go time
// layout (RFC1123 when absent).
func evalNow(ph ast.Placeholder) (string, error) {
	offsetSeconds, format := int64(0), time.RFC1123
	parts := strings.SplitN(strings.TrimPrefix(ph.Expression, "NOW"), "|", 2)
	if off := strings.TrimSpace(parts[0]); off != "" {
		n, err := strconv.ParseInt(off, 10, 64)
		if err == nil {
			offsetSeconds = n
		}
	}
	if len(parts) == 2 {
		if f := strings.Trim(strings.TrimSpace(parts[1]), `"`); f != "" {
			format = f
		}
	}
	return time.Now().Add(time.Duration(offsetSeconds) * time.Second).Format(format), nil
}

// MustRender renders val, returning the string form or panicking if val
// cannot be rendered. Used only where a caller has already validated
// renderability (e.g. literal template elements).
func MustRender(val value.Value) string {
	s, err := value.Render(val)
	if err != nil {
		panic(err)
	}
	return s
}
