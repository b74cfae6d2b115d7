// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

import (
	"strconv"
	"strings"

	"github.com/vdobler/hurlgo/ast"
)

// parseTemplate scans raw text starting at pos into an ast.Template,
// splitting it into Literal runs and `{{expr}}` Placeholders. `\{{` escapes
// a literal double-brace (§4.2).
func parseTemplate(raw string, pos ast.Position) ast.Template {
	var elems []ast.TemplateElement
	var lit strings.Builder
	litStart := pos
	col := pos.Column

	flushLiteral := func(endCol int) {
		if lit.Len() == 0 {
			return
		}
		text := lit.String()
		elems = append(elems, ast.TemplateElement{Literal: &ast.Literal{
			Rendered:  unescapeLiteral(text),
			AsWritten: text,
			Source:    ast.SourceInfo{Start: litStart, End: ast.Position{Line: pos.Line, Column: endCol}},
		}})
		lit.Reset()
	}

	i := 0
	for i < len(raw) {
		if raw[i] == '\\' && i+1 < len(raw) && raw[i+1] == '{' {
			lit.WriteByte('{')
			i += 2
			col += 2
			continue
		}
		if i+1 < len(raw) && raw[i] == '{' && raw[i+1] == '{' {
			flushLiteral(col)
			start := ast.Position{Line: pos.Line, Column: col}
			end := strings.Index(raw[i+2:], "}}")
			if end < 0 {
				// Unterminated placeholder: treat the rest of the line as
				// literal text rather than panicking the parser.
				lit.WriteString(raw[i:])
				i = len(raw)
				break
			}
			expr := strings.TrimSpace(raw[i+2 : i+2+end])
			placeholderEnd := ast.Position{Line: pos.Line, Column: col + 4 + end}
			kind := ast.KindVariable
			if strings.HasPrefix(expr, "NOW") {
				kind = ast.KindNow
			}
			elems = append(elems, ast.TemplateElement{Placeholder: &ast.Placeholder{
				Kind:       kind,
				Expression: expr,
				Source:     ast.SourceInfo{Start: start, End: placeholderEnd},
			}})
			consumed := i + 2 + end + 2
			col += consumed - i
			i = consumed
			litStart = ast.Position{Line: pos.Line, Column: col}
			continue
		}
		lit.WriteByte(raw[i])
		i++
		col++
	}
	flushLiteral(col)

	if len(elems) == 0 {
		// A non-empty node is still required by §8 even for an empty
		// template: fall back to a single zero-length literal.
		elems = append(elems, ast.TemplateElement{Literal: &ast.Literal{
			Source: ast.SourceInfo{Start: pos, End: ast.Position{Line: pos.Line, Column: pos.Column + 1}},
		}})
	}
	end := elems[len(elems)-1]
	var endPos ast.Position
	if end.Literal != nil {
		endPos = end.Literal.Source.End
	} else {
		endPos = end.Placeholder.Source.End
	}
	return ast.Template{Elements: elems, Source: ast.SourceInfo{Start: pos, End: endPos}}
}

// unescapeLiteral resolves the backslash escape alphabet of §4.2 within a
// literal run (\n \t \r \\ \" \# and \uXXXX), mirroring the teacher's
// sanitize package's escape-table approach (sanitize/sanitize.go) but for
// unescaping script text rather than escaping filenames.
func unescapeLiteral(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case '#':
			b.WriteByte('#')
		case 'u':
			if i+6 <= len(s) {
				if n, err := strconv.ParseUint(s[i+2:i+6], 16, 32); err == nil {
					b.WriteRune(rune(n))
					i += 5
					continue
				}
			}
			b.WriteString(`\u`)
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i+1])
		}
		i++
	}
	return b.String()
}
