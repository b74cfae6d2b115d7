// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

import (
	"strconv"
	"strings"

	"github.com/vdobler/hurlgo/ast"
)

// Parse turns script source text into an ast.Script (C1c). filename is
// recorded on the result for diagnostics and the §4.9 to_entry/interactive
// file-level controls the runner applies.
func Parse(filename, src string) (*ast.Script, error) {
	s := newScanner(src)
	var entries []ast.Entry
	for {
		s.skipBlank()
		if s.eof() {
			break
		}
		entry, err := parseEntry(s)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return &ast.Script{Entries: entries, Filename: filename}, nil
}

func parseEntry(s *scanner) (ast.Entry, error) {
	req, err := parseRequest(s)
	if err != nil {
		return ast.Entry{}, err
	}
	entry := ast.Entry{Request: req, Source: req.Source}

	s.skipBlank()
	if l, ok := s.peek(); ok && isResponseLine(l) {
		resp, err := parseResponse(s)
		if err != nil {
			return ast.Entry{}, err
		}
		entry.Response = &resp
		entry.Source.End = resp.Source.End
	}
	return entry, nil
}

func parseRequest(s *scanner) (ast.Request, error) {
	line, pos, _ := s.next()
	toks := words(line)
	if len(toks) < 2 {
		return ast.Request{}, ParseError{Pos: pos, Msg: "expected METHOD URL"}
	}
	req := ast.Request{
		Method:  toks[0],
		URL:     parseTemplate(toks[1], ast.Position{Line: pos.Line, Column: strings.Index(line, toks[1]) + 1}),
		Options: ast.DefaultEntryOptions(),
		Source:  ast.SourceInfo{Start: pos, End: pos},
	}

	// Bare header lines directly following the request line ("Name: value"),
	// outside of any [Section], per §3's request shorthand.
	for {
		l, ok := s.peek()
		if !ok || strings.TrimSpace(l) == "" || isSectionHeader(l) || looksLikeBodyStart(l) ||
			isResponseLine(l) || isEntryBoundary(l) {
			break
		}
		hline, hpos, _ := s.next()
		name, tmpl, err := parseHeaderLine(hline, hpos)
		if err != nil {
			return ast.Request{}, err
		}
		req.Headers = append(req.Headers, ast.KeyTemplate{Name: name, Value: tmpl, Source: ast.SourceInfo{Start: hpos, End: hpos}})
	}

	for {
		l, ok := s.peek()
		if !ok || strings.TrimSpace(l) == "" {
			break
		}
		if isEntryBoundary(l) || isResponseLine(l) {
			break
		}
		if isSectionHeader(l) {
			name := sectionName(l)
			s.next()
			switch name {
			case "QueryStringParams":
				req.Query = append(req.Query, parseKeyTemplateLines(s)...)
			case "FormParams":
				req.Form = append(req.Form, parseKeyTemplateLines(s)...)
			case "Cookies":
				for _, kt := range parseKeyTemplateLines(s) {
					req.Cookies = append(req.Cookies, ast.RequestCookie{Name: kt.Name, Value: kt.Value, Source: kt.Source})
				}
			case "Multipart":
				req.Multipart = append(req.Multipart, parseMultipartLines(s)...)
			case "Options":
				opts, err := parseOptions(s, req.Options)
				if err != nil {
					return ast.Request{}, err
				}
				req.Options = opts
			default:
				return ast.Request{}, ParseError{Pos: s.pos(), Msg: "unknown request section [" + name + "]"}
			}
			continue
		}
		body, err := parseBody(s)
		if err != nil {
			return ast.Request{}, err
		}
		req.Body = body
	}
	req.Source.End = s.pos()
	return req, nil
}

func looksLikeBodyStart(l string) bool {
	t := strings.TrimSpace(l)
	return strings.HasPrefix(t, "{") || strings.HasPrefix(t, "<") || strings.HasPrefix(t, "file,")
}

func parseHeaderLine(line string, pos ast.Position) (string, ast.Template, error) {
	name, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", ast.Template{}, ParseError{Pos: pos, Msg: "expected Name: value"}
	}
	name = strings.TrimSpace(name)
	valueCol := strings.Index(line, ":") + 2
	return name, parseTemplate(strings.TrimSpace(value), ast.Position{Line: pos.Line, Column: valueCol}), nil
}

func parseKeyTemplateLines(s *scanner) []ast.KeyTemplate {
	var out []ast.KeyTemplate
	for {
		l, ok := s.peek()
		if !ok || strings.TrimSpace(l) == "" || isSectionHeader(l) || isEntryBoundary(l) || isResponseLine(l) {
			return out
		}
		line, pos, _ := s.next()
		name, tmpl, err := parseHeaderLine(line, pos)
		if err != nil {
			continue
		}
		out = append(out, ast.KeyTemplate{Name: name, Value: tmpl, Source: ast.SourceInfo{Start: pos, End: pos}})
	}
}

func parseMultipartLines(s *scanner) []ast.MultipartPart {
	var out []ast.MultipartPart
	for {
		l, ok := s.peek()
		if !ok || strings.TrimSpace(l) == "" || isSectionHeader(l) || isEntryBoundary(l) || isResponseLine(l) {
			return out
		}
		line, pos, _ := s.next()
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		toks := words(strings.TrimSpace(rest))
		part := ast.MultipartPart{Name: name, Source: ast.SourceInfo{Start: pos, End: pos}}
		if len(toks) > 0 {
			if strings.HasPrefix(toks[0], "file,") || (len(toks) > 0 && strings.Contains(line, "file,")) {
				// file,path;content-type form
				filePart := strings.TrimSpace(rest)
				body := strings.TrimPrefix(strings.TrimSpace(filePart), "file,")
				pathAndType := strings.SplitN(body, ";", 2)
				path := parseTemplate(strings.TrimSpace(pathAndType[0]), pos)
				part.Filename = &path
				if len(pathAndType) > 1 {
					part.ContentType = strings.TrimSpace(pathAndType[1])
				}
			} else {
				val := parseTemplate(unquote(toks[0]), pos)
				part.Value = &val
			}
		}
		out = append(out, part)
	}
}

func parseOptions(s *scanner, base ast.EntryOptions) (ast.EntryOptions, error) {
	opts := base
	for {
		l, ok := s.peek()
		if !ok || strings.TrimSpace(l) == "" || isSectionHeader(l) || isEntryBoundary(l) || isResponseLine(l) {
			return opts, nil
		}
		line, pos, _ := s.next()
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		switch name {
		case "retry":
			n, err := strconv.Atoi(value)
			if err != nil {
				return opts, ParseError{Pos: pos, Msg: "retry: " + err.Error()}
			}
			opts.Retry = n
		case "retry-interval":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return opts, ParseError{Pos: pos, Msg: "retry-interval: " + err.Error()}
			}
			opts.RetryInterval = n
		case "max-redirects":
			n, err := strconv.Atoi(value)
			if err != nil {
				return opts, ParseError{Pos: pos, Msg: "max-redirects: " + err.Error()}
			}
			opts.MaxRedirects = n
		case "timeout":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return opts, ParseError{Pos: pos, Msg: "timeout: " + err.Error()}
			}
			opts.TimeoutMillis = n
		case "insecure":
			opts.Insecure = value == "true"
		case "continue-on-error":
			opts.ContinueOnError = value == "true"
		}
	}
}

// parseBody consumes either a brace-delimited JSON body, a `file,path;`
// reference, or a run of plain-text lines up to the next blank line/section.
func parseBody(s *scanner) (*ast.Body, error) {
	l, pos, _ := s.next()
	t := strings.TrimSpace(l)
	switch {
	case strings.HasPrefix(t, "file,"):
		path := strings.TrimSuffix(strings.TrimPrefix(t, "file,"), ";")
		tmpl := parseTemplate(path, pos)
		return &ast.Body{Kind: ast.BodyFile, FilePath: &tmpl, Source: ast.SourceInfo{Start: pos, End: pos}}, nil
	case strings.HasPrefix(t, "{") || strings.HasPrefix(t, "["):
		var raw strings.Builder
		raw.WriteString(l)
		depth := strings.Count(l, "{") + strings.Count(l, "[") - strings.Count(l, "}") - strings.Count(l, "]")
		for depth > 0 {
			nl, _, ok := s.next()
			if !ok {
				break
			}
			raw.WriteByte('\n')
			raw.WriteString(nl)
			depth += strings.Count(nl, "{") + strings.Count(nl, "[") - strings.Count(nl, "}") - strings.Count(nl, "]")
		}
		tmpl := parseTemplate(raw.String(), pos)
		return &ast.Body{Kind: ast.BodyJSON, Inline: &tmpl, Source: ast.SourceInfo{Start: pos, End: s.pos()}}, nil
	case strings.HasPrefix(t, "<"):
		var raw strings.Builder
		raw.WriteString(l)
		for {
			nl, ok := s.peek()
			if !ok || strings.TrimSpace(nl) == "" {
				break
			}
			nl, _, _ = s.next()
			raw.WriteByte('\n')
			raw.WriteString(nl)
		}
		tmpl := parseTemplate(raw.String(), pos)
		return &ast.Body{Kind: ast.BodyXML, Inline: &tmpl, Source: ast.SourceInfo{Start: pos, End: s.pos()}}, nil
	default:
		var raw strings.Builder
		raw.WriteString(l)
		for {
			nl, ok := s.peek()
			if !ok || strings.TrimSpace(nl) == "" || isSectionHeader(nl) {
				break
			}
			nl, _, _ = s.next()
			raw.WriteByte('\n')
			raw.WriteString(nl)
		}
		tmpl := parseTemplate(raw.String(), pos)
		return &ast.Body{Kind: ast.BodyPlain, Inline: &tmpl, Source: ast.SourceInfo{Start: pos, End: s.pos()}}, nil
	}
}

func parseResponse(s *scanner) (ast.Response, error) {
	line, pos, _ := s.next()
	toks := words(line)
	resp := ast.Response{Source: ast.SourceInfo{Start: pos, End: pos}}
	if len(toks) > 0 {
		resp.Version = versionFromToken(toks[0])
	}
	if len(toks) > 1 && toks[1] != "*" {
		n, err := strconv.Atoi(toks[1])
		if err != nil {
			return ast.Response{}, ParseError{Pos: pos, Msg: "invalid status " + toks[1]}
		}
		resp.Status = &n
	}

	for {
		l, ok := s.peek()
		if !ok || strings.TrimSpace(l) == "" || isSectionHeader(l) || looksLikeBodyStart(l) {
			break
		}
		hline, hpos, _ := s.next()
		name, tmpl, err := parseHeaderLine(hline, hpos)
		if err != nil {
			return ast.Response{}, err
		}
		resp.Headers = append(resp.Headers, ast.HeaderMatcher{Name: name, Value: tmpl, Source: ast.SourceInfo{Start: hpos, End: hpos}})
	}

	for {
		l, ok := s.peek()
		if !ok || strings.TrimSpace(l) == "" {
			break
		}
		if isEntryBoundary(l) {
			break
		}
		if isSectionHeader(l) {
			name := sectionName(l)
			s.next()
			switch name {
			case "Captures":
				caps, err := parseCaptures(s)
				if err != nil {
					return ast.Response{}, err
				}
				resp.Captures = append(resp.Captures, caps...)
			case "Asserts":
				asserts, err := parseAsserts(s)
				if err != nil {
					return ast.Response{}, err
				}
				resp.Asserts = append(resp.Asserts, asserts...)
			default:
				return ast.Response{}, ParseError{Pos: s.pos(), Msg: "unknown response section [" + name + "]"}
			}
			continue
		}
		body, err := parseBody(s)
		if err != nil {
			return ast.Response{}, err
		}
		resp.Body = body
	}
	resp.Source.End = s.pos()
	return resp, nil
}

func versionFromToken(tok string) string {
	switch tok {
	case "HTTP/1.0":
		return "HTTP/1.0"
	case "HTTP/1.1":
		return "HTTP/1.1"
	case "HTTP/2", "HTTP/2.0":
		return "HTTP/2"
	}
	return ""
}

func parseCaptures(s *scanner) ([]ast.Capture, error) {
	var out []ast.Capture
	for {
		l, ok := s.peek()
		if !ok || strings.TrimSpace(l) == "" || isSectionHeader(l) || isEntryBoundary(l) {
			return out, nil
		}
		line, pos, _ := s.next()
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil, ParseError{Pos: pos, Msg: "expected name: query"}
		}
		name = strings.TrimSpace(name)
		isSecret := false
		if strings.HasPrefix(name, "redact ") || strings.HasSuffix(name, "[secret]") {
			isSecret = true
			name = strings.TrimSuffix(strings.TrimPrefix(name, "redact "), "[secret]")
			name = strings.TrimSpace(name)
		}
		t := &tokenStream{toks: words(strings.TrimSpace(rest)), pos: pos, line: pos.Line}
		q, err := parseQueryExpr(t)
		if err != nil {
			return nil, err
		}
		filters, err := parseFilterChain(t)
		if err != nil {
			return nil, err
		}
		out = append(out, ast.Capture{
			Name: name, Query: q, Filters: filters, IsSecret: isSecret,
			Source: ast.SourceInfo{Start: pos, End: pos},
		})
	}
}

func parseAsserts(s *scanner) ([]ast.Assert, error) {
	var out []ast.Assert
	for {
		l, ok := s.peek()
		if !ok || strings.TrimSpace(l) == "" || isSectionHeader(l) || isEntryBoundary(l) {
			return out, nil
		}
		line, pos, _ := s.next()
		t := &tokenStream{toks: words(strings.TrimSpace(line)), pos: pos, line: pos.Line}
		q, err := parseQueryExpr(t)
		if err != nil {
			return nil, err
		}
		filters, err := parseFilterChain(t)
		if err != nil {
			return nil, err
		}
		pred, err := parsePredicateExpr(t)
		if err != nil {
			return nil, err
		}
		out = append(out, ast.Assert{
			Query: q, Filters: filters, Predicate: pred,
			Source: ast.SourceInfo{Start: pos, End: pos},
		})
	}
}
