// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runner implements the per-entry and per-file execution semantics
// of §4.7/§4.8 (C3c/C3d): expanding a templated Request into a concrete
// HTTP call, applying retry/redirect/cookie policy, evaluating the
// Response block's captures and asserts, and sequencing a Script's entries
// into a HurlResult. Grounded on the teacher's Suite.Execute (suite/suite.go),
// which drives one Test after another through a shared Jar and accumulates
// per-test results the same way FileRunner accumulates per-entry results.
package runner

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/cookiejar"
	"github.com/vdobler/hurlgo/errorlist"
	"github.com/vdobler/hurlgo/herr"
	"github.com/vdobler/hurlgo/hlog"
	"github.com/vdobler/hurlgo/httpclient"
	"github.com/vdobler/hurlgo/query"
	"github.com/vdobler/hurlgo/template"
	"github.com/vdobler/hurlgo/value"
)

// EntryResult is the outcome of running a single ast.Entry (§3): the
// index/source pin it back to the script text it came from, and Calls
// carries every redirect hop leading to the terminal Response.
type EntryResult struct {
	EntryIndex int
	Source     ast.SourceInfo
	Request    httpclient.RequestSpec
	Response   *httpclient.Response
	Calls      []httpclient.Call
	CurlCmd    string
	Captures   map[string]value.Value
	Asserts    []query.AssertResult
	Errors     errorlist.List
	Duration   time.Duration
	Attempts   int
}

// setupError marks a failure that happened while expanding the entry into a
// concrete request — a bad template or an unreadable local file — which
// §4.7 says must abort the entry immediately rather than be retried, unlike
// a transport failure or a failing assert/capture.
type setupError struct{ err error }

func (e setupError) Error() string { return e.err.Error() }
func (e setupError) Unwrap() error { return e.err }

// EntryRunner expands and executes a single entry against a shared cookie
// jar, the way the teacher's Suite threads one *cookiejar.Jar across every
// Test it executes (suite/suite.go:NewFromRaw).
type EntryRunner struct {
	Client httpclient.HttpClient
	Jar    *cookiejar.Jar
	Log    *hlog.Logger
}

// NewEntryRunner builds an EntryRunner with a fresh net/http-backed client
// and an empty jar.
func NewEntryRunner(log *hlog.Logger) *EntryRunner {
	if log == nil {
		log = hlog.Nop()
	}
	return &EntryRunner{Client: httpclient.NewClient(), Jar: cookiejar.New(), Log: log}
}

// Run expands entry against vars and executes it, retrying up to
// entry.Request.Options.Retry times on failure (§4.7). Captured variables
// are inserted into vars directly; asserts are evaluated but never abort
// the run — their outcomes are returned in Asserts/Errors.
func (r *EntryRunner) Run(ctx context.Context, entry ast.Entry, vars *template.VariableSet) (*EntryResult, error) {
	opts := entry.Request.Options
	attempts := 0
	var last *EntryResult
	var lastErr error

	for {
		attempts++
		snapshot := vars.Clone()
		res, err := r.attempt(ctx, entry, vars)
		if res != nil {
			res.Attempts = attempts
		}
		if err == nil {
			return res, nil
		}
		var setup setupError
		if errors.As(err, &setup) {
			// Template/local-file errors abort the entry outright; retrying
			// would just repeat the same resolution failure (§4.7).
			return res, err
		}
		last, lastErr = res, err
		if attempts > opts.Retry {
			break
		}
		*vars = *snapshot // roll back captures between retries (§4.7)
		if opts.RetryInterval > 0 {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-time.After(time.Duration(opts.RetryInterval) * time.Millisecond):
			}
		}
	}
	if last != nil {
		last.Attempts = attempts
	}
	return last, lastErr
}

func (r *EntryRunner) attempt(ctx context.Context, entry ast.Entry, vars *template.VariableSet) (*EntryResult, error) {
	spec, reqURL, err := r.buildRequest(entry.Request, vars)
	if err != nil {
		return nil, setupError{err}
	}

	clientOpts := httpclient.Options{
		MaxRedirects: entry.Request.Options.MaxRedirects,
		Timeout:      time.Duration(entry.Request.Options.TimeoutMillis) * time.Millisecond,
		Insecure:     entry.Request.Options.Insecure,
	}
	start := time.Now()
	resp, err := r.Client.Send(ctx, spec, clientOpts)
	if err != nil {
		return nil, herr.New(herr.HttpConnection, entry.Request.Source, "%s", err)
	}
	r.Log.Entry(spec.Method, spec.URL)

	for _, sc := range resp.Header.Values("Set-Cookie") {
		r.Jar.AddSetCookie(sc, reqURL.Hostname(), time.Now())
	}

	result := &EntryResult{
		Source:   entry.Source,
		Request:  spec,
		Response: resp,
		Calls:    resp.Calls,
		CurlCmd:  ToCurlCmd(spec),
		Captures: map[string]value.Value{},
		Duration: time.Since(start),
	}

	if entry.Response == nil {
		return result, nil
	}

	var errs errorlist.List
	cache := query.NewBodyCache(resp.Body)
	qctx := &query.Context{Response: resp, Vars: vars, Jar: r.Jar, Cache: cache, Redirects: len(resp.Calls)}

	errs = errs.Append(matchResponseShape(*entry.Response, resp, vars))

	for _, cap := range entry.Response.Captures {
		v, err := query.Eval(cap.Query, qctx)
		if err == nil {
			v, err = query.RunFilters(v, cap.Filters, vars)
		}
		if err != nil {
			errs = errs.Append(err)
			continue
		}
		if cap.IsSecret {
			vars.InsertSecret(cap.Name, v)
			if rendered, rErr := value.Render(v); rErr == nil {
				r.Log.AddSecret(rendered)
			}
		} else {
			vars.Insert(cap.Name, v)
		}
		result.Captures[cap.Name] = v
	}

	for _, assert := range entry.Response.Asserts {
		ar := query.EvalAssert(assert, qctx)
		result.Asserts = append(result.Asserts, ar)
		if !ar.Passed {
			errs = errs.Append(ar.Err)
		}
	}

	result.Errors = errs
	return result, errs.AsError()
}

// matchResponseShape checks the Response block's version/status/header
// matchers, the coarse expectations that sit alongside Captures/Asserts
// (§3).
func matchResponseShape(want ast.Response, got *httpclient.Response, vars *template.VariableSet) error {
	var errs errorlist.List
	if want.Version != "" && want.Version != got.Version {
		errs = errs.Append(herr.NewAssertError(herr.AssertVersion, want.Source,
			"expected version %s, got %s", want.Version, got.Version))
	}
	if want.Status != nil && *want.Status != got.Status {
		errs = errs.Append(herr.NewAssertError(herr.AssertStatus, want.Source,
			"expected status %d, got %d", *want.Status, got.Status))
	}
	for _, hm := range want.Headers {
		rendered, err := template.Eval(hm.Value, vars)
		if err != nil {
			errs = errs.Append(err)
			continue
		}
		if got.Header.Get(hm.Name) != rendered {
			errs = errs.Append(herr.NewAssertError(herr.AssertHeaderValueError, hm.Source,
				"header %q: expected %q, got %q", hm.Name, rendered, got.Header.Get(hm.Name)))
		}
	}
	return errs.AsError()
}

// buildRequest expands every templated part of req against vars into a
// concrete httpclient.RequestSpec plus the resolved *url.URL (needed for
// cookie-jar lookups).
func (r *EntryRunner) buildRequest(req ast.Request, vars *template.VariableSet) (httpclient.RequestSpec, *url.URL, error) {
	rawURL, err := template.Eval(req.URL, vars)
	if err != nil {
		return httpclient.RequestSpec{}, nil, err
	}
	if len(req.Query) > 0 {
		rawURL, err = appendQuery(rawURL, req.Query, vars)
		if err != nil {
			return httpclient.RequestSpec{}, nil, err
		}
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return httpclient.RequestSpec{}, nil, herr.New(herr.InvalidURL, req.Source, "%s", err)
	}

	header := http.Header{}
	for _, h := range req.Headers {
		v, err := template.Eval(h.Value, vars)
		if err != nil {
			return httpclient.RequestSpec{}, nil, err
		}
		header.Add(h.Name, v)
	}

	inline := map[string]bool{}
	for _, c := range req.Cookies {
		inline[c.Name] = true
	}
	var jarPairs []string
	for _, c := range r.Jar.Matching(parsed, time.Now()) {
		if !inline[c.Name] {
			jarPairs = append(jarPairs, c.Name+"="+c.Value)
		}
	}
	if len(jarPairs) > 0 {
		header.Set("Cookie", strings.Join(jarPairs, "; "))
	}
	for _, c := range req.Cookies {
		v, err := template.Eval(c.Value, vars)
		if err != nil {
			return httpclient.RequestSpec{}, nil, err
		}
		existing := header.Get("Cookie")
		pair := c.Name + "=" + v
		if existing == "" {
			header.Set("Cookie", pair)
		} else {
			header.Set("Cookie", existing+"; "+pair)
		}
	}

	body, contentType, err := buildBody(req, vars)
	if err != nil {
		return httpclient.RequestSpec{}, nil, err
	}
	if contentType != "" && header.Get("Content-Type") == "" {
		header.Set("Content-Type", contentType)
	}

	return httpclient.RequestSpec{
		Method: req.Method,
		URL:    parsed.String(),
		Header: header,
		Body:   body,
	}, parsed, nil
}

func appendQuery(rawURL string, params []ast.KeyTemplate, vars *template.VariableSet) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := parsed.Query()
	for _, p := range params {
		v, err := template.Eval(p.Value, vars)
		if err != nil {
			return "", err
		}
		q.Add(p.Name, v)
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

func buildBody(req ast.Request, vars *template.VariableSet) ([]byte, string, error) {
	switch {
	case req.Body != nil:
		return renderBody(*req.Body, vars)
	case len(req.Form) > 0:
		form := url.Values{}
		for _, p := range req.Form {
			v, err := template.Eval(p.Value, vars)
			if err != nil {
				return nil, "", err
			}
			form.Add(p.Name, v)
		}
		return []byte(form.Encode()), "application/x-www-form-urlencoded", nil
	case len(req.Multipart) > 0:
		return buildMultipart(req.Multipart, vars)
	}
	return nil, "", nil
}

func renderBody(b ast.Body, vars *template.VariableSet) ([]byte, string, error) {
	switch b.Kind {
	case ast.BodyFile:
		path, err := template.Eval(*b.FilePath, vars)
		if err != nil {
			return nil, "", err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", herr.New(herr.FileReadAccess, b.Source, "%s", err)
		}
		ct := mime.TypeByExtension(filepath.Ext(path))
		return data, ct, nil
	case ast.BodyJSON:
		s, err := template.Eval(*b.Inline, vars)
		if err != nil {
			return nil, "", err
		}
		return []byte(s), "application/json", nil
	case ast.BodyXML:
		s, err := template.Eval(*b.Inline, vars)
		if err != nil {
			return nil, "", err
		}
		return []byte(s), "application/xml", nil
	default:
		s, err := template.Eval(*b.Inline, vars)
		if err != nil {
			return nil, "", err
		}
		return []byte(s), "", nil
	}
}

func buildMultipart(parts []ast.MultipartPart, vars *template.VariableSet) ([]byte, string, error) {
	// The multipart/form-data body is written by hand with the fixed
	// boundary "hurlgo-boundary"; mime/multipart is not used.
	var buf strings.Builder
	boundary := "hurlgo-boundary"
	for _, p := range parts {
		buf.WriteString("--" + boundary + "\r\n")
		if p.Filename != nil {
			name, err := template.Eval(*p.Filename, vars)
			if err != nil {
				return nil, "", err
			}
			buf.WriteString(fmt.Sprintf("Content-Disposition: form-data; name=%q; filename=%q\r\n", p.Name, name))
			if p.ContentType != "" {
				buf.WriteString("Content-Type: " + p.ContentType + "\r\n")
			}
			buf.WriteString("\r\n")
			data, err := os.ReadFile(name)
			if err != nil {
				return nil, "", err
			}
			buf.Write(data)
		} else if p.Value != nil {
			v, err := template.Eval(*p.Value, vars)
			if err != nil {
				return nil, "", err
			}
			buf.WriteString(fmt.Sprintf("Content-Disposition: form-data; name=%q\r\n\r\n", p.Name))
			buf.WriteString(v)
		}
		buf.WriteString("\r\n")
	}
	buf.WriteString("--" + boundary + "--\r\n")
	return []byte(buf.String()), "multipart/form-data; boundary=" + boundary, nil
}
