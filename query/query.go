// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/cookiejar"
	"github.com/vdobler/hurlgo/herr"
	"github.com/vdobler/hurlgo/httpclient"
	"github.com/vdobler/hurlgo/jsonpath"
	"github.com/vdobler/hurlgo/template"
	"github.com/vdobler/hurlgo/value"
)

// Context bundles everything a Query may need to resolve against: the
// response under test, the active variable set (for the Variable query
// kind), the jar (for the Cookie query kind) and a per-entry BodyCache.
type Context struct {
	Response  *httpclient.Response
	Vars      *template.VariableSet
	Jar       *cookiejar.Jar
	Cache     *BodyCache
	Redirects int
}

// Eval resolves q against ctx, returning the extracted value.Value or a
// typed herr.RuntimeError. Each query kind's name/expr argument is itself a
// Template, resolved against ctx.Vars first (§4.5).
func Eval(q ast.QueryExpr, ctx *Context) (value.Value, error) {
	arg := ""
	if q.Arg != nil {
		rendered, err := template.Eval(*q.Arg, ctx.Vars)
		if err != nil {
			return value.Null(), err
		}
		arg = rendered
	}

	switch q.Kind {
	case ast.QStatus:
		return value.Integer(int64(ctx.Response.Status)), nil
	case ast.QVersion:
		return value.String(ctx.Response.Version), nil
	case ast.QURL:
		return value.String(ctx.Response.FinalURL), nil
	case ast.QHeader:
		return evalHeader(ctx, arg, q.Source)
	case ast.QCookie:
		return evalCookie(ctx, arg, q.Source)
	case ast.QBody:
		return value.String(string(ctx.Cache.Bytes())), nil
	case ast.QJSONPath:
		return evalJSONPath(ctx, arg, q.Source)
	case ast.QRegex:
		return evalRegex(ctx, arg, q.Source)
	case ast.QVariable:
		v, ok := ctx.Vars.Get(arg)
		if !ok {
			return value.Null(), herr.New(herr.NoQueryResult, q.Source, "variable %q is not set", arg)
		}
		return v, nil
	case ast.QDuration:
		return value.Integer(ctx.Response.Duration.Milliseconds()), nil
	case ast.QBytes:
		return value.Bytes(ctx.Cache.Bytes()), nil
	case ast.QSha256:
		sha, _ := ctx.Cache.Digests()
		return value.String(sha), nil
	case ast.QMd5:
		_, md5 := ctx.Cache.Digests()
		return value.String(md5), nil
	case ast.QCertificate:
		return evalCertificate(ctx, arg, q.Source)
	case ast.QIP:
		return value.String(ctx.Response.RemoteIP), nil
	case ast.QRedirects:
		return value.Integer(int64(ctx.Redirects)), nil
	case ast.QXPath:
		// XmlEngine is an abstract external collaborator per §6; the
		// core never parses XML itself.
		return value.Null(), herr.New(herr.QueryInvalidXpathEval, q.Source, "no XmlEngine configured")
	}
	return value.Null(), herr.New(herr.NoQueryResult, q.Source, "unknown query kind")
}

func evalHeader(ctx *Context, name string, src ast.SourceInfo) (value.Value, error) {
	vals := ctx.Response.Header.Values(name)
	if len(vals) == 0 {
		return value.Null(), herr.New(herr.QueryHeaderNotFound, src, "header %q not found", name)
	}
	if len(vals) == 1 {
		return value.String(vals[0]), nil
	}
	list := make([]value.Value, len(vals))
	for i, v := range vals {
		list[i] = value.String(v)
	}
	return value.List(list...), nil
}

func evalCookie(ctx *Context, cookiePath string, src ast.SourceInfo) (value.Value, error) {
	name, attr, _ := strings.Cut(cookiePath, "[")
	attr = strings.TrimSuffix(attr, "]")
	for _, c := range ctx.Jar.Cookies() {
		if c.Name != name {
			continue
		}
		if attr == "" {
			return value.String(c.Value), nil
		}
		return cookieAttribute(c, attr, src)
	}
	return value.Null(), herr.New(herr.NoQueryResult, src, "cookie %q not found", name)
}

func cookieAttribute(c cookiejar.Cookie, attr string, src ast.SourceInfo) (value.Value, error) {
	switch attr {
	case "Value":
		return value.String(c.Value), nil
	case "Domain":
		return value.String(c.Domain), nil
	case "Path":
		return value.String(c.Path), nil
	case "Secure":
		return value.Bool(c.HTTPSOnly), nil
	case "HttpOnly":
		return value.Bool(c.HTTPOnly), nil
	case "Expires":
		return value.Integer(int64(c.Expires)), nil
	}
	return value.Null(), herr.New(herr.NoQueryResult, src, "unknown cookie attribute %q", attr)
}

func evalJSONPath(ctx *Context, expr string, src ast.SourceInfo) (value.Value, error) {
	doc, err := ctx.Cache.JSON()
	if err != nil {
		return value.Null(), herr.New(herr.QueryInvalidJson, src, "%s", err)
	}
	q, err := jsonpath.Parse(expr)
	if err != nil {
		return value.Null(), herr.New(herr.QueryInvalidJson, src, "invalid jsonpath %q: %s", expr, err)
	}
	nodes := jsonpath.Eval(q, doc)
	return jsonNodesToValue(nodes), nil
}

// jsonNodesToValue converts a jsonpath node list into a value.Value: a
// single scalar node collapses to its scalar Value, otherwise the nodes
// become a List (mirrors the way most JSONPath-backed assert DSLs treat a
// single match as scalar and multiple matches as a collection).
func jsonNodesToValue(nodes []interface{}) value.Value {
	if len(nodes) == 1 {
		return jsonScalarToValue(nodes[0])
	}
	list := make([]value.Value, len(nodes))
	for i, n := range nodes {
		list[i] = jsonScalarToValue(n)
	}
	return value.List(list...)
}

func jsonScalarToValue(n interface{}) value.Value {
	switch v := n.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(v)
	case float64:
		return value.Float(v)
	case string:
		return value.String(v)
	case []interface{}:
		return value.Nodeset(len(v))
	case *jsonpath.Object:
		return value.Nodeset(len(v.Keys))
	}
	return value.Null()
}

func evalRegex(ctx *Context, pattern string, src ast.SourceInfo) (value.Value, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return value.Null(), herr.New(herr.InvalidRegex, src, "regex %q: %s", pattern, err)
	}
	body := string(ctx.Cache.Bytes())
	m := re.FindStringSubmatch(body)
	if m == nil {
		return value.Null(), herr.New(herr.NoQueryResult, src, "regex %q did not match body", pattern)
	}
	if len(m) > 1 {
		return value.String(m[1]), nil
	}
	return value.String(m[0]), nil
}

func evalCertificate(ctx *Context, field string, src ast.SourceInfo) (value.Value, error) {
	if len(ctx.Response.Certificates) == 0 {
		return value.Null(), herr.New(herr.NoQueryResult, src, "response has no certificates")
	}
	cert := ctx.Response.Certificates[0]
	switch field {
	case "Subject":
		return value.String(cert.Subject), nil
	case "Issuer":
		return value.String(cert.Issuer), nil
	case "Expire-Date":
		return value.Date(cert.ExpireDate), nil
	case "Serial-Number":
		return value.String(cert.SerialNumber), nil
	}
	return value.Null(), herr.New(herr.NoQueryResult, src, "unknown certificate field %q", field)
}

// ParseURL parses raw with url.Parse. The runner does not call it; it
// parses request URLs with url.Parse directly.
func ParseURL(raw string) (*url.URL, error) {
	return url.Parse(raw)
}
