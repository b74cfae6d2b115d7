// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cookiejar

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Jar is an ordered collection of Cookies, created empty per file run and
// mutated by every response's Set-Cookie processing (§3 lifecycle).
type Jar struct {
	cookies []Cookie
}

// New returns an empty Jar.
func New() *Jar {
	return &Jar{}
}

// Cookies returns all stored cookies, insertion order preserved.
func (j *Jar) Cookies() []Cookie {
	return append([]Cookie(nil), j.cookies...)
}

// Add inserts or replaces a cookie by (domain, path, name) identity, the
// usual RFC 6265 replacement rule; insertion order of new cookies is
// preserved for stable serialization (§3).
func (j *Jar) Add(c Cookie) {
	for i, existing := range j.cookies {
		if existing.Domain == c.Domain && existing.Path == c.Path && existing.Name == c.Name {
			j.cookies[i] = c
			return
		}
	}
	j.cookies = append(j.cookies, c)
}

// AddSetCookie parses a raw Set-Cookie header value using net/http's own
// cookie parser (the teacher's own HTTP stack is net/http-based throughout,
// e.g. ht.go's use of http.Request/http.Response) and inserts it into the
// jar with the defaults of §4.6: domain defaults to requestHost,
// include_subdomain defaults false unless a Domain attribute was present,
// path defaults "/", https_only from Secure, expires computed from
// Max-Age/Expires (0 = session).
func (j *Jar) AddSetCookie(raw, requestHost string, now time.Time) {
	header := http.Header{}
	header.Add("Set-Cookie", raw)
	resp := http.Response{Header: header}
	parsed := resp.Cookies()
	if len(parsed) == 0 {
		return
	}
	hc := parsed[0]

	domain := hc.Domain
	includeSub := domain != ""
	if domain == "" {
		domain = requestHost
		includeSub = false
	}
	path := hc.Path
	if path == "" {
		path = "/"
	}

	var expires uint64
	switch {
	case hc.MaxAge < 0:
		expires = 1 // tombstone: immediate expiry requested
	case hc.MaxAge > 0:
		expires = uint64(now.Add(time.Duration(hc.MaxAge) * time.Second).Unix())
	case !hc.Expires.IsZero():
		if hc.Expires.Before(now) {
			expires = 1
		} else {
			expires = uint64(hc.Expires.Unix())
		}
	}

	j.Add(NewCookie(domain, includeSub, path, hc.Secure, expires, hc.Name, hc.Value, hc.HttpOnly))
}

// Matching returns every cookie in j that matches u and is not expired,
// per the four conditions of §4.6. The result is a subset of j.Cookies().
func (j *Jar) Matching(u *url.URL, now time.Time) []Cookie {
	nowUnix := uint64(now.Unix())
	host := u.Hostname()
	var out []Cookie
	for _, c := range j.cookies {
		if !domainMatches(host, c) {
			continue
		}
		path := u.Path
		if path == "" {
			path = "/"
		}
		if !strings.HasPrefix(path, c.Path) {
			continue
		}
		if c.HTTPSOnly && u.Scheme != "https" {
			continue
		}
		if c.Expired(nowUnix) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func domainMatches(host string, c Cookie) bool {
	if !c.IncludeSubdomain {
		return host == c.Domain
	}
	return host == c.Domain || strings.HasSuffix(host, "."+c.Domain)
}

// CookieHeader renders the cookies matching u as the value of an outgoing
// Cookie header (name=value pairs, "; " separated).
func (j *Jar) CookieHeader(u *url.URL, now time.Time) string {
	matches := j.Matching(u, now)
	parts := make([]string, 0, len(matches))
	for _, c := range matches {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// Serialize renders j in Netscape cookie-jar format (§4.6): tab-separated
// fields, a "#HttpOnly_" prefix on the domain field for http-only cookies,
// trailing newline per entry.
func (j *Jar) Serialize() string {
	var b strings.Builder
	for _, c := range j.cookies {
		domain := c.Domain
		if c.HTTPOnly {
			domain = "#HttpOnly_" + domain
		}
		b.WriteString(domain)
		b.WriteByte('\t')
		b.WriteString(boolField(c.IncludeSubdomain))
		b.WriteByte('\t')
		b.WriteString(c.Path)
		b.WriteByte('\t')
		b.WriteString(boolField(c.HTTPSOnly))
		b.WriteByte('\t')
		b.WriteString(strconv.FormatUint(c.Expires, 10))
		b.WriteByte('\t')
		b.WriteString(c.Name)
		b.WriteByte('\t')
		b.WriteString(c.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

func boolField(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Parse reads a Netscape-format cookie jar. Fields may be separated by a
// tab or any run of whitespace; the 7th field (value) is treated as the
// remainder of the line so it may itself contain spaces (§4.6).
func Parse(data string) *Jar {
	j := New()
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(strings.TrimSpace(line), "# ") {
			continue
		}
		httpOnly := false
		if strings.HasPrefix(line, "#HttpOnly_") {
			httpOnly = true
			line = strings.TrimPrefix(line, "#HttpOnly_")
		} else if strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitFields(line, 7)
		if len(fields) < 7 {
			continue
		}
		expires, _ := strconv.ParseUint(fields[4], 10, 64)
		c := NewCookie(fields[0], fields[1] == "TRUE", fields[2], fields[3] == "TRUE",
			expires, fields[5], fields[6], httpOnly)
		j.cookies = append(j.cookies, c)
	}
	return j
}

// splitFields splits s on runs of whitespace (tab or space) into at most n
// fields, the last field absorbing any remaining text verbatim.
func splitFields(s string, n int) []string {
	var fields []string
	rest := s
	for len(fields) < n-1 {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			break
		}
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			fields = append(fields, rest)
			rest = ""
			break
		}
		fields = append(fields, rest[:idx])
		rest = rest[idx:]
	}
	rest = strings.TrimLeft(rest, " \t")
	if rest != "" || len(fields) < n {
		fields = append(fields, rest)
	}
	return fields
}
