// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cookiejar implements the Cookie/CookieJar model of spec §4.6: an
// ordered collection of cookies with Netscape-format serialization, cookie
// matching and Set-Cookie ingestion. The teacher threads a stdlib
// net/http/cookiejar.Jar through Suite.Compile (suite.go) and its own
// (unvendored in this pack) github.com/vdobler/ht/cookiejar package; since
// neither gives us the Netscape persistence format the spec requires, this
// package is written from the spec directly, keeping the teacher's "jar
// lives for the duration of one suite/file run" lifecycle.
package cookiejar

import "strings"

// Cookie is a single stored cookie (§3).
type Cookie struct {
	Domain           string
	IncludeSubdomain bool
	Path             string
	HTTPSOnly        bool
	Expires          uint64 // 0 = session, 1 = tombstone/expired-sentinel
	Name             string
	Value            string
	HTTPOnly         bool
}

// normalizeDomain strips the legacy leading '.' from a cookie's domain
// before matching, per §3.
func normalizeDomain(domain string) string {
	return strings.TrimPrefix(domain, ".")
}

// NewCookie builds a Cookie, normalizing Domain.
func NewCookie(domain string, includeSubdomain bool, path string, httpsOnly bool, expires uint64, name, value string, httpOnly bool) Cookie {
	return Cookie{
		Domain:           normalizeDomain(domain),
		IncludeSubdomain: includeSubdomain,
		Path:             path,
		HTTPSOnly:        httpsOnly,
		Expires:          expires,
		Name:             name,
		Value:            value,
		HTTPOnly:         httpOnly,
	}
}

// Expired reports whether the cookie must never match again: Expires == 1
// is the tombstone sentinel, and any nonzero Expires in the past also
// counts (nowUnix is the caller's "now" in Unix seconds).
func (c Cookie) Expired(nowUnix uint64) bool {
	if c.Expires == 1 {
		return true
	}
	if c.Expires == 0 {
		return false
	}
	return c.Expires <= nowUnix
}
