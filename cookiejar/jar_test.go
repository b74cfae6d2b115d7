// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cookiejar

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCookieThenMatchSecureAndScheme(t *testing.T) {
	j := New()
	now := time.Now()
	j.AddSetCookie("id=x; Domain=.example.com; Path=/; Secure", "example.com", now)

	httpsURL, _ := url.Parse("https://sub.example.com/a")
	header := j.CookieHeader(httpsURL, now)
	assert.Equal(t, "id=x", header)

	httpURL, _ := url.Parse("http://sub.example.com/a")
	header = j.CookieHeader(httpURL, now)
	assert.Empty(t, header)
}

func TestExpiredSentinelMatchesNothing(t *testing.T) {
	j := New()
	j.Add(NewCookie("example.com", false, "/", false, 1, "a", "b", false))
	u, _ := url.Parse("https://example.com/")
	matches := j.Matching(u, time.Now())
	assert.Empty(t, matches)
}

func TestNetscapeRoundTrip(t *testing.T) {
	j := New()
	j.Add(NewCookie("example.com", true, "/app", true, 0, "session", "abc123", true))
	j.Add(NewCookie("other.org", false, "/", false, 1700000000, "pref", "dark mode", false))

	serialized := j.Serialize()
	parsed := Parse(serialized)

	require.Len(t, parsed.Cookies(), 2)
	assert.Equal(t, j.Cookies(), parsed.Cookies())
}

func TestDomainLeadingDotStripped(t *testing.T) {
	c := NewCookie(".example.com", true, "/", false, 0, "a", "b", false)
	assert.Equal(t, "example.com", c.Domain)
}
