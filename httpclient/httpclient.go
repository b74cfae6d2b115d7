// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package httpclient defines the abstract HttpClient capability the runner
// consumes (spec §6) plus a concrete net/http-backed implementation,
// grounded on the teacher's ClientPool (ht.go), which likewise wraps
// *http.Client selection by timeout/redirect policy behind a small pool.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"sync"
	"time"
)

// RequestSpec is the fully-resolved (template-expanded) request the runner
// hands to an HttpClient.
type RequestSpec struct {
	Method  string
	URL     string
	Header  http.Header
	Body    []byte
}

// Options configures one send: redirect/timeout/TLS-verification policy for this
// request, carried over from ast.EntryOptions (§4.7 defaults: 50 max
// redirects, 300s timeout).
type Options struct {
	MaxRedirects int // -1 = unlimited, 0 = follow none
	Timeout      time.Duration
	Insecure     bool
}

// Call captures one hop of a request (original or redirect), per spec §3
// (HurlResult.EntryResult.Calls).
type Call struct {
	Request  RequestSpec
	Response *Response
}

// Certificate is the subset of peer certificate fields the Certificate(field)
// query kind resolves (§4.5), mirroring the Rust certificate.rs model the
// spec's original_source supplements from.
type Certificate struct {
	Subject      string
	Issuer       string
	ExpireDate   time.Time
	SerialNumber string
}

// Response carries everything the query/filter/predicate evaluator and the
// cookie jar need from one HTTP response (spec §6).
type Response struct {
	Version     string
	Status      int
	Header      http.Header
	Body        []byte
	Duration    time.Duration
	FinalURL    string
	RemoteIP    string
	Certificates []Certificate
	Calls       []Call // the redirect chain leading to this terminal response
}

// TransportError wraps a failure performing the underlying network call
// (connect refused, timeout, TLS) (§7).
type TransportError struct {
	Op  string
	Err error
}

func (e TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e TransportError) Unwrap() error { return e.Err }

// HttpClient is the abstract capability the runner consumes (§6): wire
// TLS, HTTP/2, and connection reuse are the concrete implementation's
// concern, not the core's.
type HttpClient interface {
	Send(ctx context.Context, req RequestSpec, opts Options) (*Response, error)
}

// Pool maintains *http.Client instances keyed by (timeout, maxRedirects,
// insecure), generalizing the teacher's ClientPool (ht.go) from a single
// timeout+jar key to the fuller Options set §4.7 requires.
type Pool struct {
	mu      sync.Mutex
	clients map[poolKey]*http.Client
}

type poolKey struct {
	timeout      time.Duration
	maxRedirects int
	insecure     bool
}

// NewPool returns an empty client pool.
func NewPool() *Pool {
	return &Pool{clients: make(map[poolKey]*http.Client)}
}

func (p *Pool) client(opts Options) *http.Client {
	key := poolKey{timeout: opts.Timeout, maxRedirects: opts.MaxRedirects, insecure: opts.Insecure}
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[key]; ok {
		return c
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: opts.Insecure},
	}
	c := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
		// Send drives redirects itself (§4.7 point 4: each hop becomes a
		// Call in the result), so the client must never auto-follow.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	p.clients[key] = c
	return c
}

// TooManyRedirects is returned when a response chain exceeds
// Options.MaxRedirects (§7: TooManyRedirect).
type TooManyRedirects struct{ Max int }

func (e TooManyRedirects) Error() string {
	return "stopped after exceeding the maximum of redirects"
}

// Client is the default HttpClient implementation, backed by net/http.
type Client struct {
	pool *Pool
}

// NewClient returns a Client backed by a fresh Pool.
func NewClient() *Client {
	return &Client{pool: NewPool()}
}

// Send implements HttpClient, manually chasing redirects (rather than
// letting net/http auto-follow) so that every hop becomes a Call on the
// returned Response, the way §4.7 point 4 requires.
func (c *Client) Send(ctx context.Context, spec RequestSpec, opts Options) (*Response, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 300 * time.Second
	}
	client := c.pool.client(opts)

	var calls []Call
	current := spec
	for {
		resp, err := c.roundTrip(ctx, client, current)
		if err != nil {
			return nil, err
		}

		location := resp.Header.Get("Location")
		if !isRedirectStatus(resp.Status) || location == "" {
			resp.Calls = calls
			return resp, nil
		}

		if opts.MaxRedirects == 0 {
			// Follow none: return the redirect response itself, untouched.
			resp.Calls = calls
			return resp, nil
		}
		if opts.MaxRedirects > 0 && len(calls) >= opts.MaxRedirects {
			return nil, TransportError{Op: "follow redirect", Err: TooManyRedirects{Max: opts.MaxRedirects}}
		}
		calls = append(calls, Call{Request: current, Response: resp})

		nextURL, err := resolveRedirect(current.URL, location)
		if err != nil {
			return nil, TransportError{Op: "follow redirect", Err: err}
		}
		current = RequestSpec{
			Method: redirectMethod(resp.Status, current.Method),
			URL:    nextURL,
			Header: current.Header,
			Body:   current.Body,
		}
		if current.Method != spec.Method {
			current.Body = nil
		}
	}
}

// roundTrip performs exactly one HTTP round trip, with no redirect
// following of its own (the client's CheckRedirect always stops at the
// first hop; Send drives the chain).
func (c *Client) roundTrip(ctx context.Context, client *http.Client, spec RequestSpec) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, bytes.NewReader(spec.Body))
	if err != nil {
		return nil, TransportError{Op: "build request", Err: err}
	}
	httpReq.Header = spec.Header

	var remoteIPAddr string
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Conn != nil && info.Conn.RemoteAddr() != nil {
				if host, _, err := net.SplitHostPort(info.Conn.RemoteAddr().String()); err == nil {
					remoteIPAddr = host
				}
			}
		},
	}
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(httpReq.Context(), trace))

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, TransportError{Op: "send request", Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, TransportError{Op: "read body", Err: err}
	}
	duration := time.Since(start)

	var certs []Certificate
	if httpResp.TLS != nil {
		for _, cert := range httpResp.TLS.PeerCertificates {
			certs = append(certs, certFromX509(cert))
		}
	}

	return &Response{
		Version:      httpResp.Proto,
		Status:       httpResp.StatusCode,
		Header:       httpResp.Header,
		Body:         body,
		Duration:     duration,
		FinalURL:     httpResp.Request.URL.String(),
		RemoteIP:     remoteIPAddr,
		Certificates: certs,
	}, nil
}

func isRedirectStatus(status int) bool {
	return status == http.StatusMovedPermanently ||
		status == http.StatusFound ||
		status == http.StatusSeeOther ||
		status == http.StatusTemporaryRedirect ||
		status == http.StatusPermanentRedirect
}

// redirectMethod mirrors net/http's own default CheckRedirect's historical
// method-downgrade rules: a 301/302 POST becomes a GET, a 303 becomes a GET
// unless it was a HEAD, and 307/308 always preserve the original method.
func redirectMethod(status int, method string) string {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound:
		if method == http.MethodPost {
			return http.MethodGet
		}
		return method
	case http.StatusSeeOther:
		if method != http.MethodHead {
			return http.MethodGet
		}
		return method
	default:
		return method
	}
}

func resolveRedirect(base, location string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	loc, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(loc).String(), nil
}

func certFromX509(cert *x509.Certificate) Certificate {
	return Certificate{
		Subject:      cert.Subject.String(),
		Issuer:       cert.Issuer.String(),
		ExpireDate:   cert.NotAfter,
		SerialNumber: cert.SerialNumber.String(),
	}
}
