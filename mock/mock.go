// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mock provides a small HTTP server for stubbing the endpoints a
// .hurl script talks to, so a script's request/response contract can be
// tested without a live backend. Grounded on the teacher's mock.Mock/Serve
// (mock/mock.go), which served ht.Test scripts from *http.Server/gorilla/mux
// routes; generalized here from ht.Test/scope.Variables to plain
// method+path routing and static/templated responses, since this package's
// scripts have no "fake test" step to run checks against the incoming
// request.
package mock

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// Response is the canned answer a Route sends.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       string
}

// Route binds one Method+Path (a gorilla/mux path template, so "/users/{id}"
// is valid) to a Response. Path variables are available to Body and Header
// via {{name}} substitution, mirroring the teacher's mux.Vars-driven
// replacer in mock.Mock.replacer.
type Route struct {
	Method   string
	Path     string
	Response Response

	// Recorded, if non-nil, receives one Request per matched call.
	Recorded chan<- Request
}

// Request is what the mock observed for one matched call, handed to
// Recorded for assertions in a test.
type Request struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
	Vars   map[string]string
}

// Server wraps an httptest.Server serving a fixed set of Routes.
type Server struct {
	mu     sync.Mutex
	httpd  *httptest.Server
	router *mux.Router
}

// NewServer starts a mock server on an ephemeral port serving routes. The
// caller must call Close when done, the way httptest.NewServer works.
func NewServer(routes ...Route) *Server {
	router := mux.NewRouter()
	s := &Server{router: router}
	for _, rt := range routes {
		s.Handle(rt)
	}
	s.httpd = httptest.NewServer(router)
	return s
}

// URL returns the base URL of the running server.
func (s *Server) URL() string { return s.httpd.URL }

// Close shuts the server down, giving in-flight requests a grace period.
func (s *Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	s.httpd.Config.Shutdown(ctx)
	s.httpd.Close()
}

// Handle registers one more Route on an already-started or not-yet-started
// Server.
func (s *Server) Handle(rt Route) {
	method := rt.Method
	if method == "" {
		method = http.MethodGet
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.router.HandleFunc(rt.Path, rt.serve).Methods(method)
}

func (rt Route) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	if rt.Recorded != nil {
		select {
		case rt.Recorded <- Request{
			Method: r.Method,
			URL:    r.URL,
			Header: r.Header.Clone(),
			Body:   body,
			Vars:   mux.Vars(r),
		}:
		default:
		}
	}

	resp := rt.Response
	replaced := replaceVars(resp.Body, mux.Vars(r))
	for name, vals := range resp.Header {
		for _, v := range vals {
			w.Header().Add(name, v)
		}
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	io.WriteString(w, replaced)
}

func replaceVars(body string, vars map[string]string) string {
	if len(vars) == 0 {
		return body
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(body)
}
