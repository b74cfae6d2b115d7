// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/cookiejar"
	"github.com/vdobler/hurlgo/herr"
	"github.com/vdobler/hurlgo/httpclient"
	"github.com/vdobler/hurlgo/template"
)

// HurlResult is the outcome of running an entire ast.Script (§3, §4.8). The
// Cookies field is a snapshot of the shared jar once every entry has run,
// the terminal cookie state §3 names alongside the per-entry results.
// IOFailure distinguishes a transport/setup failure from an ordinary
// failing assertion: only the former should stop a parallel run's
// dispatcher from submitting further jobs (§4.9).
type HurlResult struct {
	Filename  string
	Entries   []EntryResult
	Cookies   []cookiejar.Cookie
	Duration  time.Duration
	Success   bool
	IOFailure bool
}

// IsIOFailure reports whether err is a transport or request-setup failure
// rather than a failing assert/capture — the distinction §4.9 draws
// between "IOError" (stop submitting new jobs) and an ordinary failed
// test (keep going).
func IsIOFailure(err error) bool {
	if err == nil {
		return false
	}
	var setup setupError
	if errors.As(err, &setup) {
		return true
	}
	var re herr.RuntimeError
	if errors.As(err, &re) {
		switch re.Kind {
		case herr.HttpConnection, herr.Timeout, herr.TooManyRedirect, herr.SSLCertificate:
			return true
		}
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// InteractiveHook is called between entries when FileRunner.Interactive is
// set, letting a caller pause or inspect state before the next entry runs
// (§4.9's "interactive stepping"); returning false aborts the file run.
type InteractiveHook func(next ast.Entry, index int) bool

// FileRunner sequences a Script's entries against one EntryRunner and one
// shared VariableSet, the way the teacher's Suite.Execute iterates its
// ordered Tests against one shared Jar (suite/suite.go).
type FileRunner struct {
	Entry       *EntryRunner
	ToEntry     int // 0 means "run every entry"; >0 is the §4.9 to_entry cutoff
	Interactive InteractiveHook
}

// NewFileRunner returns a FileRunner over a fresh EntryRunner.
func NewFileRunner() *FileRunner {
	return &FileRunner{Entry: NewEntryRunner(nil)}
}

// Run executes script's entries in order up to the to_entry cutoff,
// accumulating one EntryResult per entry. A failing entry does not stop
// the run unless its EntryOptions.ContinueOnError is false (§4.7: the
// default is to stop at the first failing entry).
func (fr *FileRunner) Run(ctx context.Context, script *ast.Script, vars *template.VariableSet) *HurlResult {
	start := time.Now()
	result := &HurlResult{Filename: script.Filename, Success: true}

	cutoff := len(script.Entries)
	if fr.ToEntry > 0 && fr.ToEntry < cutoff {
		cutoff = fr.ToEntry
	}

	// Each file run gets its own empty cookie jar; client and logger are
	// shared with fr.Entry.
	entryRunner := *fr.Entry
	entryRunner.Jar = cookiejar.New()

	for i, entry := range script.Entries[:cutoff] {
		if fr.Interactive != nil && !fr.Interactive(entry, i) {
			break
		}
		res, err := entryRunner.Run(ctx, entry, vars)
		if res != nil {
			res.EntryIndex = i
			result.Entries = append(result.Entries, *res)
		}
		if err != nil {
			result.Success = false
			if IsIOFailure(err) {
				result.IOFailure = true
			}
			if !entry.Request.Options.ContinueOnError {
				break
			}
		}
	}
	result.Cookies = entryRunner.Jar.Cookies()
	result.Duration = time.Since(start)
	return result
}

// ToCurlCmd renders spec as an equivalent curl invocation, the diagnostic
// format §4.9's supplemented curl_cmd feature calls for — grounded on the
// teacher's own habit of producing copy-pasteable reproduction commands for
// a failing check (check/check.go's CantCheck messages quote the request).
func ToCurlCmd(spec httpclient.RequestSpec) string {
	var b strings.Builder
	b.WriteString("curl")
	if spec.Method != "GET" {
		b.WriteString(" -X " + spec.Method)
	}
	for name, values := range spec.Header {
		for _, v := range values {
			b.WriteString(fmt.Sprintf(" -H %q", name+": "+v))
		}
	}
	if len(spec.Body) > 0 {
		b.WriteString(fmt.Sprintf(" --data %q", string(spec.Body)))
	}
	b.WriteString(fmt.Sprintf(" %q", spec.URL))
	return b.String()
}
