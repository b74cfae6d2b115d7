// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package varfile loads the initial VariableSet (§3, §6) from --variable
// flags, NAME=VALUE files and HURLGO_-prefixed environment variables.
// Grounded on the teacher's populate package (populate/populate.go), which
// reads simple NAME=VALUE-shaped declaration files line by line with #
// comments and blank-line skipping; generalized here from populate's
// struct-field population to hurlgo's VariableSet.
package varfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vdobler/hurlgo/template"
	"github.com/vdobler/hurlgo/value"
)

const envPrefix = "HURLGO_"

// ParseError reports a malformed line, including its 1-based line number.
type ParseError struct {
	Line int
	Text string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("varfile: line %d: malformed declaration %q", e.Line, e.Text)
}

// Load reads NAME=VALUE declarations from r into vars. Blank lines and
// lines whose first non-space character is '#' are skipped, matching the
// teacher's populate file format.
func Load(r io.Reader, vars *template.VariableSet) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		name, rawValue, ok := strings.Cut(text, "=")
		if !ok {
			return ParseError{Line: line, Text: text}
		}
		vars.Insert(strings.TrimSpace(name), value.String(strings.TrimSpace(rawValue)))
	}
	return scanner.Err()
}

// LoadFile opens path and loads it into vars via Load.
func LoadFile(path string, vars *template.VariableSet) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Load(f, vars)
}

// LoadEnv merges every HURLGO_-prefixed environment variable into vars,
// stripping the prefix and lower-casing nothing (names are taken verbatim
// after the prefix, so HURLGO_Token becomes variable "Token").
func LoadEnv(vars *template.VariableSet) {
	for _, kv := range os.Environ() {
		name, rawValue, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, envPrefix) {
			continue
		}
		vars.Insert(strings.TrimPrefix(name, envPrefix), value.String(rawValue))
	}
}

// LoadInline parses a single "--variable NAME=VALUE"-style command-line
// argument into vars.
func LoadInline(arg string, vars *template.VariableSet) error {
	name, rawValue, ok := strings.Cut(arg, "=")
	if !ok {
		return ParseError{Text: arg}
	}
	vars.Insert(strings.TrimSpace(name), value.String(rawValue))
	return nil
}
