// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package template

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// filenameEscapes is the escaped-character alphabet a filename template may
// use (§4.2): `\ `, `\{`, `\}`, `\#`, `\;`, `\n`, `\t`, `\r`, `\b`, `\f`,
// `\\`, and `\uXXXX`. Grounded on the teacher's sanitize.SanitizeFilename,
// which performs the analogous "replace forbidden character" pass over a
// filename, though there for OS-safety rather than escape decoding.
var filenameEscapes = map[byte]byte{
	' ': ' ', '{': '{', '}': '}', '#': '#', ';': ';',
	'n': '\n', 't': '\t', 'r': '\r', 'b': '\b', 'f': '\f', '\\': '\\',
}

// FilenameError reports a malformed escape sequence in a filename literal.
type FilenameError struct {
	Pos    int
	Reason string
}

func (e FilenameError) Error() string {
	return fmt.Sprintf("invalid filename escape at byte %d: %s", e.Pos, e.Reason)
}

// UnescapeFilename decodes the escaped-character alphabet of §4.2 in a
// filename literal (the as-written source form between the literal's
// delimiters). It does not evaluate placeholders; callers should run
// placeholder substitution on the surrounding Template first or treat the
// unescaped literal as a Template literal element.
func UnescapeFilename(s string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '\\' {
			if c == ' ' || c == '\t' {
				return "", FilenameError{Pos: i, Reason: "literal whitespace not allowed, use an escape"}
			}
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			return "", FilenameError{Pos: i, Reason: "dangling escape"}
		}
		next := s[i+1]
		if next == 'u' {
			if i+6 > len(s) {
				return "", FilenameError{Pos: i, Reason: "incomplete \\uXXXX escape"}
			}
			hex := s[i+2 : i+6]
			n, err := strconv.ParseInt(hex, 16, 32)
			if err != nil {
				return "", FilenameError{Pos: i, Reason: "invalid \\uXXXX escape: " + err.Error()}
			}
			b.WriteRune(rune(n))
			i += 6
			continue
		}
		repl, ok := filenameEscapes[next]
		if !ok {
			return "", FilenameError{Pos: i, Reason: fmt.Sprintf("unknown escape \\%c", next)}
		}
		b.WriteByte(repl)
		i += 2
	}
	return norm.NFC.String(b.String()), nil
}
