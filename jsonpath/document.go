// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonpath

import (
	"encoding/json"
	"fmt"
	"io"
)

// Object is an order-preserving JSON object, built by DecodeDocument instead
// of the standard library's map[string]interface{} (which loses field
// order). Document-order traversal is an invariant the spec tests directly
// (§8: "$..* enumerates every descendant exactly once" in document order),
// so the evaluator needs a representation that actually remembers it.
type Object struct {
	Keys   []string
	Values map[string]interface{}
}

func newObject() *Object {
	return &Object{Values: make(map[string]interface{})}
}

func (o *Object) set(key string, v interface{}) {
	if _, ok := o.Values[key]; !ok {
		o.Keys = append(o.Keys, key)
	}
	o.Values[key] = v
}

// Get looks up key, returning its value and whether it was present.
func (o *Object) Get(key string) (interface{}, bool) {
	v, ok := o.Values[key]
	return v, ok
}

// DecodeDocument parses JSON bytes into the document shape Eval expects:
// JSON objects become *Object (order preserved), arrays become
// []interface{}, and scalars decode as with json.Unmarshal(&interface{}).
func DecodeDocument(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytesReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func bytesReader(b []byte) io.Reader {
	return &sliceReader{b: b}
}

type sliceReader struct {
	b   []byte
	pos int
}

func (r *sliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (interface{}, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := newObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("jsonpath: expected object key, got %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return obj, nil
		case '[':
			var arr []interface{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			if arr == nil {
				arr = []interface{}{}
			}
			return arr, nil
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return tok, nil
}
