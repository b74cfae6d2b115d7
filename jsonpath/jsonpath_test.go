// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, expr string) Query {
	t.Helper()
	q, err := Parse(expr)
	require.NoError(t, err)
	return q
}

func mustDecode(t *testing.T, s string) interface{} {
	t.Helper()
	doc, err := DecodeDocument([]byte(s))
	require.NoError(t, err)
	return doc
}

func TestRecursiveKeyOrder(t *testing.T) {
	doc := mustDecode(t, `{"x":1,"y":{"x":2}}`)
	q := mustParse(t, "$..x")
	nodes := Eval(q, doc)
	require.Len(t, nodes, 2)
	assert.Equal(t, 1.0, nodes[0])
	assert.Equal(t, 2.0, nodes[1])
}

func TestRecursiveWildcardVisitsEveryDescendantOnce(t *testing.T) {
	doc := mustDecode(t, `{"a":1,"b":[2,3],"c":{"d":4}}`)
	q := mustParse(t, "$..*")
	nodes := Eval(q, doc)
	// a, b, b[0], b[1], c, c.d == 6 descendants
	assert.Len(t, nodes, 6)
}

func TestArraySliceOpenEndNegativeOne(t *testing.T) {
	doc := mustDecode(t, `["a","b","c","d","e"]`)
	q := mustParse(t, "$[:-1]")
	nodes := Eval(q, doc)
	want := []interface{}{"a", "b", "c", "d"}
	require.Len(t, nodes, len(want))
	for i, w := range want {
		assert.Equal(t, w, nodes[i])
	}
}

func TestMultiIndexMissingContributesNothing(t *testing.T) {
	doc := mustDecode(t, `["a","b"]`)
	q := mustParse(t, "$[0,5,1]")
	nodes := Eval(q, doc)
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0])
	assert.Equal(t, "b", nodes[1])
}

func TestFilterPredicateCount(t *testing.T) {
	doc := mustDecode(t, `{"items":[{"name":"a","price":5},{"name":"b","price":20},{"name":"c","price":7}]}`)
	q := mustParse(t, `$.items[?(@.price<10)].name`)
	nodes := Eval(q, doc)
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0])
	assert.Equal(t, "c", nodes[1])
}

func TestFilterOnNonArrayYieldsEmpty(t *testing.T) {
	doc := mustDecode(t, `{"items":{"not":"an array"}}`)
	q := mustParse(t, `$.items[?(@.price<10)]`)
	nodes := Eval(q, doc)
	assert.Empty(t, nodes)
}

func TestNameChildSelectsField(t *testing.T) {
	doc := mustDecode(t, `{"id":42}`)
	q := mustParse(t, "$.id")
	nodes := Eval(q, doc)
	require.Len(t, nodes, 1)
	assert.Equal(t, 42.0, nodes[0])
}

func TestQuotedBracketName(t *testing.T) {
	doc := mustDecode(t, `{"weird name":1}`)
	q := mustParse(t, `$['weird name']`)
	nodes := Eval(q, doc)
	require.Len(t, nodes, 1)
	assert.Equal(t, 1.0, nodes[0])
}

func TestObjectWildcardPreservesSourceOrder(t *testing.T) {
	doc := mustDecode(t, `{"z":1,"a":2,"m":3}`)
	q := mustParse(t, "$.*")
	nodes := Eval(q, doc)
	require.Equal(t, []interface{}{1.0, 2.0, 3.0}, nodes)
}
