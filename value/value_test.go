// Copyright 2018 Volker Dobler.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareStrings(t *testing.T) {
	ord, err := Compare(String("a"), String("b"))
	require.NoError(t, err)
	assert.Equal(t, Less, ord)
}

func TestCompareNumbersCrossType(t *testing.T) {
	ord, err := Compare(Integer(10), Float(10.5))
	require.NoError(t, err)
	assert.Equal(t, Less, ord)
}

func TestCompareTypeMismatch(t *testing.T) {
	_, err := Compare(String("a"), Integer(1))
	require.Error(t, err)
	var tm TypeMismatch
	require.ErrorAs(t, err, &tm)
}

func TestEqualsSecretActsLikeString(t *testing.T) {
	eq, err := Equals(Secret("s3cr3t"), String("s3cr3t"))
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestEqualsFloatULPTolerance(t *testing.T) {
	eq, err := Equals(Float(1.0), Float(1.0000000000000004))
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestEqualsObjectOrderInsensitive(t *testing.T) {
	a := NewObject()
	a.Set("x", Integer(1))
	a.Set("y", Integer(2))
	b := NewObject()
	b.Set("y", Integer(2))
	b.Set("x", Integer(1))
	eq, err := Equals(ObjectValue(a), ObjectValue(b))
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestEqualsNodesetCountOnly(t *testing.T) {
	eq, err := Equals(Nodeset(3), Nodeset(3))
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = Equals(Nodeset(3), Nodeset(4))
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestContainsList(t *testing.T) {
	l := List(Integer(1), Integer(2), Integer(3))
	ok, err := Contains(l, Integer(2))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCountKinds(t *testing.T) {
	n, err := Count(String("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = Count(List(Integer(1), Integer(2)))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = Count(Nodeset(7))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = Count(Bool(true))
	require.Error(t, err)
}

func TestIsISODate(t *testing.T) {
	assert.True(t, IsISODate(String("2020-01-02T15:04:05Z")))
	assert.False(t, IsISODate(String("not a date")))
}

func TestRedactorCatchesConcatenatedSecret(t *testing.T) {
	r := NewRedactor([]string{"s3cr3t"})
	out := r.Redact("password=" + "s3cr3t" + " end")
	assert.NotContains(t, out, "s3cr3t")
	assert.Contains(t, out, SecretMask)
}

func TestRedactorIdempotent(t *testing.T) {
	r := NewRedactor([]string{"topsecret"})
	once := r.Redact("value is topsecret here")
	twice := r.Redact(once)
	assert.Equal(t, once, twice)
}

func TestRedactorLongestMatchFirst(t *testing.T) {
	r := NewRedactor([]string{"sec", "secret"})
	out := r.Redact("the secret word")
	assert.Equal(t, "the "+SecretMask+" word", out)
}
