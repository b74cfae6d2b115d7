package errorlist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/herr"
)

func TestAppendFlattensNestedList(t *testing.T) {
	inner := List{}.Append(errors.New("a")).Append(errors.New("b"))
	outer := List{}.Append(inner).Append(errors.New("c"))
	assert.Equal(t, []string{"a", "b", "c"}, outer.AsStrings())
}

func TestAsErrorNilForEmpty(t *testing.T) {
	var el List
	assert.Nil(t, el.AsError())
	assert.NotNil(t, el.Append(errors.New("x")).AsError())
}

func TestGroupByAssertKindCountsEachKind(t *testing.T) {
	el := List{}.
		Append(herr.NewAssertError(herr.AssertStatus, ast.SourceInfo{}, "status mismatch")).
		Append(herr.NewAssertError(herr.AssertStatus, ast.SourceInfo{}, "status mismatch again")).
		Append(herr.NewAssertError(herr.AssertPredicate, ast.SourceInfo{}, "predicate failed"))

	counts := el.GroupByAssertKind()
	assert.Equal(t, 2, counts[herr.AssertStatus])
	assert.Equal(t, 1, counts[herr.AssertPredicate])
	assert.Equal(t, 0, counts[herr.AssertVersion])
}

func TestErrorsFlattensNestedLists(t *testing.T) {
	inner := List{}.Append(errors.New("a"))
	el := List{}.Append(inner).Append(errors.New("b"))
	assert.Len(t, el.Errors(), 2)
}
