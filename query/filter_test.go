package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/herr"
	"github.com/vdobler/hurlgo/value"
)

func TestFilterDaysAfterNowFutureDateIsPositive(t *testing.T) {
	future := value.Date(time.Now().Add(5*24*time.Hour + time.Hour))
	got, err := applyFilter(ast.FDaysAfterNow, future, nil, ast.SourceInfo{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.AsInteger())
}

func TestFilterDaysAfterNowPastDateIsNegative(t *testing.T) {
	past := value.Date(time.Now().Add(-5*24*time.Hour - time.Hour))
	got, err := applyFilter(ast.FDaysAfterNow, past, nil, ast.SourceInfo{})
	require.NoError(t, err)
	assert.Equal(t, int64(-5), got.AsInteger())
}

func TestFilterDaysBeforeNowPastDateIsPositive(t *testing.T) {
	past := value.Date(time.Now().Add(-5*24*time.Hour - time.Hour))
	got, err := applyFilter(ast.FDaysBeforeNow, past, nil, ast.SourceInfo{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.AsInteger())
}

func TestFilterDaysBeforeNowFutureDateIsNegative(t *testing.T) {
	future := value.Date(time.Now().Add(5*24*time.Hour + time.Hour))
	got, err := applyFilter(ast.FDaysBeforeNow, future, nil, ast.SourceInfo{})
	require.NoError(t, err)
	assert.Equal(t, int64(-5), got.AsInteger())
}

func TestFilterDaysDeltaRequiresDate(t *testing.T) {
	_, err := applyFilter(ast.FDaysAfterNow, value.String("not a date"), nil, ast.SourceInfo{})
	require.Error(t, err)
	var re herr.RuntimeError
	if assert.ErrorAs(t, err, &re) {
		assert.Equal(t, herr.TypeMismatch, re.Kind)
	}
}
