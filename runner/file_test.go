package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/herr"
)

func TestIsIOFailureTransportError(t *testing.T) {
	err := herr.New(herr.HttpConnection, ast.SourceInfo{}, "connection refused")
	assert.True(t, IsIOFailure(err))
}

func TestIsIOFailureSetupError(t *testing.T) {
	err := setupError{context.DeadlineExceeded}
	assert.True(t, IsIOFailure(err))
}

func TestIsIOFailureAssertError(t *testing.T) {
	err := herr.NewAssertError(herr.AssertStatus, ast.SourceInfo{}, "expected 200, got 404")
	assert.False(t, IsIOFailure(err))
}

func TestIsIOFailureNil(t *testing.T) {
	assert.False(t, IsIOFailure(nil))
}
