package query

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vdobler/hurlgo/ast"
	"github.com/vdobler/hurlgo/httpclient"
	"github.com/vdobler/hurlgo/template"
)

func newTestContext(body string) *Context {
	return &Context{
		Response: &httpclient.Response{
			Status: 200,
			Header: http.Header{},
			Body:   []byte(body),
		},
		Vars:  template.NewVariableSet(),
		Cache: NewBodyCache([]byte(body)),
	}
}

func literalTemplate(s string) *ast.Template {
	return &ast.Template{Elements: []ast.TemplateElement{
		{Literal: &ast.Literal{Rendered: s, AsWritten: s}},
	}}
}

func TestEvalRegexReturnsCapturedData(t *testing.T) {
	ctx := newTestContext(`order id: ABC-123, thanks!`)
	q := ast.QueryExpr{Kind: ast.QRegex, Arg: literalTemplate(`order id: (\w+-\d+)`)}

	got, err := Eval(q, ctx)
	require.NoError(t, err)
	assert.Equal(t, "ABC-123", got.AsString())
}

func TestEvalRegexWholeMatchWithoutGroup(t *testing.T) {
	ctx := newTestContext(`status=ready`)
	q := ast.QueryExpr{Kind: ast.QRegex, Arg: literalTemplate(`status=\w+`)}

	got, err := Eval(q, ctx)
	require.NoError(t, err)
	assert.Equal(t, "status=ready", got.AsString())
}

func TestEvalRegexNoMatch(t *testing.T) {
	ctx := newTestContext(`nothing here`)
	q := ast.QueryExpr{Kind: ast.QRegex, Arg: literalTemplate(`order id: (\w+-\d+)`)}

	_, err := Eval(q, ctx)
	assert.Error(t, err)
}
