package runner_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vdobler/hurlgo/mock"
	"github.com/vdobler/hurlgo/parser"
	"github.com/vdobler/hurlgo/runner"
	"github.com/vdobler/hurlgo/template"
	"github.com/vdobler/hurlgo/value"
)

// Exercises the FileRunner end to end against a mock.Server standing in for
// a real backend, the way the teacher's suite/suite_test.go drove Suite
// against an httptest server rather than the network.
func TestFileRunnerAgainstMockServer(t *testing.T) {
	recorded := make(chan mock.Request, 1)
	srv := mock.NewServer(mock.Route{
		Method: http.MethodGet,
		Path:   "/users/{id}",
		Response: mock.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       `{"id": "{{id}}", "name": "ada"}`,
		},
		Recorded: recorded,
	})
	defer srv.Close()

	src := `GET {{base}}/users/42
HTTP 200
[Captures]
user_name: jsonpath "$.name"
[Asserts]
jsonpath "$.name" == "ada"
header "Content-Type" == "application/json"
`
	script, err := parser.Parse("mock.hurl", src)
	require.NoError(t, err)

	vars := template.NewVariableSet()
	vars.Insert("base", value.String(srv.URL()))

	fr := runner.NewFileRunner()
	result := fr.Run(context.Background(), script, vars)

	require.True(t, result.Success, "entries: %+v", result.Entries)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, 200, result.Entries[0].Response.Status)

	got, ok := vars.Get("user_name")
	require.True(t, ok)
	assert.Equal(t, "ada", got.AsString())

	select {
	case req := <-recorded:
		assert.Equal(t, "42", req.Vars["id"])
	default:
		t.Fatal("mock server did not record the request")
	}
}
