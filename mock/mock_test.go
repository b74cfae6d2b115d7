package mock

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerServesRoute(t *testing.T) {
	recorded := make(chan Request, 1)
	srv := NewServer(Route{
		Method: http.MethodGet,
		Path:   "/users/{id}",
		Response: Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       `{"id":"{{id}}"}`,
		},
		Recorded: recorded,
	})
	defer srv.Close()

	resp, err := http.Get(srv.URL() + "/users/42")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42"}`, string(body))

	select {
	case req := <-recorded:
		assert.Equal(t, "42", req.Vars["id"])
	default:
		t.Fatal("route did not record the request")
	}
}

func TestServerDefaultsMethodAndStatus(t *testing.T) {
	srv := NewServer(Route{Path: "/ping", Response: Response{Body: "pong"}})
	defer srv.Close()

	resp, err := http.Get(srv.URL() + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
