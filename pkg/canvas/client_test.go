package canvas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/canvasgrab/canvasgrab/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL, "sekrit", time.Second)
	resp, err := c.Get(context.Background(), server.URL+"/anything")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer sekrit", gotAuth)
	assert.Equal(t, "canvasgrab/1.0", gotAgent)
}

func TestClientStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, "token", time.Second)
	_, err := c.Get(context.Background(), server.URL+"/x")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "500")
}

func TestClientConnectionError(t *testing.T) {
	c := New("http://127.0.0.1:1", "token", 200*time.Millisecond)
	_, err := c.Get(context.Background(), "http://127.0.0.1:1/x")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRequestFailed)
}

func TestEndpointURLs(t *testing.T) {
	c := New("https://canvas.example.edu/", "token", time.Second)

	assert.Equal(t, "https://canvas.example.edu/api/v1/courses/42/files", c.CourseFilesURL("42"))
	assert.Equal(t, "https://canvas.example.edu/api/v1/courses/42/modules", c.CourseModulesURL("42"))
	assert.Equal(t, "https://canvas.example.edu/api/v1/courses/42/modules/7/items", c.ModuleItemsURL("42", "7"))
}
