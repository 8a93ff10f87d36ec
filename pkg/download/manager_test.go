package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/canvasgrab/canvasgrab/pkg/canvas"
	pkgerrors "github.com/canvasgrab/canvasgrab/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(serverURL string) *canvas.Client {
	return canvas.New(serverURL, "token", time.Second)
}

func TestFetch_SingleFile(t *testing.T) {
	content := []byte("lecture slides bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(content)
	}))
	defer server.Close()

	tempDir := t.TempDir()
	m := NewManager(newClient(server.URL))

	path, err := m.Fetch(context.Background(), Item{
		ID:       1,
		URL:      server.URL + "/files/1/download",
		Filename: "slides.pdf",
	}, Options{Dir: tempDir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "slides.pdf"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestFetch_CreatesMissingDirectory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "does", "not", "exist")
	m := NewManager(newClient(server.URL))

	path, err := m.Fetch(context.Background(), Item{ID: 1, URL: server.URL, Filename: "a.txt"}, Options{Dir: dir})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestFetch_EmptyFilenameFallsBackToID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	tempDir := t.TempDir()
	m := NewManager(newClient(server.URL))

	path, err := m.Fetch(context.Background(), Item{ID: 42, URL: server.URL}, Options{Dir: tempDir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "file_42"), path)
}

func TestFetch_ErrorHandling(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		item    func(serverURL string) Item
		dir     func(t *testing.T) string
		errorIs error
	}{
		{
			name:   "http error status",
			status: http.StatusNotFound,
			item: func(serverURL string) Item {
				return Item{ID: 1, URL: serverURL + "/gone", Filename: "a.pdf"}
			},
			dir:     func(t *testing.T) string { return t.TempDir() },
			errorIs: pkgerrors.ErrUnexpectedStatus,
		},
		{
			name:   "missing URL",
			status: http.StatusOK,
			item: func(string) Item {
				return Item{ID: 1, Filename: "a.pdf"}
			},
			dir:     func(t *testing.T) string { return t.TempDir() },
			errorIs: pkgerrors.ErrDownloadFailed,
		},
		{
			name:   "missing dir option",
			status: http.StatusOK,
			item: func(serverURL string) Item {
				return Item{ID: 1, URL: serverURL, Filename: "a.pdf"}
			},
			dir:     func(*testing.T) string { return "" },
			errorIs: pkgerrors.ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			m := NewManager(newClient(server.URL))
			_, err := m.Fetch(context.Background(), tt.item(server.URL), Options{Dir: tt.dir(t)})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.errorIs)
		})
	}
}

func TestFetch_FailureLeavesNoTargetFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tempDir := t.TempDir()
	m := NewManager(newClient(server.URL))

	_, err := m.Fetch(context.Background(), Item{ID: 1, URL: server.URL, Filename: "a.pdf"}, Options{Dir: tempDir})
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(tempDir, "a.pdf"))
	assert.True(t, os.IsNotExist(err))
}
