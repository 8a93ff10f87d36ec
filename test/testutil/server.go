// Package testutil provides a fake Canvas API server and config scaffolding
// for integration tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// CourseFixture describes the fake course served by the test server.
type CourseFixture struct {
	CourseID string
	// Files listed directly in the course file section.
	Files []FileFixture
	// Files referenced through a single module. Entries may repeat IDs from
	// Files to exercise deduplication.
	ModuleFiles []FileFixture
}

// FileFixture is one downloadable file of the fake course.
type FileFixture struct {
	ID          int64
	Name        string
	Content     string
	ContentType string
}

// TestServer wraps an httptest server speaking just enough of the Canvas API
// for canvasgrab: file listing, modules with inlined items, file details, and
// file content downloads.
type TestServer struct {
	Server *httptest.Server
	URL    string
}

// NewTestServer starts a fake Canvas server for the fixture. The caller must
// call Stop when done.
func NewTestServer(t *testing.T, fixture CourseFixture) *TestServer {
	t.Helper()

	ts := &TestServer{}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/courses/"+fixture.CourseID+"/files", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "[")
		for i, f := range fixture.Files {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id": %d, "display_name": %q, "url": %q, "size": %d, "content-type": %q}`,
				f.ID, f.Name, ts.downloadURL(f), len(f.Content), f.ContentType)
		}
		fmt.Fprint(w, "]")
	})

	mux.HandleFunc("/api/v1/courses/"+fixture.CourseID+"/modules", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"id": 1, "name": "Module 1", "items": [`)
		for i, f := range fixture.ModuleFiles {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id": %d, "type": "File", "title": %q, "url": %q}`,
				1000+f.ID, f.Name, ts.detailURL(fixture.CourseID, f))
		}
		fmt.Fprint(w, "]}]")
	})

	seen := map[int64]bool{}
	for _, f := range append(append([]FileFixture{}, fixture.Files...), fixture.ModuleFiles...) {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		file := f
		mux.HandleFunc(fmt.Sprintf("/api/v1/courses/%s/files/%d", fixture.CourseID, file.ID),
			func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprintf(w, `{"id": %d, "display_name": %q, "url": %q, "size": %d, "content-type": %q}`,
					file.ID, file.Name, ts.downloadURL(file), len(file.Content), file.ContentType)
			})
		mux.HandleFunc(fmt.Sprintf("/download/%d", file.ID),
			func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(file.Content))
			})
	}

	ts.Server = httptest.NewServer(mux)
	ts.URL = ts.Server.URL
	return ts
}

// Stop shuts the server down.
func (ts *TestServer) Stop(t *testing.T) {
	t.Helper()
	if ts.Server != nil {
		ts.Server.Close()
	}
}

func (ts *TestServer) downloadURL(f FileFixture) string {
	return fmt.Sprintf("%s/download/%d", ts.URL, f.ID)
}

func (ts *TestServer) detailURL(courseID string, f FileFixture) string {
	return fmt.Sprintf("%s/api/v1/courses/%s/files/%d", ts.URL, courseID, f.ID)
}

// SetupTestConfig writes a canvasgrab config file pointed at the fake server
// and returns its path.
func SetupTestConfig(t *testing.T, serverURL, courseID string) string {
	t.Helper()

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configData := fmt.Sprintf(`canvas:
  base_url: %s
  access_token: test-token
  course_id: %q
settings:
  output_dir: %q
  log_level: info
`, serverURL, courseID, filepath.Join(tempDir, "out"))

	if err := os.WriteFile(configPath, []byte(configData), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}
