package orchestrator_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/canvasgrab/canvasgrab/pkg/canvas"
	"github.com/canvasgrab/canvasgrab/pkg/download"
	"github.com/canvasgrab/canvasgrab/pkg/errors"
	"github.com/canvasgrab/canvasgrab/pkg/hook"
	"github.com/canvasgrab/canvasgrab/pkg/orchestrator"
	"github.com/canvasgrab/canvasgrab/pkg/orchestrator/mocks"
	"github.com/canvasgrab/canvasgrab/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func regWith(records ...canvas.FileRecord) *registry.Registry {
	reg := registry.New()
	for _, rec := range records {
		reg.Add(rec)
	}
	return reg
}

func TestRunFiltersByExtension(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockRegistryBuilder(ctrl)
	dl := mocks.NewMockDownloader(ctrl)

	builder.EXPECT().Build(gomock.Any(), "7").Return(regWith(
		canvas.FileRecord{ID: 1, DisplayName: "slides.pdf", URL: "https://files.test/1"},
		canvas.FileRecord{ID: 2, DisplayName: "setup.exe", URL: "https://files.test/2"},
	), nil)
	dl.EXPECT().
		Fetch(gomock.Any(), download.Item{ID: 1, URL: "https://files.test/1", Filename: "slides.pdf"}, download.Options{Dir: "out"}).
		Return(filepath.Join("out", "slides.pdf"), nil)

	orch := orchestrator.New(builder, dl, nil, nil, orchestrator.Hooks{})
	summary, err := orch.Run(context.Background(), "7", orchestrator.Options{
		OutputDir:  "out",
		Extensions: []string{".pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.Summary{Total: 2, Downloaded: 1, Skipped: 1}, summary)
}

func TestRunNormalizesExtensionSpelling(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockRegistryBuilder(ctrl)
	dl := mocks.NewMockDownloader(ctrl)

	builder.EXPECT().Build(gomock.Any(), "7").Return(regWith(
		canvas.FileRecord{ID: 1, DisplayName: "Notes.PDF", URL: "https://files.test/1"},
	), nil)
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return("out/Notes.PDF", nil)

	orch := orchestrator.New(builder, dl, nil, nil, orchestrator.Hooks{})
	summary, err := orch.Run(context.Background(), "7", orchestrator.Options{
		OutputDir:  "out",
		Extensions: []string{"pdf"}, // no dot, lower case
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Downloaded)
}

func TestRunCountsDownloadErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockRegistryBuilder(ctrl)
	dl := mocks.NewMockDownloader(ctrl)

	builder.EXPECT().Build(gomock.Any(), "7").Return(regWith(
		canvas.FileRecord{ID: 1, DisplayName: "a.pdf", URL: "https://files.test/1"},
		canvas.FileRecord{ID: 2, DisplayName: "b.pdf", URL: "https://files.test/2"},
	), nil)
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.Wrap(errors.ErrDownloadFailed, "boom"))
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("out/b.pdf", nil)

	var events []orchestrator.Event
	orch := orchestrator.New(builder, dl, nil, nil, orchestrator.Hooks{
		OnEvent: func(e orchestrator.Event) { events = append(events, e) },
	})
	summary, err := orch.Run(context.Background(), "7", orchestrator.Options{
		OutputDir:  "out",
		Extensions: []string{".pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.Summary{Total: 2, Downloaded: 1, Errors: 1}, summary)

	var phases []string
	for _, e := range events {
		phases = append(phases, e.Phase)
	}
	assert.Equal(t, []string{"discovering", "downloading", "error", "downloading", "done"}, phases)
}

func TestRunBuildFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockRegistryBuilder(ctrl)

	builder.EXPECT().Build(gomock.Any(), "7").
		Return(nil, errors.Wrap(errors.ErrRequestFailed, "connection refused"))

	orch := orchestrator.New(builder, mocks.NewMockDownloader(ctrl), nil, nil, orchestrator.Hooks{})
	_, err := orch.Run(context.Background(), "7", orchestrator.Options{Extensions: []string{".pdf"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRequestFailed)
}

func TestRunDryRunDoesNotDownload(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockRegistryBuilder(ctrl)

	builder.EXPECT().Build(gomock.Any(), "7").Return(regWith(
		canvas.FileRecord{ID: 1, DisplayName: "a.pdf", URL: "https://files.test/1"},
	), nil)

	// No downloader at all: a dry run must never need one.
	orch := orchestrator.New(builder, nil, nil, nil, orchestrator.Hooks{})
	summary, err := orch.Run(context.Background(), "7", orchestrator.Options{
		Extensions: []string{".pdf"},
		DryRun:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.Summary{Total: 1, Downloaded: 1}, summary)
}

func TestRunPreDownloadHookRefusalSkips(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockRegistryBuilder(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	hooks := mocks.NewMockHookRunner(ctrl)

	builder.EXPECT().Build(gomock.Any(), "7").Return(regWith(
		canvas.FileRecord{ID: 1, DisplayName: "a.pdf", URL: "https://files.test/1"},
	), nil)
	hooks.EXPECT().HasHook(hook.PreDownload).Return(true)
	hooks.EXPECT().Execute(hook.PreDownload, gomock.Any()).
		Return(errors.Wrap(errors.ErrHookScript, "refused"))
	// Fetch must not be called.

	orch := orchestrator.New(builder, dl, nil, hooks, orchestrator.Hooks{})
	summary, err := orch.Run(context.Background(), "7", orchestrator.Options{
		OutputDir:  "out",
		Extensions: []string{".pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.Summary{Total: 1, Skipped: 1}, summary)
}

func TestRunPostDownloadHookFailureIsNonFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockRegistryBuilder(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	hooks := mocks.NewMockHookRunner(ctrl)

	builder.EXPECT().Build(gomock.Any(), "7").Return(regWith(
		canvas.FileRecord{ID: 1, DisplayName: "a.pdf", URL: "https://files.test/1"},
	), nil)
	hooks.EXPECT().HasHook(hook.PreDownload).Return(false)
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return("out/a.pdf", nil)
	hooks.EXPECT().HasHook(hook.PostDownload).Return(true)
	hooks.EXPECT().Execute(hook.PostDownload, gomock.Any()).
		Return(errors.Wrap(errors.ErrHookExecution, "script blew up"))

	orch := orchestrator.New(builder, dl, nil, hooks, orchestrator.Hooks{})
	summary, err := orch.Run(context.Background(), "7", orchestrator.Options{
		OutputDir:  "out",
		Extensions: []string{".pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.Summary{Total: 1, Downloaded: 1}, summary)
}

func TestRunExtractsArchives(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockRegistryBuilder(ctrl)
	dl := mocks.NewMockDownloader(ctrl)
	extractor := mocks.NewMockExtractor(ctrl)

	builder.EXPECT().Build(gomock.Any(), "7").Return(regWith(
		canvas.FileRecord{ID: 1, DisplayName: "assignment.zip", URL: "https://files.test/1"},
	), nil)
	dl.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(filepath.Join("out", "assignment.zip"), nil)
	extractor.EXPECT().
		ExtractAll(gomock.Any(), filepath.Join("out", "assignment.zip"), filepath.Join("out", "assignment")).
		Return(nil)

	orch := orchestrator.New(builder, dl, extractor, nil, orchestrator.Hooks{})
	summary, err := orch.Run(context.Background(), "7", orchestrator.Options{
		OutputDir:  "out",
		Extensions: []string{".zip"},
		Extract:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Downloaded)
}

func TestRunSanitizesFilenames(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockRegistryBuilder(ctrl)
	dl := mocks.NewMockDownloader(ctrl)

	builder.EXPECT().Build(gomock.Any(), "7").Return(regWith(
		canvas.FileRecord{ID: 42, DisplayName: `week 1: intro?.pdf`, URL: "https://files.test/42"},
	), nil)
	dl.EXPECT().
		Fetch(gomock.Any(), download.Item{ID: 42, URL: "https://files.test/42", Filename: "week_1_intro.pdf"}, gomock.Any()).
		Return("out/week_1_intro.pdf", nil)

	orch := orchestrator.New(builder, dl, nil, nil, orchestrator.Hooks{})
	summary, err := orch.Run(context.Background(), "7", orchestrator.Options{
		OutputDir:  "out",
		Extensions: []string{".pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Downloaded)
}

// TestRunEndToEnd exercises the whole pipeline with real components against a
// fake Canvas server: a flat file listing, a module referencing one new file
// and one duplicate, and a binary download per allow-listed record.
func TestRunEndToEnd(t *testing.T) {
	var baseURL string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/courses/7/files", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"id": 1, "display_name": "slides.pdf", "url": "%[1]s/download/1", "size": 11},
			{"id": 2, "display_name": "setup.exe", "url": "%[1]s/download/2", "size": 5}
		]`, baseURL)
	})
	mux.HandleFunc("/api/v1/courses/7/modules", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"id": 100, "name": "Week 1", "items": [
				{"id": 900, "type": "File", "title": "essay", "url": "%[1]s/api/v1/courses/7/files/3"},
				{"id": 901, "type": "File", "title": "slides again", "url": "%[1]s/api/v1/courses/7/files/1"},
				{"id": 902, "type": "Page", "title": "syllabus", "url": "%[1]s/api/v1/courses/7/pages/1"}
			]}
		]`, baseURL)
	})
	mux.HandleFunc("/api/v1/courses/7/files/3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id": 3, "display_name": "essay.docx", "url": "%s/download/3"}`, baseURL)
	})
	mux.HandleFunc("/api/v1/courses/7/files/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id": 1, "display_name": "slides.pdf", "url": "%s/download/1"}`, baseURL)
	})
	mux.HandleFunc("/download/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pdf content"))
	})
	mux.HandleFunc("/download/3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("docx content"))
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	baseURL = server.URL

	client := canvas.New(server.URL, "test-token", 5*time.Second)
	outDir := filepath.Join(t.TempDir(), "canvas_course_7_files")

	orch := orchestrator.New(
		&registry.Builder{Client: client},
		download.NewManager(client),
		nil,
		hook.NewHookManager(),
		orchestrator.Hooks{},
	)

	summary, err := orch.Run(context.Background(), "7", orchestrator.Options{
		OutputDir:  outDir,
		Extensions: []string{".pdf", ".docx"},
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.Summary{Total: 3, Downloaded: 2, Skipped: 1}, summary)

	content, err := os.ReadFile(filepath.Join(outDir, "slides.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "pdf content", string(content))

	content, err = os.ReadFile(filepath.Join(outDir, "essay.docx"))
	require.NoError(t, err)
	assert.Equal(t, "docx content", string(content))

	_, err = os.Stat(filepath.Join(outDir, "setup.exe"))
	assert.True(t, os.IsNotExist(err))
}
