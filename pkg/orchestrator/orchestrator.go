// Package orchestrator sequences a fetch run: build the file registry from
// both discovery paths, apply the extension allow-list, download each file
// once, and report counts.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/canvasgrab/canvasgrab/internal/logger"
	"github.com/canvasgrab/canvasgrab/pkg/archive"
	"github.com/canvasgrab/canvasgrab/pkg/canvas"
	"github.com/canvasgrab/canvasgrab/pkg/download"
	"github.com/canvasgrab/canvasgrab/pkg/fsutil"
	"github.com/canvasgrab/canvasgrab/pkg/hook"
)

// Run builds the registry for the course and downloads every allow-listed
// file sequentially. Individual download failures are counted and the run
// continues; only a failed registry build aborts the run.
func (o *Orchestrator) Run(ctx context.Context, courseID string, opts Options) (Summary, error) {
	if o.Builder == nil {
		return Summary{}, fmt.Errorf("registry builder is not configured")
	}
	if o.DL == nil && !opts.DryRun {
		return Summary{}, fmt.Errorf("download manager is not configured")
	}

	emit(o.Hooks, Event{Phase: "discovering", Msg: courseID})
	reg, err := o.Builder.Build(ctx, courseID)
	if err != nil {
		return Summary{}, err
	}
	logger.Infof("found a total of %d unique file entries", reg.Len())

	allowed := normalizeExtensions(opts.Extensions)
	summary := Summary{Total: reg.Len()}

	for _, rec := range reg.Records() {
		if !allowed[strings.ToLower(filepath.Ext(rec.DisplayName))] {
			summary.Skipped++
			emit(o.Hooks, Event{Phase: "skipping", ID: rec.ID, Msg: rec.DisplayName})
			continue
		}
		o.processFile(ctx, rec, opts, &summary)
	}

	emit(o.Hooks, Event{Phase: "done"})
	return summary, nil
}

func (o *Orchestrator) processFile(ctx context.Context, rec canvas.FileRecord, opts Options, summary *Summary) {
	filename := fsutil.SanitizeFilename(rec.DisplayName)
	if filename == "" {
		filename = fmt.Sprintf("file_%d", rec.ID)
	}

	if opts.DryRun {
		summary.Downloaded++
		emit(o.Hooks, Event{Phase: "planning", ID: rec.ID, Msg: filename})
		return
	}

	destPath := filepath.Join(opts.OutputDir, filename)
	if err := o.runHook(hook.PreDownload, rec, destPath); err != nil {
		summary.Skipped++
		logger.Warnf("pre-download hook refused %s: %v", rec.DisplayName, err)
		emit(o.Hooks, Event{Phase: "skipping", ID: rec.ID, Msg: rec.DisplayName})
		return
	}

	emit(o.Hooks, Event{Phase: "downloading", ID: rec.ID, Msg: filename})
	path, err := o.DL.Fetch(ctx, download.Item{
		ID:       rec.ID,
		URL:      rec.URL,
		Filename: filename,
	}, download.Options{Dir: opts.OutputDir})
	if err != nil {
		summary.Errors++
		logger.Errorf("error downloading %s: %v", rec.DisplayName, err)
		emit(o.Hooks, Event{Phase: "error", ID: rec.ID, Msg: err.Error()})
		return
	}
	summary.Downloaded++
	logger.Infof("successfully downloaded: %s", path)

	if err := o.runHook(hook.PostDownload, rec, path); err != nil {
		logger.Warnf("post-download hook failed for %s: %v", rec.DisplayName, err)
	}

	if opts.Extract && o.Archive != nil && archive.IsArchive(filename) {
		destDir := strings.TrimSuffix(path, filepath.Ext(path))
		if err := o.Archive.ExtractAll(ctx, path, destDir); err != nil {
			logger.Warnf("failed to extract %s: %v", filename, err)
		}
	}
}

func (o *Orchestrator) runHook(hookType hook.HookType, rec canvas.FileRecord, destPath string) error {
	if o.HookManager == nil || !o.HookManager.HasHook(hookType) {
		return nil
	}
	return o.HookManager.Execute(hookType, hook.HookContext{
		FileID:   rec.ID,
		FileName: rec.DisplayName,
		URL:      rec.URL,
		DestPath: destPath,
	})
}

// normalizeExtensions lowers each allow-list entry and ensures a leading dot,
// so ".PDF", "pdf" and ".pdf" all mean the same thing.
func normalizeExtensions(extensions []string) map[string]bool {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}
	return allowed
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// New constructs a default Orchestrator from existing managers. Helper for wiring.
func New(builder RegistryBuilder, dl Downloader, extractor Extractor, hookManager HookRunner, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		Builder:     builder,
		DL:          dl,
		Archive:     extractor,
		HookManager: hookManager,
		Hooks:       hooks,
	}
}
