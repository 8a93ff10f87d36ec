//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . RegistryBuilder,Downloader,Extractor,HookRunner

package orchestrator

import (
	"context"

	"github.com/canvasgrab/canvasgrab/pkg/download"
	"github.com/canvasgrab/canvasgrab/pkg/hook"
	"github.com/canvasgrab/canvasgrab/pkg/registry"
)

// RegistryBuilder is the subset of the registry builder used by the orchestrator.
type RegistryBuilder interface {
	Build(ctx context.Context, courseID string) (*registry.Registry, error)
}

// Downloader handles fetching one file at a time.
type Downloader interface {
	Fetch(ctx context.Context, item download.Item, opts download.Options) (string, error)
}

// Extractor unpacks a downloaded archive.
type Extractor interface {
	ExtractAll(ctx context.Context, archivePath, destDir string) error
}

// HookRunner runs user-supplied download lifecycle scripts.
type HookRunner interface {
	Execute(hookType hook.HookType, ctx hook.HookContext) error
	HasHook(hookType hook.HookType) bool
}

// Orchestrator ties registry building, filtering and downloading together.
type Orchestrator struct {
	Builder     RegistryBuilder
	DL          Downloader
	Archive     Extractor
	HookManager HookRunner
	Hooks       Hooks // Hooks for progress and event notifications
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // discovering|planning|skipping|downloading|done|error
	ID    int64  // file ID, zero for run-level events
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Options control a fetch run.
type Options struct {
	OutputDir  string
	Extensions []string // allow-listed file extensions, e.g. ".pdf"
	DryRun     bool
	Extract    bool
}

// Summary are the user-visible counts of a run.
type Summary struct {
	Total      int // distinct files discovered
	Downloaded int // downloaded (or planned, in a dry run)
	Skipped    int // wrong extension or refused by the pre-download hook
	Errors     int // failed downloads
}
