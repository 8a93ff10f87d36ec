package download

import (
	"context"
	"net/http"
)

// Manager defines the interface for downloading remote files to local storage.
type Manager interface {
	// Fetch downloads a single item into opts.Dir and returns the absolute
	// local file path.
	Fetch(ctx context.Context, item Item, opts Options) (string, error)
}

// Doer issues authenticated GET requests. *canvas.Client satisfies it, so the
// downloads share the session used for the API calls.
type Doer interface {
	Get(ctx context.Context, rawURL string) (*http.Response, error)
}

// Item represents one remote file to download.
type Item struct {
	ID       int64  // stable identifier of the remote file
	URL      string // authenticated download URL
	Filename string // target filename; must already be filesystem-safe
}

// Options control the behavior of the download manager.
type Options struct {
	Dir string // destination directory; created if absent
}
