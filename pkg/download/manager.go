// Package download streams remote files to local disk. It is intentionally
// minimal: one file at a time, a single attempt per file, no resume support.
package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	pkgerrors "github.com/canvasgrab/canvasgrab/pkg/errors"
	"github.com/canvasgrab/canvasgrab/pkg/fsutil"
)

// ManagerImpl downloads files through an authenticated transport, writing to
// a temp file first and moving it into place so a failed download never leaves
// a truncated file at the target path.
type ManagerImpl struct {
	client Doer
}

// NewManager creates a download manager on top of an authenticated transport.
func NewManager(client Doer) *ManagerImpl {
	return &ManagerImpl{client: client}
}

// Fetch downloads a single item and returns the path to the downloaded file.
func (m *ManagerImpl) Fetch(ctx context.Context, item Item, opts Options) (string, error) {
	if opts.Dir == "" {
		return "", fmt.Errorf("download dir must be set: %w", pkgerrors.ErrInvalidPath)
	}
	if item.URL == "" {
		return "", fmt.Errorf("item %d has no URL: %w", item.ID, pkgerrors.ErrDownloadFailed)
	}

	filename := item.Filename
	if filename == "" {
		filename = fmt.Sprintf("file_%d", item.ID)
	}
	absPath := filepath.Join(opts.Dir, filename)

	if err := fsutil.EnsureDir(opts.Dir); err != nil {
		return "", pkgerrors.Wrap(err, "could not create download dir")
	}

	resp, err := m.client.Get(ctx, item.URL)
	if err != nil {
		return "", pkgerrors.Wrap(err, "download failed")
	}
	defer func() { _ = resp.Body.Close() }()

	tmpPath, err := writeBodyToTemp(resp.Body, opts.Dir)
	if err != nil {
		return "", err
	}
	if err := finalizeFile(tmpPath, absPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return absPath, nil
}

// writeBodyToTemp streams the body into a temp file in dir, in chunks, so
// peak memory stays bounded for large files.
func writeBodyToTemp(body io.Reader, dir string) (string, error) {
	tmp, err := os.CreateTemp(dir, "dl-*.tmp")
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not write file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}

func finalizeFile(tmpPath, absPath string) error {
	if err := fsutil.Move(tmpPath, absPath); err != nil {
		return pkgerrors.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(absPath, fsutil.FileModeDefault); err != nil {
		return pkgerrors.Wrap(err, "could not set permissions")
	}
	return nil
}
