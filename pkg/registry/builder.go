package registry

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/canvasgrab/canvasgrab/internal/logger"
	"github.com/canvasgrab/canvasgrab/pkg/canvas"
	"github.com/canvasgrab/canvasgrab/pkg/errors"
)

// Default page sizes requested from the collection endpoints, used when no
// page size is configured.
const (
	defaultFilesPerPage   = 100
	defaultModulesPerPage = 50
	defaultItemsPerPage   = 100
)

// Fetcher is the subset of the canvas client used by the builder.
type Fetcher interface {
	FetchAll(ctx context.Context, rawURL string, params url.Values) ([]json.RawMessage, error)
	FetchOne(ctx context.Context, rawURL string) (json.RawMessage, error)
	CourseFilesURL(courseID string) string
	CourseModulesURL(courseID string) string
	ModuleItemsURL(courseID, moduleID string) string
}

// Builder populates a Registry from the two discovery paths of a course: the
// flat file listing, and the module traversal with its per-item file detail
// lookups. The listing runs first, so its records win on duplicate IDs.
type Builder struct {
	Client Fetcher

	// PerPage overrides the default page sizes when positive.
	PerPage int
}

func (b *Builder) perPage(fallback int) string {
	if b.PerPage > 0 {
		return strconv.Itoa(b.PerPage)
	}
	return strconv.Itoa(fallback)
}

// Build fetches both discovery paths for the course and merges the results.
// A failure of one path is logged and the other path still proceeds; Build
// returns an error only when both paths fail outright.
func (b *Builder) Build(ctx context.Context, courseID string) (*Registry, error) {
	reg := New()

	filesErr := b.addListedFiles(ctx, reg, courseID)
	if filesErr != nil {
		logger.Warnf("file listing for course %s failed: %v", courseID, filesErr)
	}

	modulesErr := b.addModuleFiles(ctx, reg, courseID)
	if modulesErr != nil {
		logger.Warnf("module traversal for course %s failed: %v", courseID, modulesErr)
	}

	if filesErr != nil && modulesErr != nil {
		return reg, errors.Wrapf(filesErr, "could not discover any files for course %s", courseID)
	}
	return reg, nil
}

// addListedFiles walks the flat file listing. Records without a download URL
// are folders and are skipped.
func (b *Builder) addListedFiles(ctx context.Context, reg *Registry, courseID string) error {
	params := url.Values{"per_page": {b.perPage(defaultFilesPerPage)}}
	records, err := b.Client.FetchAll(ctx, b.Client.CourseFilesURL(courseID), params)
	if err != nil {
		return err
	}

	logger.Infof("found %d potential file entries in the files section", len(records))
	for _, raw := range records {
		rec, err := canvas.DecodeFileRecord(raw)
		if err != nil {
			logger.Warnf("skipping undecodable file entry: %v", err)
			continue
		}
		if rec.URL == "" {
			logger.Debugf("skipping entry without URL (likely a folder): %s", rec.DisplayName)
			continue
		}
		reg.Add(rec)
	}
	return nil
}

// addModuleFiles walks the modules of the course, resolving each file item's
// detail URL into a file record. Failures below the top-level modules fetch
// are isolated to the module or item they occurred in.
func (b *Builder) addModuleFiles(ctx context.Context, reg *Registry, courseID string) error {
	params := url.Values{
		"include[]": {"items"},
		"per_page":  {b.perPage(defaultModulesPerPage)},
	}
	records, err := b.Client.FetchAll(ctx, b.Client.CourseModulesURL(courseID), params)
	if err != nil {
		return err
	}

	logger.Infof("found %d modules", len(records))
	for _, raw := range records {
		mod, err := canvas.DecodeModule(raw)
		if err != nil {
			logger.Warnf("skipping undecodable module: %v", err)
			continue
		}
		b.addModule(ctx, reg, courseID, mod)
	}
	return nil
}

func (b *Builder) addModule(ctx context.Context, reg *Registry, courseID string, mod canvas.Module) {
	logger.Debugf("checking module: %s", mod.Name)

	items := mod.Items
	if len(items) == 0 {
		var err error
		items, err = b.fetchModuleItems(ctx, courseID, mod)
		if err != nil {
			logger.Warnf("failed to fetch items for module %q: %v", mod.Name, err)
			return
		}
	}

	for _, item := range items {
		if item.Type != canvas.ModuleItemTypeFile || item.URL == "" {
			continue
		}
		b.addFileItem(ctx, reg, item)
	}
}

func (b *Builder) fetchModuleItems(ctx context.Context, courseID string, mod canvas.Module) ([]canvas.ModuleItem, error) {
	itemsURL := b.Client.ModuleItemsURL(courseID, strconv.FormatInt(mod.ID, 10))
	params := url.Values{"per_page": {b.perPage(defaultItemsPerPage)}}
	records, err := b.Client.FetchAll(ctx, itemsURL, params)
	if err != nil {
		return nil, err
	}

	items := make([]canvas.ModuleItem, 0, len(records))
	for _, raw := range records {
		item, err := canvas.DecodeModuleItem(raw)
		if err != nil {
			logger.Warnf("skipping undecodable module item: %v", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// addFileItem resolves one file item's detail URL into a file record and
// inserts it unless the file is already known.
func (b *Builder) addFileItem(ctx context.Context, reg *Registry, item canvas.ModuleItem) {
	logger.Debugf("found file item: %s, fetching details", item.Title)

	raw, err := b.Client.FetchOne(ctx, item.URL)
	if err != nil {
		logger.Warnf("failed to fetch file details for %q: %v", item.Title, err)
		return
	}
	rec, err := canvas.DecodeFileRecord(raw)
	if err != nil {
		logger.Warnf("could not get valid file details for %q: %v", item.Title, err)
		return
	}
	if rec.URL == "" {
		logger.Warnf("file details for %q carry no download URL", item.Title)
		return
	}

	if reg.Add(rec) {
		logger.Debugf("added file: %s", rec.DisplayName)
	} else {
		logger.Debugf("skipping duplicate file: %s", rec.DisplayName)
	}
}
