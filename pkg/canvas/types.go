package canvas

import (
	"encoding/json"

	"github.com/canvasgrab/canvasgrab/pkg/errors"
)

// ModuleItemTypeFile marks module items that reference a file.
const ModuleItemTypeFile = "File"

// FileRecord is one file entry as returned by the course files listing and the
// file detail endpoint. URL is the authenticated, time-limited download URL;
// folder rows carry no URL.
type FileRecord struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content-type"`
}

// Module is one course module, optionally with its items inlined.
type Module struct {
	ID    int64        `json:"id"`
	Name  string       `json:"name"`
	Items []ModuleItem `json:"items"`
}

// ModuleItem is a single entry within a module. Only items of type "File"
// reference a file; their URL points at the file detail endpoint, not at the
// file content itself.
type ModuleItem struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// DecodeFileRecord validates a single raw record into a FileRecord.
func DecodeFileRecord(raw json.RawMessage) (FileRecord, error) {
	var rec FileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return FileRecord{}, errors.Wrap(errors.ErrMalformedResponse, err.Error())
	}
	if rec.ID == 0 {
		return FileRecord{}, errors.Wrap(errors.ErrMalformedResponse, "file record without id")
	}
	return rec, nil
}

// DecodeModule validates a single raw record into a Module.
func DecodeModule(raw json.RawMessage) (Module, error) {
	var mod Module
	if err := json.Unmarshal(raw, &mod); err != nil {
		return Module{}, errors.Wrap(errors.ErrMalformedResponse, err.Error())
	}
	if mod.ID == 0 {
		return Module{}, errors.Wrap(errors.ErrMalformedResponse, "module record without id")
	}
	return mod, nil
}

// DecodeModuleItem validates a single raw record into a ModuleItem.
func DecodeModuleItem(raw json.RawMessage) (ModuleItem, error) {
	var item ModuleItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return ModuleItem{}, errors.Wrap(errors.ErrMalformedResponse, err.Error())
	}
	return item, nil
}
