// Package registry collects the files discovered for a course into a single
// deduplicated work set, keyed by file ID.
package registry

import "github.com/canvasgrab/canvasgrab/pkg/canvas"

// Registry maps file IDs to the record first discovered for them. Two records
// with the same ID are the same file regardless of discovery path, so later
// duplicates are dropped, never overwritten.
type Registry struct {
	entries map[int64]canvas.FileRecord
	order   []int64
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[int64]canvas.FileRecord)}
}

// Add inserts a record unless its ID is already present. It reports whether
// the record was inserted.
func (r *Registry) Add(rec canvas.FileRecord) bool {
	if _, exists := r.entries[rec.ID]; exists {
		return false
	}
	r.entries[rec.ID] = rec
	r.order = append(r.order, rec.ID)
	return true
}

// Get returns the record for an ID.
func (r *Registry) Get(id int64) (canvas.FileRecord, bool) {
	rec, ok := r.entries[id]
	return rec, ok
}

// Len returns the number of distinct files.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Records returns all records in discovery order.
func (r *Registry) Records() []canvas.FileRecord {
	records := make([]canvas.FileRecord, 0, len(r.order))
	for _, id := range r.order {
		records = append(records, r.entries[id])
	}
	return records
}
