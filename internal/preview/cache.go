// Package preview holds the process-wide mesh store behind node value
// passing and the browser preview API. Entries are keyed by short random
// ids and live for the whole process: the host passes ids between node
// executions and the preview widget uses them to request extra analyses,
// so nothing here ever evicts.
//
// Stored meshes are immutable. Concurrent HTTP handlers and node
// executions read the same pointer without locking, so anything that
// wants to change a cached mesh must clone it, modify the clone, and
// publish it with Put or Replace.
package preview

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/geomnodes/geomnodes/internal/geom"
)

// Entry is a snapshot of one cached mesh with its presentation state.
type Entry struct {
	Mesh       *geom.Mesh
	Filename   string
	FieldNames []string
}

type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Entry)}
}

// NewID returns a fresh 12-hex identifier.
func NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:6])
}

// Put stores a mesh under a fresh id and returns the id.
func (c *Cache) Put(m *geom.Mesh) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := NewID()
	for _, exists := c.entries[id]; exists; _, exists = c.entries[id] {
		id = NewID()
	}
	c.entries[id] = &Entry{
		Mesh:       m,
		FieldNames: m.FieldNames(),
	}
	return id
}

// Get returns the mesh for an id.
func (c *Cache) Get(id string) (*geom.Mesh, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return entry.Mesh, true
}

// Entry returns a snapshot of the cached entry for an id.
func (c *Cache) Entry(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	if !ok {
		return Entry{}, false
	}
	snapshot := Entry{
		Mesh:       entry.Mesh,
		Filename:   entry.Filename,
		FieldNames: append([]string(nil), entry.FieldNames...),
	}
	return snapshot, true
}

// SetFilename records the last-exported preview file for an id.
func (c *Cache) SetFilename(id, filename string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok {
		return fmt.Errorf("unknown mesh id: %s", id)
	}
	entry.Filename = filename
	return nil
}

// Replace swaps the mesh stored under an id and re-reads its field
// names. Analyses attach fields to a clone and publish it here, so
// readers of the old pointer keep a consistent mesh while the name
// list accumulates for later snapshots.
func (c *Cache) Replace(id string, m *geom.Mesh) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok {
		return fmt.Errorf("unknown mesh id: %s", id)
	}
	entry.Mesh = m
	entry.FieldNames = m.FieldNames()
	return nil
}

// Len reports how many meshes are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
