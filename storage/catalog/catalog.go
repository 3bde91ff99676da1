// Package catalog is the minimal table directory every BufferPool needs:
// a table id maps to its backing HeapFile and Schema. Grounded on the
// teacher's storage_engine/catalog.CatalogManager (tableName<->fileID
// bookkeeping), simplified to an in-memory map since schema evolution and
// persistence are out of scope here — a fresh process re-registers its
// tables from known paths on startup the way cmd/siloctl's seed command
// does.
package catalog

import (
	"sync"

	"SiloDB/dberr"
	"SiloDB/storage/heapfile"
	"SiloDB/storage/tuple"
)

// Catalog maps table ids (the hash of a HeapFile's absolute path, per
// heapfile.Open) to the open file and schema backing them.
type Catalog struct {
	mu     sync.RWMutex
	tables map[int]*entry
	byName map[string]int
}

type entry struct {
	name string
	file *heapfile.HeapFile
}

func New() *Catalog {
	return &Catalog{
		tables: make(map[int]*entry),
		byName: make(map[string]int),
	}
}

// AddTable opens (or creates) the heap file at path under the given name
// and schema, registering it in the catalog. Returns the assigned table
// id.
func (c *Catalog) AddTable(name, path string, schema *tuple.Schema) (int, error) {
	hf, err := heapfile.Open(path, schema)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[hf.TableId()] = &entry{name: name, file: hf}
	c.byName[name] = hf.TableId()
	return hf.TableId(), nil
}

// FileForTable implements bufferpool.FileSource.
func (c *Catalog) FileForTable(tableId int) (*heapfile.HeapFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.tables[tableId]
	if !ok {
		return nil, dberr.NewDbError("catalog.FileForTable", "unknown table id")
	}
	return e.file, nil
}

// TableId looks up a table by the name it was registered under.
func (c *Catalog) TableId(name string) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[name]
	if !ok {
		return 0, dberr.NewDbError("catalog.TableId", "unknown table name: "+name)
	}
	return id, nil
}

// Schema returns the schema registered for tableId.
func (c *Catalog) Schema(tableId int) (*tuple.Schema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.tables[tableId]
	if !ok {
		return nil, dberr.NewDbError("catalog.Schema", "unknown table id")
	}
	return e.file.Schema(), nil
}

// Name returns the registered name for tableId.
func (c *Catalog) Name(tableId int) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.tables[tableId]
	if !ok {
		return "", dberr.NewDbError("catalog.Name", "unknown table id")
	}
	return e.name, nil
}

// Close closes every registered table's file handle.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for _, e := range c.tables {
		if err := e.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
