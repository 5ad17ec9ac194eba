// Package catalog provides the process-wide registry mapping table ids to
// their heap files, schemas, and primary keys.
package catalog

import (
	"fmt"
	"relstore/pkg/primitives"
	"relstore/pkg/storage/page"
	"relstore/pkg/tuple"
	"sync"
)

// TableInfo holds everything the catalog knows about one table.
type TableInfo struct {
	File       page.DbFile
	Name       string
	PrimaryKey string // name of the primary-key column, may be empty
}

// GetID returns the table's unique identifier
func (ti *TableInfo) GetID() primitives.TableID {
	return ti.File.GetID()
}

// Catalog is a thread-safe registry of tables, maintaining bidirectional
// name/id mappings. It implements the table-provider interfaces the buffer
// pool, operators, and statistics manager consume.
type Catalog struct {
	nameToTable map[string]*TableInfo
	idToTable   map[primitives.TableID]*TableInfo
	mutex       sync.RWMutex
}

// NewCatalog creates a new empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		nameToTable: make(map[string]*TableInfo),
		idToTable:   make(map[primitives.TableID]*TableInfo),
	}
}

// AddTable registers a table under the given name. A table with the same
// name or backing file replaces the previous registration.
func (c *Catalog) AddTable(f page.DbFile, name, primaryKey string) error {
	if f == nil {
		return fmt.Errorf("file cannot be nil")
	}
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	info := &TableInfo{
		File:       f,
		Name:       name,
		PrimaryKey: primaryKey,
	}

	if existing, exists := c.nameToTable[name]; exists {
		delete(c.idToTable, existing.GetID())
	}
	if existing, exists := c.idToTable[f.GetID()]; exists {
		delete(c.nameToTable, existing.Name)
	}

	c.nameToTable[name] = info
	c.idToTable[f.GetID()] = info
	return nil
}

// GetTableID retrieves the unique identifier for a table given its name.
func (c *Catalog) GetTableID(name string) (primitives.TableID, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	info, exists := c.nameToTable[name]
	if !exists {
		return 0, fmt.Errorf("table '%s' not found", name)
	}
	return info.GetID(), nil
}

// GetDbFile returns the file backing a table.
func (c *Catalog) GetDbFile(tableID primitives.TableID) (page.DbFile, error) {
	info, err := c.getInfo(tableID)
	if err != nil {
		return nil, err
	}
	return info.File, nil
}

// GetTupleDesc returns the schema of a table.
func (c *Catalog) GetTupleDesc(tableID primitives.TableID) (*tuple.TupleDescription, error) {
	info, err := c.getInfo(tableID)
	if err != nil {
		return nil, err
	}
	return info.File.GetTupleDesc(), nil
}

// GetTableName returns a table's registered name.
func (c *Catalog) GetTableName(tableID primitives.TableID) (string, error) {
	info, err := c.getInfo(tableID)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

// GetPrimaryKey returns the primary-key column name of a table, which may
// be empty.
func (c *Catalog) GetPrimaryKey(tableID primitives.TableID) (string, error) {
	info, err := c.getInfo(tableID)
	if err != nil {
		return "", err
	}
	return info.PrimaryKey, nil
}

func (c *Catalog) getInfo(tableID primitives.TableID) (*TableInfo, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	info, exists := c.idToTable[tableID]
	if !exists {
		return nil, fmt.Errorf("table with ID %d not found", tableID)
	}
	return info, nil
}

// TableIDs returns the ids of every registered table.
func (c *Catalog) TableIDs() []primitives.TableID {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	ids := make([]primitives.TableID, 0, len(c.idToTable))
	for id := range c.idToTable {
		ids = append(ids, id)
	}
	return ids
}

// TableExists checks whether a table with the given name is registered.
func (c *Catalog) TableExists(name string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	_, exists := c.nameToTable[name]
	return exists
}

// RemoveTable removes a table from the catalog and closes its file.
func (c *Catalog) RemoveTable(name string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	info, exists := c.nameToTable[name]
	if !exists {
		return fmt.Errorf("table '%s' not found", name)
	}

	if info.File != nil {
		if err := info.File.Close(); err != nil {
			fmt.Printf("Warning: failed to close file for table '%s': %v\n", name, err)
		}
	}

	delete(c.nameToTable, name)
	delete(c.idToTable, info.GetID())
	return nil
}

// Clear removes all tables and closes their files.
func (c *Catalog) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, info := range c.idToTable {
		if info.File == nil {
			continue
		}
		if err := info.File.Close(); err != nil {
			fmt.Printf("Warning: failed to close file for table '%s': %v\n", info.Name, err)
		}
	}

	clear(c.nameToTable)
	clear(c.idToTable)
}
