// Package database wires the engine together: one Database value owns the
// catalog, the buffer pool, the lock manager inside it, the write-ahead
// log, and the transaction registry. There is no process-wide singleton;
// every test or embedding application constructs its own Database.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"relstore/pkg/catalog"
	"relstore/pkg/concurrency/transaction"
	"relstore/pkg/config"
	"relstore/pkg/log"
	"relstore/pkg/memory"
	"relstore/pkg/optimizer/statistics"
	"relstore/pkg/primitives"
	"relstore/pkg/storage/heap"
	"relstore/pkg/tuple"
)

const walFileName = "wal.log"

// Database is the explicit context handle for one database instance.
type Database struct {
	catalog  *catalog.Catalog
	store    *memory.PageStore
	wal      *log.WAL
	registry *transaction.Registry
	stats    *statistics.Manager
	dataDir  string
}

// NewDatabase creates (or reopens) a database rooted at dataDir.
func NewDatabase(dataDir string) (*Database, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	wal, err := log.NewWAL(filepath.Join(dataDir, walFileName), 8192)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize WAL: %w", err)
	}

	cat := catalog.NewCatalog()
	store := memory.NewPageStore(cat, wal, config.BufferPages)
	registry := transaction.NewRegistry()

	return &Database{
		catalog:  cat,
		store:    store,
		wal:      wal,
		registry: registry,
		stats:    statistics.NewManager(cat, store, registry),
		dataDir:  dataDir,
	}, nil
}

// Catalog returns the database's table registry.
func (db *Database) Catalog() *catalog.Catalog {
	return db.catalog
}

// PageStore returns the database's buffer pool.
func (db *Database) PageStore() *memory.PageStore {
	return db.store
}

// Statistics returns the database's statistics manager.
func (db *Database) Statistics() *statistics.Manager {
	return db.stats
}

// Begin starts a new transaction.
func (db *Database) Begin() *transaction.TransactionContext {
	return db.registry.Begin()
}

// Commit makes all of tx's changes durable and releases its locks.
func (db *Database) Commit(tx *transaction.TransactionContext) error {
	defer db.registry.Remove(tx.ID)
	return db.store.CommitTransaction(tx)
}

// Abort discards all of tx's changes and releases its locks. Aborting an
// already-completed transaction is a no-op, so drivers may call it
// unconditionally after a lock timeout.
func (db *Database) Abort(tx *transaction.TransactionContext) error {
	defer db.registry.Remove(tx.ID)
	return db.store.AbortTransaction(tx)
}

// CreateTable creates a heap file named after the table under the data
// directory and registers it.
func (db *Database) CreateTable(name string, td *tuple.TupleDescription, primaryKey string) (primitives.TableID, error) {
	if name == "" {
		return 0, fmt.Errorf("table name cannot be empty")
	}

	path := filepath.Join(db.dataDir, name+".dat")
	hf, err := heap.NewHeapFile(primitives.Filepath(path), td)
	if err != nil {
		return 0, fmt.Errorf("failed to create heap file for table %s: %w", name, err)
	}

	if err := db.catalog.AddTable(hf, name, primaryKey); err != nil {
		hf.Close()
		return 0, err
	}

	return hf.GetID(), nil
}

// LoadSchema registers every table listed in a schema description file.
func (db *Database) LoadSchema(schemaPath string) ([]string, error) {
	return catalog.LoadSchemaFile(db.catalog, schemaPath)
}

// Close flushes all dirty pages, closes the log, and closes every table
// file. The database must not be used afterwards.
func (db *Database) Close() error {
	if err := db.store.FlushAllPages(); err != nil {
		return fmt.Errorf("failed to flush pages during shutdown: %w", err)
	}

	if err := db.wal.Close(); err != nil {
		return fmt.Errorf("failed to close WAL: %w", err)
	}

	db.catalog.Clear()
	return nil
}
