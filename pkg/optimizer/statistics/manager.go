package statistics

import (
	"fmt"
	"relstore/pkg/concurrency/transaction"
	"relstore/pkg/memory"
	"relstore/pkg/primitives"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TableSource is the slice of the catalog the statistics manager needs.
type TableSource interface {
	memory.TableProvider

	// TableIDs returns the ids of every registered table.
	TableIDs() []primitives.TableID
}

// Manager computes and caches TableStats for every cataloged table. Each
// table is scanned in its own read-only transaction so statistics
// collection never holds long-lived locks across tables.
type Manager struct {
	tables      TableSource
	store       *memory.PageStore
	registry    *transaction.Registry
	costPerPage float64

	mutex sync.RWMutex
	stats map[primitives.TableID]*TableStats
}

// NewManager creates a statistics manager over the given catalog and pool.
func NewManager(tables TableSource, store *memory.PageStore, registry *transaction.Registry) *Manager {
	return &Manager{
		tables:      tables,
		store:       store,
		registry:    registry,
		costPerPage: DefaultCostPerPage,
		stats:       make(map[primitives.TableID]*TableStats),
	}
}

// ComputeAll recomputes statistics for every table, scanning tables in
// parallel. It waits for every table and returns the first failure; a
// failing table does not stop the others, whose statistics are still stored.
func (m *Manager) ComputeAll() error {
	var g errgroup.Group

	for _, tableID := range m.tables.TableIDs() {
		g.Go(func() error {
			return m.ComputeTable(tableID)
		})
	}

	return g.Wait()
}

// ComputeTable recomputes statistics for one table inside a fresh
// transaction, committing it to release the scan's shared locks.
func (m *Manager) ComputeTable(tableID primitives.TableID) error {
	file, err := m.tables.GetDbFile(tableID)
	if err != nil {
		return fmt.Errorf("table %d not found: %w", tableID, err)
	}

	tx := m.registry.Begin()
	stats, err := ComputeTableStats(tx, file, m.store, m.costPerPage)

	completeErr := m.store.TransactionComplete(tx, err == nil)
	m.registry.Remove(tx.ID)

	if err != nil {
		return fmt.Errorf("failed to compute statistics for table %d: %w", tableID, err)
	}
	if completeErr != nil {
		return completeErr
	}

	m.mutex.Lock()
	m.stats[tableID] = stats
	m.mutex.Unlock()
	return nil
}

// Get returns the cached statistics for a table, if computed.
func (m *Manager) Get(tableID primitives.TableID) (*TableStats, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats, exists := m.stats[tableID]
	return stats, exists
}
