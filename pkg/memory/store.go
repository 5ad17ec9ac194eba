package memory

import (
	"errors"
	"fmt"
	"relstore/pkg/concurrency/lock"
	"relstore/pkg/concurrency/transaction"
	"relstore/pkg/config"
	"relstore/pkg/log"
	"relstore/pkg/primitives"
	"relstore/pkg/storage/page"
	"relstore/pkg/tuple"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrCacheFull is returned when every cached page is dirty and nothing can
// be evicted without violating the NO-STEAL rule.
var ErrCacheFull = errors.New("buffer pool full: all pages dirty, cannot evict")

// TableProvider resolves table ids to their backing files. The catalog
// implements this; tests may supply something smaller.
type TableProvider interface {
	GetDbFile(tableID primitives.TableID) (page.DbFile, error)
}

// PageStore is the buffer pool: a bounded cache of pages that mediates
// every page read and write. Each access acquires the matching page lock
// (shared for reads, exclusive for writes) before touching the cache, and
// the NO-STEAL/FORCE discipline governs when dirty pages reach disk:
// never by eviction, always at commit.
type PageStore struct {
	tables      TableProvider
	cache       PageCache
	lockManager *lock.LockManager
	recoveryLog log.RecoveryLog
	capacity    int
	mutex       sync.Mutex
}

// NewPageStore creates a buffer pool over the given tables. A capacity of
// zero or less uses config.BufferPages; a nil recovery log disables
// logging via log.NopLog.
func NewPageStore(tables TableProvider, recoveryLog log.RecoveryLog, capacity int) *PageStore {
	if capacity <= 0 {
		capacity = config.BufferPages
	}
	if recoveryLog == nil {
		recoveryLog = log.NopLog{}
	}

	return &PageStore{
		tables:      tables,
		cache:       NewLRUPageCache(capacity),
		lockManager: lock.NewLockManager(),
		recoveryLog: recoveryLog,
		capacity:    capacity,
	}
}

// GetPage returns the requested page, locking it shared for ReadOnly access
// and exclusive for ReadWrite. Subsequent calls within the page's cache
// lifetime return the same live object. On a miss the page is read from its
// owning file, evicting a clean victim first if the cache is full.
//
// May block inside the lock manager and surface its timeout as
// lock.ErrTransactionAborted.
func (p *PageStore) GetPage(tx *transaction.TransactionContext, pid *page.PageDescriptor, perm transaction.Permissions) (page.Page, error) {
	lockType := lock.SharedLock
	if perm == transaction.ReadWrite {
		lockType = lock.ExclusiveLock
	}

	if err := p.lockManager.AcquireLock(tx.ID, pid.Key(), lockType); err != nil {
		return nil, err
	}

	tx.RecordPageAccess(pid.Key(), perm)

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if pg, exists := p.cache.Get(pid.Key()); exists {
		return pg, nil
	}

	if p.cache.Size() >= p.capacity {
		if err := p.evictPage(); err != nil {
			return nil, err
		}
	}

	dbFile, err := p.tables.GetDbFile(pid.GetTableID())
	if err != nil {
		return nil, fmt.Errorf("table with ID %d not found: %w", pid.GetTableID(), err)
	}

	pg, err := dbFile.ReadPage(pid)
	if err != nil {
		return nil, fmt.Errorf("failed to read page from disk: %w", err)
	}

	if err := p.cache.Put(pid.Key(), pg); err != nil {
		return nil, fmt.Errorf("failed to add page to cache: %w", err)
	}

	return pg, nil
}

// evictPage removes the first clean page in LRU order. Dirty pages are
// never eviction victims (NO-STEAL): if everything is dirty the pool is
// genuinely full and the caller's request fails.
// Must be called with the pool mutex held.
func (p *PageStore) evictPage() error {
	for _, pid := range p.cache.GetAll() {
		pg, exists := p.cache.Get(pid)
		if !exists {
			continue
		}

		if pg.IsDirty() != nil {
			continue
		}

		p.cache.Remove(pid)
		return nil
	}

	return ErrCacheFull
}

// InsertTuple adds a tuple to the given table, delegating slot choice to
// the heap file. Every page the file modified is marked dirty with tx's id
// and re-seated in the cache.
func (p *PageStore) InsertTuple(tx *transaction.TransactionContext, tableID primitives.TableID, t *tuple.Tuple) error {
	if err := tx.EnsureBegunInWAL(p.recoveryLog); err != nil {
		return fmt.Errorf("failed to log transaction begin: %w", err)
	}

	dbFile, err := p.tables.GetDbFile(tableID)
	if err != nil {
		return fmt.Errorf("table with ID %d not found: %w", tableID, err)
	}

	modifiedPages, err := dbFile.AddTuple(tx, t, p)
	if err != nil {
		return fmt.Errorf("failed to add tuple: %w", err)
	}

	p.markPagesDirty(tx, modifiedPages)
	return nil
}

// DeleteTuple removes a tuple from its table. The tuple must carry the
// record id assigned when it was inserted or scanned.
func (p *PageStore) DeleteTuple(tx *transaction.TransactionContext, t *tuple.Tuple) error {
	if t == nil || t.RecordID == nil {
		return fmt.Errorf("tuple has no record id")
	}

	if err := tx.EnsureBegunInWAL(p.recoveryLog); err != nil {
		return fmt.Errorf("failed to log transaction begin: %w", err)
	}

	tableID := t.RecordID.PageID.GetTableID()
	dbFile, err := p.tables.GetDbFile(tableID)
	if err != nil {
		return fmt.Errorf("table with ID %d not found: %w", tableID, err)
	}

	modifiedPage, err := dbFile.RemoveTuple(tx, t, p)
	if err != nil {
		return fmt.Errorf("failed to delete tuple: %w", err)
	}

	p.markPagesDirty(tx, []page.Page{modifiedPage})
	return nil
}

func (p *PageStore) markPagesDirty(tx *transaction.TransactionContext, pages []page.Page) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, pg := range pages {
		pg.MarkDirty(true, tx.ID)
		_ = p.cache.Put(pg.GetID().Key(), pg)
		tx.MarkPageDirty(pg.GetID().Key())
	}
}

// FlushAllPages writes every dirty page in the cache to disk, in parallel
// across files. This bypasses transaction boundaries and exists for
// shutdown and tests; normal durability comes from commit.
func (p *PageStore) FlushAllPages() error {
	p.mutex.Lock()
	pids := p.cache.GetAll()
	p.mutex.Unlock()

	var g errgroup.Group
	for _, pid := range pids {
		g.Go(func() error {
			return p.flushPage(pid)
		})
	}

	return g.Wait()
}

// FlushPages writes every page dirtied by the given transaction to disk
// without releasing any locks.
func (p *PageStore) FlushPages(tx *transaction.TransactionContext) error {
	for _, pid := range tx.GetDirtyPages() {
		if err := p.flushPage(pid); err != nil {
			return fmt.Errorf("failed to flush page %v: %w", pid, err)
		}
	}
	return nil
}

// DiscardPage drops a page from the cache without writing it.
func (p *PageStore) DiscardPage(pid primitives.PageKey) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.cache.Remove(pid)
}

// flushPage writes one page to disk if it is dirty. Write-ahead ordering:
// the update record carrying the page's before and after images is logged
// and forced before the data page is written. The dirty flag is cleared
// after a successful write.
func (p *PageStore) flushPage(pid primitives.PageKey) error {
	p.mutex.Lock()
	pg, exists := p.cache.Get(pid)
	p.mutex.Unlock()

	if !exists {
		return nil
	}

	dirtier := pg.IsDirty()
	if dirtier == nil {
		return nil
	}

	dbFile, err := p.tables.GetDbFile(pid.Table)
	if err != nil {
		return fmt.Errorf("table for page %v not found: %w", pid, err)
	}

	beforeImage := pg.GetBeforeImage().GetPageData()
	afterImage := pg.GetPageData()

	if err := p.recoveryLog.LogWrite(dirtier, pid, beforeImage, afterImage); err != nil {
		return fmt.Errorf("failed to log page write: %w", err)
	}
	if err := p.recoveryLog.Force(); err != nil {
		return fmt.Errorf("failed to force log: %w", err)
	}

	if err := dbFile.WritePage(pg); err != nil {
		return fmt.Errorf("failed to write page to disk: %w", err)
	}
	pg.MarkDirty(false, nil)

	return nil
}

// LockManager exposes the pool's lock manager, mainly so drivers and tests
// can inspect lock state.
func (p *PageStore) LockManager() *lock.LockManager {
	return p.lockManager
}

// NumCachedPages returns the number of pages currently in the cache.
func (p *PageStore) NumCachedPages() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.cache.Size()
}

// CachedPage returns the cached page for pid, if present, without
// affecting locks.
func (p *PageStore) CachedPage(pid primitives.PageKey) (page.Page, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.cache.Get(pid)
}

var _ page.Pool = (*PageStore)(nil)
