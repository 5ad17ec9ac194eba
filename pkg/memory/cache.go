// Package memory provides the buffer pool: a bounded in-memory cache of
// pages mediating every page read and write, together with the
// transactional commit/abort machinery over those pages.
package memory

import (
	"fmt"
	"relstore/pkg/primitives"
	"relstore/pkg/storage/page"
	"sync"
)

// PageCache is the storage-only piece of the buffer pool: it holds pages in
// memory and knows nothing about transactions, locks, or durability.
type PageCache interface {
	// Get retrieves a page from the cache by its page key.
	Get(pid primitives.PageKey) (page.Page, bool)

	// Put stores a page in the cache. If the page already exists it is
	// updated; if the cache is full an error is returned.
	Put(pid primitives.PageKey, p page.Page) error

	// Remove removes a page from the cache. Does nothing if absent.
	Remove(pid primitives.PageKey)

	// Size returns the current number of pages in the cache.
	Size() int

	// Clear removes all pages from the cache.
	Clear()

	// GetAll returns all cached page keys, least recently used first.
	GetAll() []primitives.PageKey
}

// node represents a single node in the doubly linked list
type node struct {
	pid  primitives.PageKey
	page page.Page
	prev *node
	next *node
}

// LRUPageCache is a doubly-linked-list-plus-map cache with O(1) operations.
// When full, Put of a new page fails rather than evicting: victim selection
// belongs to the PageStore, which must honor the NO-STEAL rule.
type LRUPageCache struct {
	maxSize int
	cache   map[primitives.PageKey]*node
	head    *node // most recently used end
	tail    *node // least recently used end
	mutex   sync.RWMutex
}

// NewLRUPageCache creates a new LRU page cache with the specified capacity.
func NewLRUPageCache(maxSize int) *LRUPageCache {
	head := &node{}
	tail := &node{}
	head.next = tail
	tail.prev = head

	return &LRUPageCache{
		maxSize: maxSize,
		cache:   make(map[primitives.PageKey]*node),
		head:    head,
		tail:    tail,
	}
}

func (c *LRUPageCache) addToFront(n *node) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *LRUPageCache) removeNode(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *LRUPageCache) moveToFront(n *node) {
	c.removeNode(n)
	c.addToFront(n)
}

// Get retrieves a page and marks it as recently used.
func (c *LRUPageCache) Get(pid primitives.PageKey) (page.Page, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, exists := c.cache[pid]; exists {
		c.moveToFront(n)
		return n.page, true
	}
	return nil, false
}

// Put stores a page, updating in place if present. A full cache rejects
// new pages with an error.
func (c *LRUPageCache) Put(pid primitives.PageKey, p page.Page) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, exists := c.cache[pid]; exists {
		n.page = p
		c.moveToFront(n)
		return nil
	}

	if len(c.cache) >= c.maxSize {
		return fmt.Errorf("cache full, cannot add page")
	}

	newNode := &node{
		pid:  pid,
		page: p,
	}
	c.cache[pid] = newNode
	c.addToFront(newNode)
	return nil
}

// Remove removes a page from the cache if present.
func (c *LRUPageCache) Remove(pid primitives.PageKey) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, exists := c.cache[pid]; exists {
		delete(c.cache, pid)
		c.removeNode(n)
	}
}

// Size returns the current number of cached pages.
func (c *LRUPageCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// Clear resets the cache to empty.
func (c *LRUPageCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[primitives.PageKey]*node)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// GetAll returns the cached page keys in LRU order (least recently used
// first), which is the order eviction considers victims in.
func (c *LRUPageCache) GetAll() []primitives.PageKey {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	pids := make([]primitives.PageKey, 0, len(c.cache))
	current := c.tail.prev
	for current != c.head {
		pids = append(pids, current.pid)
		current = current.prev
	}

	return pids
}
