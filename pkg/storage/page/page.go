package page

import (
	"relstore/pkg/primitives"
)

// Page represents a page resident in the buffer pool. Pages may be "dirty",
// indicating they have been modified since last written to disk.
type Page interface {
	// GetID returns the ID of this page
	GetID() *PageDescriptor

	// IsDirty returns the transaction that last dirtied this page, or nil if clean
	IsDirty() *primitives.TransactionID

	// MarkDirty sets the dirty state of this page
	MarkDirty(dirty bool, tid *primitives.TransactionID)

	// GetPageData returns a byte array representing the contents of this
	// page, suitable for writing to disk. Serialization is deterministic:
	// the same logical contents always produce the same bytes.
	GetPageData() []byte

	// GetBeforeImage returns this page as of the last commit point.
	// Used for rollback and UNDO logging.
	GetBeforeImage() Page

	// SetBeforeImage snapshots the current contents as the new baseline.
	// Called when a transaction that wrote this page commits.
	SetBeforeImage()
}
