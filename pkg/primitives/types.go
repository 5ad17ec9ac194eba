package primitives

// HashCode represents a hash value computed for fast comparisons or lookups.
type HashCode uint64

// TableID uniquely identifies a table, derived from hashing the absolute
// path of its backing file so it survives process restarts.
type TableID uint64

// PageNumber represents a page number within a table file.
type PageNumber uint64

// SlotID represents a slot number within a heap page.
type SlotID uint16

// LSN (Log Sequence Number) uniquely identifies each log record.
// It is monotonically increasing and represents the byte offset in the log file.
type LSN uint64

// PageKey is the comparable identity of a page, usable as a map key.
// Every PageID implementation reduces to one of these.
type PageKey struct {
	Table TableID
	Page  PageNumber
}

// PageID represents a unique identifier for a page.
type PageID interface {
	// GetTableID returns the table this page belongs to
	GetTableID() TableID

	// PageNo returns the page number within the table
	PageNo() PageNumber

	// Key returns the comparable identity used as a map key
	Key() PageKey

	// Serialize returns a byte representation of this page ID
	Serialize() []byte

	// Equals checks if two page IDs are equal
	Equals(other PageID) bool

	// String returns a string representation
	String() string

	// HashCode returns a hash code for this page ID
	HashCode() HashCode
}
