package primitives

import (
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// Filepath is the path to a database file. Hashing it yields the table's
// stable identity, so two handles on the same file agree on the table id.
type Filepath string

// Canonical resolves the path to its absolute form so that different
// spellings of the same file hash to the same TableID.
func (f Filepath) Canonical() Filepath {
	abs, err := filepath.Abs(string(f))
	if err != nil {
		return f
	}
	return Filepath(abs)
}

// Hash derives the stable table identifier from the canonicalized path.
func (f Filepath) Hash() TableID {
	return TableID(xxhash.Sum64String(string(f.Canonical())))
}
