// Package config holds the process-wide storage tunables. Each value is
// fixed for the lifetime of a database instance: changing PageSize or
// StringLen after files have been written makes existing files unreadable.
package config

import "time"

var (
	// PageSize is the size of each disk-resident page in bytes.
	PageSize = 4096

	// BufferPages is the default buffer pool capacity in pages.
	BufferPages = 50

	// StringLen is the fixed byte length of STRING fields. A serialized
	// string field occupies 4 bytes of length prefix plus StringLen bytes
	// of zero-padded UTF-8.
	StringLen = 128

	// DeadlockTimeout bounds how long a lock request may wait. Each acquire
	// randomizes its own timeout in [0, DeadlockTimeout] so conflicting
	// transactions pick different victims.
	DeadlockTimeout = 5000 * time.Millisecond
)
