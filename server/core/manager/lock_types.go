package manager

// LockStats is a point-in-time view of the lock table.
type LockStats struct {
	Tables         int    // tables with at least one holder
	SharedLocks    int    // reader entries across all tables
	ExclusiveLocks int    // tables with a writer
	ReadGrants     uint64 // granted TryAcquireRead calls
	WriteGrants    uint64 // granted TryAcquireWrite calls
	LockConflicts  uint64 // denied acquisitions
}

// tableLock is the per-table record: a reader set and at most one writer.
type tableLock struct {
	readers map[string]struct{}
	writer  string
}

func (l *tableLock) empty() bool {
	return len(l.readers) == 0 && l.writer == ""
}

func (l *tableLock) onlyReader(txID string) bool {
	if len(l.readers) == 0 {
		return true
	}
	if len(l.readers) > 1 {
		return false
	}
	_, ok := l.readers[txID]
	return ok
}
