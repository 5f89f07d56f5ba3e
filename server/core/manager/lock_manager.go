package manager

import (
	"sort"
	"sync"

	"github.com/zhukovaskychina/xflatdb/logger"
)

// LockManager is a non-blocking per-table shared/exclusive lock table keyed
// by transaction id. A denied request returns false at once; callers decide
// whether to report or retry.
type LockManager struct {
	mu        sync.Mutex
	lockTable map[string]*tableLock

	readGrants  uint64
	writeGrants uint64
	conflicts   uint64
}

// NewLockManager creates an empty lock table.
func NewLockManager() *LockManager {
	return &LockManager{
		lockTable: make(map[string]*tableLock),
	}
}

func (lm *LockManager) record(table string) *tableLock {
	l, ok := lm.lockTable[table]
	if !ok {
		l = &tableLock{readers: make(map[string]struct{})}
		lm.lockTable[table] = l
	}
	return l
}

// TryAcquireRead grants a shared lock unless another transaction writes.
func (lm *LockManager) TryAcquireRead(table, txID string) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	l := lm.record(table)
	if l.writer != "" && l.writer != txID {
		lm.conflicts++
		logger.Debugf("read lock on %s denied to %s: held for write by %s", table, txID, l.writer)
		lm.prune(table, l)
		return false
	}
	l.readers[txID] = struct{}{}
	lm.readGrants++
	logger.Debugf("read lock on %s granted to %s", table, txID)
	return true
}

// TryAcquireWrite grants an exclusive lock when no other transaction reads or
// writes. A sole reader may upgrade.
func (lm *LockManager) TryAcquireWrite(table, txID string) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	l := lm.record(table)
	if (l.writer != "" && l.writer != txID) || !l.onlyReader(txID) {
		lm.conflicts++
		logger.Debugf("write lock on %s denied to %s", table, txID)
		lm.prune(table, l)
		return false
	}
	l.writer = txID
	lm.writeGrants++
	logger.Debugf("write lock on %s granted to %s", table, txID)
	return true
}

// ReleaseRead drops txID from the table's readers.
func (lm *LockManager) ReleaseRead(table, txID string) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.lockTable[table]; ok {
		delete(l.readers, txID)
		lm.prune(table, l)
	}
}

// ReleaseWrite clears the writer if it is txID.
func (lm *LockManager) ReleaseWrite(table, txID string) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.lockTable[table]; ok {
		if l.writer == txID {
			l.writer = ""
		}
		lm.prune(table, l)
	}
}

// ReleaseAll drops every lock held by txID.
func (lm *LockManager) ReleaseAll(txID string) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	for table, l := range lm.lockTable {
		delete(l.readers, txID)
		if l.writer == txID {
			l.writer = ""
		}
		lm.prune(table, l)
	}
}

func (lm *LockManager) prune(table string, l *tableLock) {
	if l.empty() {
		delete(lm.lockTable, table)
	}
}

// Readers lists the transactions holding a read lock on table, sorted.
func (lm *LockManager) Readers(table string) []string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	l, ok := lm.lockTable[table]
	if !ok {
		return nil
	}
	readers := make([]string, 0, len(l.readers))
	for id := range l.readers {
		readers = append(readers, id)
	}
	sort.Strings(readers)
	return readers
}

// Writer returns the write lock holder of table, or "".
func (lm *LockManager) Writer(table string) string {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.lockTable[table]; ok {
		return l.writer
	}
	return ""
}

// Stats summarises the current lock table.
func (lm *LockManager) Stats() LockStats {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	stats := LockStats{
		Tables:        len(lm.lockTable),
		ReadGrants:    lm.readGrants,
		WriteGrants:   lm.writeGrants,
		LockConflicts: lm.conflicts,
	}
	for _, l := range lm.lockTable {
		stats.SharedLocks += len(l.readers)
		if l.writer != "" {
			stats.ExclusiveLocks++
		}
	}
	return stats
}
