package manager

import (
	"sync"

	"github.com/google/btree"

	"github.com/zhukovaskychina/xflatdb/logger"
	"github.com/zhukovaskychina/xflatdb/server/core/table"
)

const indexDegree = 32

type indexEntry struct {
	key int64
	row string
}

func lessEntry(a, b indexEntry) bool {
	return a.key < b.key
}

// IndexManager keeps, per table, an ordered map from the integer value of
// column 0 to the raw row text. Scans never consult it.
type IndexManager struct {
	mu      sync.Mutex
	indexes map[string]*btree.BTreeG[indexEntry]
}

func NewIndexManager() *IndexManager {
	return &IndexManager{
		indexes: make(map[string]*btree.BTreeG[indexEntry]),
	}
}

// AddToIndex inserts or replaces the row stored under key.
func (im *IndexManager) AddToIndex(tableName string, key int64, row string) {
	im.mu.Lock()
	defer im.mu.Unlock()

	tree, ok := im.indexes[tableName]
	if !ok {
		tree = btree.NewG[indexEntry](indexDegree, lessEntry)
		im.indexes[tableName] = tree
	}
	tree.ReplaceOrInsert(indexEntry{key: key, row: row})
}

// UpdateIndex replaces the row under key only if the key is present.
func (im *IndexManager) UpdateIndex(tableName string, key int64, row string) bool {
	im.mu.Lock()
	defer im.mu.Unlock()

	tree, ok := im.indexes[tableName]
	if !ok || !tree.Has(indexEntry{key: key}) {
		return false
	}
	tree.ReplaceOrInsert(indexEntry{key: key, row: row})
	return true
}

func (im *IndexManager) DeleteFromIndex(tableName string, key int64) bool {
	im.mu.Lock()
	defer im.mu.Unlock()

	tree, ok := im.indexes[tableName]
	if !ok {
		return false
	}
	_, removed := tree.Delete(indexEntry{key: key})
	return removed
}

func (im *IndexManager) GetRecordByID(tableName string, key int64) (string, bool) {
	im.mu.Lock()
	defer im.mu.Unlock()

	tree, ok := im.indexes[tableName]
	if !ok {
		return "", false
	}
	e, found := tree.Get(indexEntry{key: key})
	return e.row, found
}

// GetAllRecords returns the indexed rows in key order.
func (im *IndexManager) GetAllRecords(tableName string) []string {
	im.mu.Lock()
	defer im.mu.Unlock()

	tree, ok := im.indexes[tableName]
	if !ok {
		return []string{}
	}
	rows := make([]string, 0, tree.Len())
	tree.Ascend(func(e indexEntry) bool {
		rows = append(rows, e.row)
		return true
	})
	return rows
}

// IsTableIndexed reports whether tableName has a non-empty index.
func (im *IndexManager) IsTableIndexed(tableName string) bool {
	im.mu.Lock()
	defer im.mu.Unlock()

	tree, ok := im.indexes[tableName]
	return ok && tree.Len() > 0
}

// RebuildIndex replaces the index from a stored row sequence, skipping the
// schema row and rows whose column 0 is not an integer.
func (im *IndexManager) RebuildIndex(tableName string, rows []string) int {
	tree := btree.NewG[indexEntry](indexDegree, lessEntry)
	for i := 1; i < len(rows); i++ {
		if key, ok := table.RowKey(rows[i]); ok {
			tree.ReplaceOrInsert(indexEntry{key: key, row: rows[i]})
		}
	}

	im.mu.Lock()
	im.indexes[tableName] = tree
	im.mu.Unlock()

	logger.Debugf("rebuilt index for %s with %d entries", tableName, tree.Len())
	return tree.Len()
}

// DropIndex forgets the index of tableName.
func (im *IndexManager) DropIndex(tableName string) {
	im.mu.Lock()
	defer im.mu.Unlock()
	delete(im.indexes, tableName)
}
