package manager

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xflatdb/logger"
	"github.com/zhukovaskychina/xflatdb/server/common"
	"github.com/zhukovaskychina/xflatdb/server/conf"
	"github.com/zhukovaskychina/xflatdb/server/core/docfmt"
	"github.com/zhukovaskychina/xflatdb/util"
)

// Catalog maps a database name to the tables it owns, in creation order.
type Catalog map[string][]string

// Databases lists the database names in sorted order.
func (c Catalog) Databases() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTable reports whether database owns tableName.
func (c Catalog) HasTable(database, tableName string) bool {
	for _, t := range c[database] {
		if t == tableName {
			return true
		}
	}
	return false
}

// StorageManager persists the catalog and one row-sequence file per table
// under the data directory. Every mutation rewrites the whole file.
type StorageManager struct {
	mu          sync.Mutex
	dataDir     string
	catalogPath string

	// decoded table rows keyed by qualified name; nil when disabled
	cache *ristretto.Cache[string, []string]
}

// NewStorageManager prepares the data directory and the table cache.
func NewStorageManager(cfg *conf.Cfg) (*StorageManager, error) {
	if err := util.EnsureDir(cfg.DataDir); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", cfg.DataDir)
	}
	sm := &StorageManager{
		dataDir:     cfg.DataDir,
		catalogPath: cfg.CatalogPath(),
	}
	if cfg.TableCacheSize > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[string, []string]{
			NumCounters: 1e4,
			MaxCost:     cfg.TableCacheSize,
			BufferItems: 64,
			KeyToHash: func(key string) (uint64, uint64) {
				return util.HashCode([]byte(key)), util.HashString(key, 1)
			},
		})
		if err != nil {
			return nil, errors.Wrap(err, "create table cache")
		}
		sm.cache = cache
	}
	return sm, nil
}

// Close releases the table cache.
func (sm *StorageManager) Close() {
	if sm.cache != nil {
		sm.cache.Close()
	}
}

func (sm *StorageManager) tablePath(qualifiedName string) string {
	return filepath.Join(sm.dataDir, qualifiedName+".json")
}

// CreateDatabase registers an empty database and persists the catalog.
func (sm *StorageManager) CreateDatabase(name string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	catalog := sm.loadCatalog()
	if _, ok := catalog[name]; ok {
		return common.NewErr(common.ErrDatabaseExists, name)
	}
	catalog[name] = []string{}
	if err := sm.saveCatalog(catalog); err != nil {
		return err
	}
	logger.Infof("database %s created", name)
	return nil
}

// LoadDatabase returns the catalog. A missing, empty or unreadable catalog
// file yields an empty catalog.
func (sm *StorageManager) LoadDatabase() Catalog {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.loadCatalog()
}

// SaveDatabase rewrites the catalog file.
func (sm *StorageManager) SaveDatabase(catalog Catalog) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.saveCatalog(catalog)
}

// SaveTable rewrites the table file and registers the table under its
// database when it is not listed yet.
func (sm *StorageManager) SaveTable(qualifiedName string, rows []string) error {
	database, tableName, err := SplitQualified(qualifiedName)
	if err != nil {
		return err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	path := sm.tablePath(qualifiedName)
	data := docfmt.EncodeRows(rows)
	if err := util.WriteFileAtomic(path, data); err != nil {
		sm.evict(qualifiedName)
		return common.NewErrWithCause(errors.Wrapf(err, "write %s", path), common.ErrSaveTable, qualifiedName)
	}
	logger.Debugf("saved table %s: %d rows, %s", qualifiedName, len(rows), humanize.Bytes(uint64(len(data))))
	sm.store(qualifiedName, rows)

	catalog := sm.loadCatalog()
	if !catalog.HasTable(database, tableName) {
		catalog[database] = append(catalog[database], tableName)
		if err := sm.saveCatalog(catalog); err != nil {
			return err
		}
	}
	return nil
}

// LoadTableData returns the stored rows of a table, schema row first. An
// absent or unreadable table file yields an empty sequence.
func (sm *StorageManager) LoadTableData(qualifiedName string) []string {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.cache != nil {
		if rows, ok := sm.cache.Get(qualifiedName); ok {
			return copyRows(rows)
		}
	}

	path := sm.tablePath(qualifiedName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("read table %s: %v", qualifiedName, errors.Wrapf(err, "read %s", path))
		}
		return []string{}
	}
	rows, err := docfmt.DecodeRows(data)
	if err != nil {
		logger.Warnf("decode table %s: %v", qualifiedName, err)
		return []string{}
	}
	sm.store(qualifiedName, rows)
	return copyRows(rows)
}

// TableExists reports whether the catalog lists the table.
func (sm *StorageManager) TableExists(qualifiedName string) bool {
	database, tableName, err := SplitQualified(qualifiedName)
	if err != nil {
		return false
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.loadCatalog().HasTable(database, tableName)
}

func (sm *StorageManager) loadCatalog() Catalog {
	data, err := os.ReadFile(sm.catalogPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("read catalog %s: %v", sm.catalogPath, err)
		}
		return Catalog{}
	}
	catalog, err := docfmt.DecodeCatalog(data)
	if err != nil {
		logger.Warnf("decode catalog %s: %v", sm.catalogPath, err)
		return Catalog{}
	}
	return catalog
}

func (sm *StorageManager) saveCatalog(catalog Catalog) error {
	data := docfmt.EncodeCatalog(catalog)
	if err := util.WriteFileAtomic(sm.catalogPath, data); err != nil {
		return common.NewErrWithCause(errors.Wrapf(err, "write %s", sm.catalogPath), common.ErrSaveCatalog)
	}
	logger.Debugf("saved catalog: %d databases, %s", len(catalog), humanize.Bytes(uint64(len(data))))
	return nil
}

func (sm *StorageManager) store(qualifiedName string, rows []string) {
	if sm.cache == nil {
		return
	}
	sm.cache.Del(qualifiedName)
	sm.cache.Set(qualifiedName, copyRows(rows), rowsCost(rows))
	sm.cache.Wait()
}

func (sm *StorageManager) evict(qualifiedName string) {
	if sm.cache != nil {
		sm.cache.Del(qualifiedName)
	}
}

func rowsCost(rows []string) int64 {
	cost := int64(0)
	for _, r := range rows {
		cost += int64(len(r)) + 16
	}
	return cost
}

func copyRows(rows []string) []string {
	out := make([]string, len(rows))
	copy(out, rows)
	return out
}
