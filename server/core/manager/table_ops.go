package manager

import (
	"fmt"

	"github.com/zhukovaskychina/xflatdb/server/common"
	"github.com/zhukovaskychina/xflatdb/server/core/sqlparser"
	"github.com/zhukovaskychina/xflatdb/server/core/table"
)

// OpResult is the outcome of one statement applied to a table.
type OpResult struct {
	Message string
	Rows    []string
	Header  string
}

// TableOps applies parsed row statements to storage and keeps the index in
// step. It takes no locks; callers hold the table lock.
type TableOps struct {
	storage *StorageManager
	index   *IndexManager
}

func NewTableOps(storage *StorageManager, index *IndexManager) *TableOps {
	return &TableOps{storage: storage, index: index}
}

// Load decodes a table, rebuilding its index on first touch.
func (ops *TableOps) Load(database, tableName string) (*table.Table, error) {
	qualified := Qualify(database, tableName)
	rows := ops.storage.LoadTableData(qualified)
	t, err := table.FromRows(tableName, database, rows)
	if err != nil {
		return nil, err
	}
	if !ops.index.IsTableIndexed(qualified) {
		ops.index.RebuildIndex(qualified, rows)
	}
	return t, nil
}

// Apply runs an INSERT, UPDATE, DELETE or SELECT against database.
func (ops *TableOps) Apply(database string, stmt sqlparser.Statement) (*OpResult, error) {
	switch s := stmt.(type) {
	case *sqlparser.InsertStmt:
		return ops.insert(database, s)
	case *sqlparser.UpdateStmt:
		return ops.update(database, s)
	case *sqlparser.DeleteStmt:
		return ops.delete(database, s)
	case *sqlparser.SelectStmt:
		t, err := ops.Load(database, s.TableName)
		if err != nil {
			return nil, err
		}
		return SelectFrom(t, s)
	}
	return nil, common.NewErr(common.ErrUnsupportedCommand)
}

// SelectFrom evaluates a SELECT over an already decoded table.
func SelectFrom(t *table.Table, s *sqlparser.SelectStmt) (*OpResult, error) {
	rows, err := t.Select(s.Columns, s.Where)
	if err != nil {
		return nil, err
	}
	res := &OpResult{Rows: rows, Header: fmt.Sprintf("Data in '%s':", s.TableName)}
	if len(rows) == 0 && s.Where != nil {
		res.Message = "No records found matching the condition."
	}
	return res, nil
}

func (ops *TableOps) insert(database string, s *sqlparser.InsertStmt) (*OpResult, error) {
	t, err := ops.Load(database, s.TableName)
	if err != nil {
		return nil, err
	}
	row, err := t.Insert(s.Values)
	if err != nil {
		return nil, err
	}
	qualified := Qualify(database, s.TableName)
	if err := ops.storage.SaveTable(qualified, t.Rows()); err != nil {
		return nil, err
	}
	if key, ok := table.RowKey(row); ok {
		ops.index.AddToIndex(qualified, key, row)
	}
	return &OpResult{Message: fmt.Sprintf("Data inserted successfully into '%s'.", s.TableName)}, nil
}

func (ops *TableOps) update(database string, s *sqlparser.UpdateStmt) (*OpResult, error) {
	t, err := ops.Load(database, s.TableName)
	if err != nil {
		return nil, err
	}
	changes, err := t.Update(s.Assignments, s.Where)
	if err != nil {
		return nil, err
	}
	qualified := Qualify(database, s.TableName)
	if len(changes) > 0 {
		if err := ops.storage.SaveTable(qualified, t.Rows()); err != nil {
			return nil, err
		}
		ops.syncIndex(qualified, t.Rows(), changes)
	}
	return &OpResult{Message: fmt.Sprintf("%d row(s) updated in '%s'.", len(changes), s.TableName)}, nil
}

func (ops *TableOps) delete(database string, s *sqlparser.DeleteStmt) (*OpResult, error) {
	t, err := ops.Load(database, s.TableName)
	if err != nil {
		return nil, err
	}
	removed, err := t.Delete(s.Where)
	if err != nil {
		return nil, err
	}
	qualified := Qualify(database, s.TableName)
	if len(removed) > 0 {
		if err := ops.storage.SaveTable(qualified, t.Rows()); err != nil {
			return nil, err
		}
		changes := make([]table.Change, len(removed))
		for i, row := range removed {
			changes[i] = table.Change{Old: row}
		}
		ops.syncIndex(qualified, t.Rows(), changes)
	}
	return &OpResult{Message: fmt.Sprintf("%d row(s) deleted from '%s'.", len(removed), s.TableName)}, nil
}

// syncIndex applies row changes to the index of qualified. A touched key that
// another stored row also carries makes it rebuild the index from rows.
func (ops *TableOps) syncIndex(qualified string, rows []string, changes []table.Change) {
	if touchesSharedKey(rows, changes) {
		ops.index.RebuildIndex(qualified, rows)
		return
	}
	for _, c := range changes {
		oldKey, oldOK := table.RowKey(c.Old)
		newKey, newOK := table.RowKey(c.New)
		switch {
		case oldOK && newOK && oldKey == newKey:
			ops.index.UpdateIndex(qualified, newKey, c.New)
		default:
			if oldOK {
				ops.index.DeleteFromIndex(qualified, oldKey)
			}
			if newOK {
				ops.index.AddToIndex(qualified, newKey, c.New)
			}
		}
	}
}

func touchesSharedKey(rows []string, changes []table.Change) bool {
	counts := make(map[int64]int)
	for i := 1; i < len(rows); i++ {
		if key, ok := table.RowKey(rows[i]); ok {
			counts[key]++
		}
	}
	for _, c := range changes {
		oldKey, oldOK := table.RowKey(c.Old)
		newKey, newOK := table.RowKey(c.New)
		if oldOK && (!newOK || oldKey != newKey) && counts[oldKey] > 0 {
			return true
		}
		if newOK && counts[newKey] > 1 {
			return true
		}
	}
	return false
}
