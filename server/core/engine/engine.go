// Package engine executes one statement line at a time against the
// managers: DDL and autocommit writes go straight to storage under a
// transient table lock, writes inside a transaction are buffered until
// COMMIT.
package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zhukovaskychina/xflatdb/logger"
	"github.com/zhukovaskychina/xflatdb/server/common"
	"github.com/zhukovaskychina/xflatdb/server/conf"
	"github.com/zhukovaskychina/xflatdb/server/core/manager"
	"github.com/zhukovaskychina/xflatdb/server/core/sqlparser"
	"github.com/zhukovaskychina/xflatdb/server/core/table"
)

// QueryEngine is one session over shared managers. Engines that share a
// LockManager coordinate through it; each owns its transaction.
type QueryEngine struct {
	storage *manager.StorageManager
	index   *manager.IndexManager
	locks   *manager.LockManager
	tx      *manager.TransactionManager
	ops     *manager.TableOps

	activeDatabase string
	autocommitID   string
	readYourWrites bool
}

func NewQueryEngine(cfg *conf.Cfg, storage *manager.StorageManager, locks *manager.LockManager, index *manager.IndexManager) *QueryEngine {
	return &QueryEngine{
		storage:        storage,
		index:          index,
		locks:          locks,
		tx:             manager.NewTransactionManager(locks, storage, index),
		ops:            manager.NewTableOps(storage, index),
		autocommitID:   "autocommit-" + uuid.NewString(),
		readYourWrites: cfg.ReadYourWrites,
	}
}

// ActiveDatabase is the database selected by USE or CREATE DATABASE.
func (e *QueryEngine) ActiveDatabase() string {
	return e.activeDatabase
}

// Transaction exposes the session transaction.
func (e *QueryEngine) Transaction() *manager.TransactionManager {
	return e.tx
}

// Execute parses and runs one statement. Errors never escape as panics;
// they are carried in the Result.
func (e *QueryEngine) Execute(query string) *Result {
	stmt, err := sqlparser.Parse(query)
	if err != nil {
		return errResult(err)
	}

	var res *Result
	switch s := stmt.(type) {
	case *sqlparser.ShowDatabasesStmt:
		res = e.showDatabases()
	case *sqlparser.ShowTablesStmt:
		res = e.showTables()
	case *sqlparser.CreateDatabaseStmt:
		res = e.createDatabase(s)
	case *sqlparser.UseStmt:
		res = e.useDatabase(s)
	case *sqlparser.CreateTableStmt:
		res = e.createTable(s)
	case *sqlparser.DescribeStmt:
		res = e.describe(s)
	case *sqlparser.InsertStmt, *sqlparser.UpdateStmt, *sqlparser.DeleteStmt:
		res = e.write(stmt, sqlparser.Normalize(query))
	case *sqlparser.SelectStmt:
		res = e.selectRows(s)
	case *sqlparser.BeginStmt:
		res = e.begin()
	case *sqlparser.CommitStmt:
		res = e.commit()
	case *sqlparser.RollbackStmt:
		res = e.rollback()
	default:
		res = errResult(common.NewErr(common.ErrUnsupportedCommand))
	}
	if res.Err != nil {
		logger.Debugf("statement %q failed: %v", query, res.Err)
	}
	return res
}

// lockOwner is the id under which transient locks are taken.
func (e *QueryEngine) lockOwner() string {
	if id := e.tx.ID(); id != "" {
		return id
	}
	return e.autocommitID
}

func (e *QueryEngine) requireDatabase() error {
	if e.activeDatabase == "" {
		return common.NewErr(common.ErrNoDatabaseSelected)
	}
	return nil
}

func (e *QueryEngine) withReadLock(qualified string, fn func() *Result) *Result {
	owner := e.lockOwner()
	if !e.locks.TryAcquireRead(qualified, owner) {
		return errResult(common.NewErr(common.ErrReadLockDenied, qualified))
	}
	defer e.locks.ReleaseRead(qualified, owner)
	return fn()
}

func (e *QueryEngine) withWriteLock(qualified string, fn func() *Result) *Result {
	owner := e.lockOwner()
	if !e.locks.TryAcquireWrite(qualified, owner) {
		return errResult(common.NewErr(common.ErrWriteLockDenied, qualified))
	}
	defer e.locks.ReleaseWrite(qualified, owner)
	return fn()
}

func (e *QueryEngine) showDatabases() *Result {
	names := e.storage.LoadDatabase().Databases()
	if len(names) == 0 {
		return msgResult("No databases found.")
	}
	return &Result{Header: "Available Databases:", Rows: bullets(names)}
}

func (e *QueryEngine) showTables() *Result {
	if err := e.requireDatabase(); err != nil {
		return errResult(err)
	}
	catalog := e.storage.LoadDatabase()
	tables, ok := catalog[e.activeDatabase]
	if !ok {
		return errResult(common.NewErr(common.ErrNoSuchDatabase, e.activeDatabase))
	}
	if len(tables) == 0 {
		return msgResult(fmt.Sprintf("No tables found in database '%s'.", e.activeDatabase))
	}
	return &Result{Header: fmt.Sprintf("Tables in '%s':", e.activeDatabase), Rows: bullets(tables)}
}

func (e *QueryEngine) createDatabase(s *sqlparser.CreateDatabaseStmt) *Result {
	if err := e.storage.CreateDatabase(s.Name); err != nil {
		return errResult(err)
	}
	e.activeDatabase = s.Name
	return msgResult(fmt.Sprintf("Database '%s' created successfully.", s.Name))
}

func (e *QueryEngine) useDatabase(s *sqlparser.UseStmt) *Result {
	if _, ok := e.storage.LoadDatabase()[s.Name]; !ok {
		return errResult(common.NewErr(common.ErrNoSuchDatabase, s.Name))
	}
	e.activeDatabase = s.Name
	return msgResult(fmt.Sprintf("Database '%s' is now in use.", s.Name))
}

func (e *QueryEngine) createTable(s *sqlparser.CreateTableStmt) *Result {
	if err := e.requireDatabase(); err != nil {
		return errResult(err)
	}
	qualified := manager.Qualify(e.activeDatabase, s.TableName)
	return e.withWriteLock(qualified, func() *Result {
		catalog := e.storage.LoadDatabase()
		if _, ok := catalog[e.activeDatabase]; !ok {
			return errResult(common.NewErr(common.ErrNoSuchDatabase, e.activeDatabase))
		}
		if catalog.HasTable(e.activeDatabase, s.TableName) {
			return errResult(common.NewErr(common.ErrTableExists, s.TableName))
		}
		if err := e.storage.SaveTable(qualified, table.New(s.Columns).Rows()); err != nil {
			return errResult(err)
		}
		e.index.DropIndex(qualified)
		return msgResult(fmt.Sprintf("Table '%s' created successfully in database '%s'.", s.TableName, e.activeDatabase))
	})
}

func (e *QueryEngine) describe(s *sqlparser.DescribeStmt) *Result {
	if err := e.requireDatabase(); err != nil {
		return errResult(err)
	}
	qualified := manager.Qualify(e.activeDatabase, s.TableName)
	return e.withReadLock(qualified, func() *Result {
		t, err := table.FromRows(s.TableName, e.activeDatabase, e.storage.LoadTableData(qualified))
		if err != nil {
			return errResult(err)
		}
		return &Result{
			Header: fmt.Sprintf("Table Structure: %s", s.TableName),
			Rows:   []string{table.FormatSchema(t.Schema)},
		}
	})
}

func (e *QueryEngine) write(stmt sqlparser.Statement, statement string) *Result {
	if err := e.requireDatabase(); err != nil {
		return errResult(err)
	}
	ts := stmt.(sqlparser.TableStatement)
	qualified := manager.Qualify(e.activeDatabase, ts.Table())

	if e.tx.IsActive() {
		if err := e.validateBuffered(stmt, ts.Table()); err != nil {
			return errResult(err)
		}
		if err := e.tx.Enqueue(e.activeDatabase, statement); err != nil {
			return errResult(err)
		}
		return msgResult("Queued in transaction: " + statement)
	}

	return e.withWriteLock(qualified, func() *Result {
		out, err := e.ops.Apply(e.activeDatabase, stmt)
		if err != nil {
			return errResult(err)
		}
		return msgResult(out.Message)
	})
}

// validateBuffered checks what can be known before commit: the table
// exists and an INSERT carries one value per column.
func (e *QueryEngine) validateBuffered(stmt sqlparser.Statement, tableName string) error {
	rows := e.storage.LoadTableData(manager.Qualify(e.activeDatabase, tableName))
	t, err := table.FromRows(tableName, e.activeDatabase, rows)
	if err != nil {
		return err
	}
	if ins, ok := stmt.(*sqlparser.InsertStmt); ok {
		return t.Schema.ValidateValues(ins.Values)
	}
	return nil
}

func (e *QueryEngine) selectRows(s *sqlparser.SelectStmt) *Result {
	if err := e.requireDatabase(); err != nil {
		return errResult(err)
	}
	qualified := manager.Qualify(e.activeDatabase, s.TableName)
	return e.withReadLock(qualified, func() *Result {
		var (
			out *manager.OpResult
			err error
		)
		if e.readYourWrites && e.tx.IsActive() {
			var t *table.Table
			t, err = table.FromRows(s.TableName, e.activeDatabase, e.tx.Pending(qualified))
			if err == nil {
				out, err = manager.SelectFrom(t, s)
			}
		} else {
			out, err = e.ops.Apply(e.activeDatabase, s)
		}
		if err != nil {
			return errResult(err)
		}
		return &Result{Header: out.Header, Rows: out.Rows, Message: out.Message}
	})
}

func (e *QueryEngine) begin() *Result {
	if err := e.tx.Begin(); err != nil {
		return errResult(err)
	}
	return msgResult("Transaction started.")
}

func (e *QueryEngine) commit() *Result {
	report, err := e.tx.Commit()
	if err != nil {
		return errResult(err)
	}
	res := &Result{Report: report, Message: "Transaction committed successfully."}
	if n := report.Failed(); n > 0 {
		res.Message = fmt.Sprintf("Transaction committed with %d failed operation(s).", n)
	}
	return res
}

func (e *QueryEngine) rollback() *Result {
	if err := e.tx.Rollback(); err != nil {
		return errResult(err)
	}
	return msgResult("Transaction rolled back.")
}

func bullets(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = "- " + item
	}
	return out
}
