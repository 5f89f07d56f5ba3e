package manager

import (
	"sync"

	"github.com/google/uuid"

	"github.com/zhukovaskychina/xflatdb/logger"
	"github.com/zhukovaskychina/xflatdb/server/common"
	"github.com/zhukovaskychina/xflatdb/server/core/sqlparser"
	"github.com/zhukovaskychina/xflatdb/server/core/table"
)

// TxState is the state of the session transaction.
type TxState uint8

const (
	TxStateInactive TxState = iota
	TxStateActive
)

func (s TxState) String() string {
	if s == TxStateActive {
		return "ACTIVE"
	}
	return "INACTIVE"
}

// LogEntry is one buffered statement and the database it was issued in.
type LogEntry struct {
	Database  string
	Statement string
}

// EntryResult is the replay outcome of one log entry.
type EntryResult struct {
	Entry  LogEntry
	Result *OpResult
	Err    error
}

// CommitReport lists every replayed entry in log order.
type CommitReport struct {
	TxID    string
	Results []EntryResult
}

// Failed counts the entries that were not applied.
func (r *CommitReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// TransactionManager buffers statements while a transaction is open and
// replays them on commit, locking each table only for the duration of one
// entry. Commit is not atomic: a failed entry is reported and skipped.
type TransactionManager struct {
	mu    sync.Mutex
	id    string
	state TxState
	log   []LogEntry

	locks *LockManager
	ops   *TableOps
}

func NewTransactionManager(locks *LockManager, storage *StorageManager, index *IndexManager) *TransactionManager {
	return &TransactionManager{
		locks: locks,
		ops:   NewTableOps(storage, index),
	}
}

// Begin opens a transaction with a fresh id.
func (tm *TransactionManager) Begin() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.state == TxStateActive {
		return common.NewErr(common.ErrTxInProgress)
	}
	tm.id = uuid.NewString()
	tm.state = TxStateActive
	tm.log = nil
	logger.Debugf("transaction %s started", tm.id)
	return nil
}

// Enqueue appends a statement to the log of the open transaction.
func (tm *TransactionManager) Enqueue(database, statement string) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.state != TxStateActive {
		return common.NewErr(common.ErrNoActiveTx, "buffer")
	}
	tm.log = append(tm.log, LogEntry{Database: database, Statement: statement})
	return nil
}

// Commit replays the log in order and resets to INACTIVE whatever the
// per-entry outcome.
func (tm *TransactionManager) Commit() (*CommitReport, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.state != TxStateActive {
		return nil, common.NewErr(common.ErrNoActiveTx, "commit")
	}
	report := &CommitReport{TxID: tm.id, Results: make([]EntryResult, 0, len(tm.log))}
	for _, entry := range tm.log {
		res, err := tm.replay(entry)
		if err != nil {
			logger.Warnf("transaction %s: %q failed: %v", tm.id, entry.Statement, err)
		}
		report.Results = append(report.Results, EntryResult{Entry: entry, Result: res, Err: err})
	}
	logger.Infof("transaction %s committed: %d entries, %d failed", tm.id, len(report.Results), report.Failed())
	tm.reset()
	return report, nil
}

// Rollback discards the log. Nothing buffered has reached storage.
func (tm *TransactionManager) Rollback() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.state != TxStateActive {
		return common.NewErr(common.ErrNoActiveTx, "rollback")
	}
	logger.Infof("transaction %s rolled back: %d entries discarded", tm.id, len(tm.log))
	tm.reset()
	return nil
}

func (tm *TransactionManager) reset() {
	tm.locks.ReleaseAll(tm.id)
	tm.id = ""
	tm.state = TxStateInactive
	tm.log = nil
}

func (tm *TransactionManager) replay(entry LogEntry) (*OpResult, error) {
	stmt, err := sqlparser.Parse(entry.Statement)
	if err != nil {
		return nil, err
	}
	ts, ok := stmt.(sqlparser.TableStatement)
	if !ok {
		return nil, common.NewErr(common.ErrUnsupportedCommand)
	}
	qualified := Qualify(entry.Database, ts.Table())

	if sqlparser.IsWrite(stmt) {
		if !tm.locks.TryAcquireWrite(qualified, tm.id) {
			return nil, common.NewErr(common.ErrWriteLockDenied, qualified)
		}
		defer tm.locks.ReleaseWrite(qualified, tm.id)
	} else {
		if !tm.locks.TryAcquireRead(qualified, tm.id) {
			return nil, common.NewErr(common.ErrReadLockDenied, qualified)
		}
		defer tm.locks.ReleaseRead(qualified, tm.id)
	}
	return tm.ops.Apply(entry.Database, stmt)
}

// Pending returns the committed rows of a table with this transaction's
// buffered writes applied in memory. Entries that fail to apply are skipped.
func (tm *TransactionManager) Pending(qualifiedTable string) []string {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	database, tableName, err := SplitQualified(qualifiedTable)
	if err != nil {
		return []string{}
	}
	rows := tm.ops.storage.LoadTableData(qualifiedTable)
	t, err := table.FromRows(tableName, database, rows)
	if err != nil {
		return rows
	}
	for _, entry := range tm.log {
		if entry.Database != database {
			continue
		}
		stmt, err := sqlparser.Parse(entry.Statement)
		if err != nil {
			continue
		}
		switch s := stmt.(type) {
		case *sqlparser.InsertStmt:
			if s.TableName == tableName {
				_, _ = t.Insert(s.Values)
			}
		case *sqlparser.UpdateStmt:
			if s.TableName == tableName {
				_, _ = t.Update(s.Assignments, s.Where)
			}
		case *sqlparser.DeleteStmt:
			if s.TableName == tableName {
				_, _ = t.Delete(s.Where)
			}
		}
	}
	return t.Rows()
}

func (tm *TransactionManager) IsActive() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.state == TxStateActive
}

func (tm *TransactionManager) State() TxState {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.state
}

// ID is the open transaction's id, or "" when inactive.
func (tm *TransactionManager) ID() string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.id
}

// Log returns a copy of the buffered entries.
func (tm *TransactionManager) Log() []LogEntry {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	out := make([]LogEntry, len(tm.log))
	copy(out, tm.log)
	return out
}
