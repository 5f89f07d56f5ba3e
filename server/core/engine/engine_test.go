package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xflatdb/server/common"
	"github.com/zhukovaskychina/xflatdb/server/conf"
	"github.com/zhukovaskychina/xflatdb/server/core/manager"
)

type testEnv struct {
	cfg     *conf.Cfg
	storage *manager.StorageManager
	locks   *manager.LockManager
	index   *manager.IndexManager
}

func newTestEnv(t *testing.T, readYourWrites bool) *testEnv {
	t.Helper()
	cfg := conf.NewCfg()
	cfg.DataDir = t.TempDir()
	cfg.ReadYourWrites = readYourWrites
	storage, err := manager.NewStorageManager(cfg)
	require.NoError(t, err)
	t.Cleanup(storage.Close)
	return &testEnv{cfg: cfg, storage: storage, locks: manager.NewLockManager(), index: manager.NewIndexManager()}
}

func (env *testEnv) engine() *QueryEngine {
	return NewQueryEngine(env.cfg, env.storage, env.locks, env.index)
}

func mustExec(t *testing.T, e *QueryEngine, queries ...string) *Result {
	t.Helper()
	var res *Result
	for _, q := range queries {
		res = e.Execute(q)
		require.NoError(t, res.Err, q)
	}
	return res
}

func setupProfile(t *testing.T, e *QueryEngine) {
	t.Helper()
	mustExec(t, e,
		"CREATE DATABASE students;",
		"USE students;",
		"CREATE TABLE Profile(bannerID STRING, gpa FLOAT);",
	)
}

func TestScenarioA_SelectWithNumericCondition(t *testing.T) {
	e := newTestEnv(t, false).engine()
	setupProfile(t, e)
	mustExec(t, e,
		"INSERT INTO Profile VALUES('B1',3.8);",
		"INSERT INTO Profile VALUES('B2',3.9);",
	)

	res := mustExec(t, e, "SELECT * FROM Profile WHERE gpa >= 3.8")
	assert.Equal(t, []string{"'B1',3.8", "'B2',3.9"}, res.Rows)
	assert.Equal(t, "Data in 'Profile':\n'B1',3.8\n'B2',3.9", res.String())
}

func TestScenarioB_RollbackDiscardsInsert(t *testing.T) {
	e := newTestEnv(t, false).engine()
	setupProfile(t, e)
	mustExec(t, e, "INSERT INTO Profile VALUES('B1',3.8)")

	mustExec(t, e, "BEGIN TRANSACTION;")
	res := mustExec(t, e, "INSERT INTO Profile VALUES('B3',3.5);")
	assert.Equal(t, "Queued in transaction: INSERT INTO Profile VALUES('B3',3.5)", res.String())
	mustExec(t, e, "ROLLBACK;")

	res = mustExec(t, e, "SELECT * FROM Profile")
	assert.Equal(t, []string{"'B1',3.8"}, res.Rows)
	assert.False(t, e.Transaction().IsActive())
}

// A reader in another transaction makes the committing writer's entry fail.
func TestScenarioC_ReadLockBlocksCommitWrite(t *testing.T) {
	env := newTestEnv(t, false)
	e := env.engine()
	setupProfile(t, e)

	require.True(t, env.locks.TryAcquireRead("students.Profile", "txn-A"))

	mustExec(t, e, "BEGIN TRANSACTION", "INSERT INTO Profile VALUES('B1',3.8)")
	res := mustExec(t, e, "COMMIT")
	require.Len(t, res.Report.Results, 1)
	assert.Equal(t, common.KindLockConflict, common.KindOf(res.Report.Results[0].Err))
	assert.Contains(t, res.String(), "Error: Could not acquire write lock for table 'students.Profile'.")
	assert.Contains(t, res.String(), "Transaction committed with 1 failed operation(s).")
	assert.False(t, e.Transaction().IsActive())

	// autocommit writes are denied too while the reader holds on
	res = e.Execute("INSERT INTO Profile VALUES('B1',3.8)")
	assert.Equal(t, common.KindLockConflict, common.KindOf(res.Err))

	env.locks.ReleaseRead("students.Profile", "txn-A")
	mustExec(t, e, "BEGIN TRANSACTION", "INSERT INTO Profile VALUES('B1',3.8)")
	res = mustExec(t, e, "COMMIT")
	assert.Equal(t, 0, res.Report.Failed())
	assert.Equal(t, "Committed: INSERT INTO Profile VALUES('B1',3.8) (Data inserted successfully into 'Profile'.)\nTransaction committed successfully.", res.String())

	res = mustExec(t, e, "SELECT * FROM Profile")
	assert.Equal(t, []string{"'B1',3.8"}, res.Rows)
}

func TestScenarioD_DuplicateCreateTableKeepsData(t *testing.T) {
	e := newTestEnv(t, false).engine()
	setupProfile(t, e)
	mustExec(t, e, "INSERT INTO Profile VALUES('B1',3.8)")

	res := e.Execute("CREATE TABLE Profile (id INT)")
	assert.Equal(t, common.ErrTableExists, common.CodeOf(res.Err))
	assert.Equal(t, "Error: Table 'Profile' already exists.", res.String())

	res = mustExec(t, e, "DESCRIBE Profile")
	assert.Equal(t, []string{"SCHEMA: bannerID STRING, gpa FLOAT"}, res.Rows)
	res = mustExec(t, e, "SELECT * FROM Profile")
	assert.Equal(t, []string{"'B1',3.8"}, res.Rows)
}

func TestDescribeReturnsSubmittedColumns(t *testing.T) {
	e := newTestEnv(t, false).engine()
	mustExec(t, e, "CREATE DATABASE shop")

	schemas := []string{
		"a STRING",
		"id INT, name STRING, price FLOAT",
		"z FLOAT, y INT, x STRING, w INT",
	}
	for i, cols := range schemas {
		name := fmt.Sprintf("t%d", i)
		mustExec(t, e, fmt.Sprintf("CREATE TABLE %s (%s)", name, cols))
		res := mustExec(t, e, "DESCRIBE "+name)
		assert.Equal(t, "Table Structure: "+name+"\nSCHEMA: "+cols, res.String())
	}
}

func TestAutocommitInsertsKeepOrder(t *testing.T) {
	e := newTestEnv(t, false).engine()
	mustExec(t, e, "CREATE DATABASE shop", "CREATE TABLE items (id INT, name STRING)")

	var want []string
	for i := 0; i < 20; i++ {
		mustExec(t, e, fmt.Sprintf("INSERT INTO items VALUES (%d, 'item%d')", 20-i, i))
		want = append(want, fmt.Sprintf("%d,'item%d'", 20-i, i))
	}
	for i := 0; i < 3; i++ {
		res := mustExec(t, e, "SELECT * FROM items")
		assert.Equal(t, want, res.Rows)
	}
}

func TestNumericGreaterOrEqualIncludesEqual(t *testing.T) {
	e := newTestEnv(t, false).engine()
	mustExec(t, e, "CREATE DATABASE shop", "CREATE TABLE items (id INT, price FLOAT)")
	mustExec(t, e,
		"INSERT INTO items VALUES (1, 9.5)",
		"INSERT INTO items VALUES (2, 10)",
		"INSERT INTO items VALUES (3, 10.00)",
		"INSERT INTO items VALUES (4, 100)",
	)

	res := mustExec(t, e, "SELECT id FROM items WHERE price >= 10")
	assert.Equal(t, []string{"2", "3", "4"}, res.Rows)

	res = mustExec(t, e, "SELECT * FROM items WHERE price < 1")
	assert.Empty(t, res.Rows)
	assert.Equal(t, "Data in 'items':\nNo records found matching the condition.", res.String())
}

func TestTransactionReadsSeeCommittedStateOnly(t *testing.T) {
	e := newTestEnv(t, false).engine()
	setupProfile(t, e)

	mustExec(t, e, "BEGIN TRANSACTION", "INSERT INTO Profile VALUES('B1',3.8)")
	res := mustExec(t, e, "SELECT * FROM Profile")
	assert.Empty(t, res.Rows)
	assert.Len(t, e.Transaction().Log(), 1)

	mustExec(t, e, "COMMIT")
	res = mustExec(t, e, "SELECT * FROM Profile")
	assert.Equal(t, []string{"'B1',3.8"}, res.Rows)
}

func TestTransactionReadYourWrites(t *testing.T) {
	e := newTestEnv(t, true).engine()
	setupProfile(t, e)
	mustExec(t, e, "INSERT INTO Profile VALUES('B1',3.8)")

	mustExec(t, e,
		"BEGIN",
		"INSERT INTO Profile VALUES('B2',3.9)",
		"UPDATE Profile SET gpa = 4.0 WHERE bannerID = 'B1'",
	)
	res := mustExec(t, e, "SELECT * FROM Profile")
	assert.Equal(t, []string{"'B1',4.0", "'B2',3.9"}, res.Rows)

	mustExec(t, e, "ROLLBACK")
	res = mustExec(t, e, "SELECT * FROM Profile")
	assert.Equal(t, []string{"'B1',3.8"}, res.Rows)
}

func TestBufferedWritesAreValidated(t *testing.T) {
	e := newTestEnv(t, false).engine()
	setupProfile(t, e)

	mustExec(t, e, "BEGIN")
	res := e.Execute("INSERT INTO Profile VALUES('B1')")
	assert.Equal(t, common.ErrColumnCountMismatch, common.CodeOf(res.Err))
	res = e.Execute("DELETE FROM Missing")
	assert.Equal(t, common.ErrNoSuchTable, common.CodeOf(res.Err))
	assert.Empty(t, e.Transaction().Log())

	res = e.Execute("BEGIN TRANSACTION")
	assert.Equal(t, "Error: A transaction is already in progress.", res.String())
	mustExec(t, e, "ROLLBACK")

	res = e.Execute("COMMIT")
	assert.Equal(t, "Error: No active transaction to commit.", res.String())
	res = e.Execute("ROLLBACK")
	assert.Equal(t, "Error: No active transaction to rollback.", res.String())
}

func TestUpdateDeleteAutocommit(t *testing.T) {
	env := newTestEnv(t, false)
	e := env.engine()
	mustExec(t, e, "CREATE DATABASE shop", "CREATE TABLE items (id INT, name STRING)")
	mustExec(t, e,
		"INSERT INTO items VALUES (1, 'a')",
		"INSERT INTO items VALUES (2, 'b')",
		"INSERT INTO items VALUES (3, 'c')",
	)

	res := mustExec(t, e, "UPDATE items SET name = 'bb' WHERE id = 2")
	assert.Equal(t, "1 row(s) updated in 'items'.", res.String())
	res = mustExec(t, e, "DELETE FROM items WHERE id != 2")
	assert.Equal(t, "2 row(s) deleted from 'items'.", res.String())

	res = mustExec(t, e, "SELECT name FROM items")
	assert.Equal(t, []string{"'bb'"}, res.Rows)

	row, ok := env.index.GetRecordByID("shop.items", 2)
	assert.True(t, ok)
	assert.Equal(t, "2,'bb'", row)
	_, ok = env.index.GetRecordByID("shop.items", 1)
	assert.False(t, ok)
}

func TestSemanticErrors(t *testing.T) {
	e := newTestEnv(t, false).engine()

	cases := []struct {
		query string
		code  common.ErrCode
	}{
		{"SELECT * FROM Profile", common.ErrNoDatabaseSelected},
		{"SHOW TABLES", common.ErrNoDatabaseSelected},
		{"USE nowhere", common.ErrNoSuchDatabase},
		{"DROP DATABASE x", common.ErrUnsupportedCommand},
		{"", common.ErrEmptyQuery},
	}
	for _, tc := range cases {
		res := e.Execute(tc.query)
		assert.Equal(t, tc.code, common.CodeOf(res.Err), tc.query)
	}

	setupProfile(t, e)
	cases = []struct {
		query string
		code  common.ErrCode
	}{
		{"CREATE DATABASE students", common.ErrDatabaseExists},
		{"DESCRIBE Grades", common.ErrNoSuchTable},
		{"INSERT INTO Profile VALUES ('B1')", common.ErrColumnCountMismatch},
		{"INSERT INTO Profile VALUES ('B1', high)", common.ErrNotNumeric},
		{"SELECT age FROM Profile", common.ErrNoSuchColumn},
		{"SELECT * FROM Profile WHERE age > 1", common.ErrNoSuchColumn},
	}
	for _, tc := range cases {
		res := e.Execute(tc.query)
		assert.Equal(t, tc.code, common.CodeOf(res.Err), tc.query)
		assert.False(t, res.OK())
	}
	res := e.Execute("DESCRIBE Grades")
	assert.Equal(t, "Error: Table 'Grades' not found in database 'students'.", res.String())
}

func TestShowDatabasesAndTables(t *testing.T) {
	e := newTestEnv(t, false).engine()
	assert.Equal(t, "No databases found.", mustExec(t, e, "SHOW DATABASES").String())

	mustExec(t, e, "CREATE DATABASE zoo", "CREATE DATABASE app")
	assert.Equal(t, "app", e.ActiveDatabase())
	assert.Equal(t, "Available Databases:\n- app\n- zoo", mustExec(t, e, "SHOW DATABASES").String())

	assert.Equal(t, "No tables found in database 'app'.", mustExec(t, e, "SHOW TABLES").String())
	mustExec(t, e, "CREATE TABLE users (id INT)", "CREATE TABLE orders (id INT)")
	assert.Equal(t, "Tables in 'app':\n- users\n- orders", mustExec(t, e, "SHOW TABLES").String())
}

func TestEnginesSharingLockManager(t *testing.T) {
	env := newTestEnv(t, false)
	first := env.engine()
	second := env.engine()
	setupProfile(t, first)
	mustExec(t, second, "USE students")

	mustExec(t, first, "BEGIN", "INSERT INTO Profile VALUES('B1',3.8)")
	// the second session still sees committed state and can write
	mustExec(t, second, "INSERT INTO Profile VALUES('B2',3.9)")
	mustExec(t, first, "COMMIT")

	res := mustExec(t, second, "SELECT * FROM Profile")
	assert.Equal(t, []string{"'B2',3.9", "'B1',3.8"}, res.Rows)
	assert.Equal(t, 0, env.locks.Stats().Tables)
}

func TestSelectInsideTransactionIsNotBuffered(t *testing.T) {
	e := newTestEnv(t, false).engine()
	setupProfile(t, e)

	mustExec(t, e, "BEGIN", "SELECT * FROM Profile")
	assert.Empty(t, e.Transaction().Log())
	mustExec(t, e, "COMMIT")
}

func TestEnginesDoNotShareSeparateLockManagers(t *testing.T) {
	env := newTestEnv(t, false)
	e := env.engine()
	setupProfile(t, e)

	other := manager.NewLockManager()
	require.True(t, other.TryAcquireWrite("students.Profile", "elsewhere"))
	mustExec(t, e, "INSERT INTO Profile VALUES('B1',3.8)")
}

func TestWriteFailureIsReportedAndSessionContinues(t *testing.T) {
	env := newTestEnv(t, false)
	e := env.engine()
	setupProfile(t, e)
	mustExec(t, e, "INSERT INTO Profile VALUES('B1',3.8)")

	path := filepath.Join(env.cfg.DataDir, "students.Profile.json")
	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0755))

	res := e.Execute("INSERT INTO Profile VALUES('B2',3.9)")
	require.Error(t, res.Err)
	assert.Equal(t, common.KindPersistence, common.KindOf(res.Err))
	assert.Contains(t, res.String(), "Error: Could not save table 'students.Profile'.")
	assert.Equal(t, 0, env.locks.Stats().Tables)

	require.NoError(t, os.RemoveAll(path))
	require.NoError(t, os.WriteFile(path, saved, 0644))

	res = mustExec(t, e, "SELECT * FROM Profile")
	assert.Equal(t, []string{"'B1',3.8"}, res.Rows)
	mustExec(t, e, "INSERT INTO Profile VALUES('B3',3.5)")
	res = mustExec(t, e, "SELECT * FROM Profile")
	assert.Equal(t, []string{"'B1',3.8", "'B3',3.5"}, res.Rows)
}
