package sqlparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xflatdb/server/common"
)

func TestParseSimpleStatements(t *testing.T) {
	cases := []struct {
		query string
		want  Statement
	}{
		{"SHOW DATABASES", &ShowDatabasesStmt{}},
		{"show tables;", &ShowTablesStmt{}},
		{"CREATE DATABASE students", &CreateDatabaseStmt{Name: "students"}},
		{"use students ;", &UseStmt{Name: "students"}},
		{"DESCRIBE Profile", &DescribeStmt{TableName: "Profile"}},
		{"desc Profile", &DescribeStmt{TableName: "Profile"}},
		{"BEGIN", &BeginStmt{}},
		{"BEGIN TRANSACTION", &BeginStmt{}},
		{"start transaction", &BeginStmt{}},
		{"COMMIT", &CommitStmt{}},
		{"ROLLBACK TRANSACTION;", &RollbackStmt{}},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			stmt, err := Parse(tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.want, stmt)
		})
	}
}

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE Profile(bannerID STRING, gpa float, age INT);")
	require.NoError(t, err)

	ct, ok := stmt.(*CreateTableStmt)
	require.True(t, ok)
	assert.Equal(t, "Profile", ct.TableName)
	assert.Equal(t, []ColumnDef{
		{Name: "bannerID", Type: TypeString},
		{Name: "gpa", Type: TypeFloat},
		{Name: "age", Type: TypeInt},
	}, ct.Columns)
}

func TestParseCreateTableErrors(t *testing.T) {
	_, err := Parse("CREATE TABLE Profile (id BLOB)")
	assert.Equal(t, common.ErrUnknownColumnType, common.CodeOf(err))

	_, err = Parse("CREATE TABLE Profile (id INT, ID STRING)")
	assert.Equal(t, common.ErrDuplicateColumn, common.CodeOf(err))

	_, err = Parse("CREATE TABLE Profile id INT")
	assert.Equal(t, common.ErrSyntax, common.CodeOf(err))

	_, err = Parse("CREATE TABLE a.b (id INT)")
	assert.Equal(t, common.ErrInvalidName, common.CodeOf(err))
	assert.Equal(t, common.KindParse, common.KindOf(err))
}

func TestParseInsert(t *testing.T) {
	stmt, err := Parse("insert into Profile values('B1', 3.8)")
	require.NoError(t, err)
	assert.Equal(t, &InsertStmt{TableName: "Profile", Values: []string{"'B1'", "3.8"}}, stmt)

	_, err = Parse("INSERT INTO Profile ('B1')")
	assert.Equal(t, common.ErrSyntax, common.CodeOf(err))

	_, err = Parse("INSERT INTO Profile VALUES ()")
	assert.Equal(t, common.ErrSyntax, common.CodeOf(err))
}

func TestParseSelect(t *testing.T) {
	stmt, err := Parse("SELECT * FROM Profile WHERE gpa >= 3.8")
	require.NoError(t, err)
	sel := stmt.(*SelectStmt)
	assert.Equal(t, "Profile", sel.TableName)
	assert.Empty(t, sel.Columns)
	assert.Equal(t, &Condition{Column: "gpa", Op: OpGE, Value: "3.8"}, sel.Where)

	stmt, err = Parse("select bannerID, gpa from Profile")
	require.NoError(t, err)
	sel = stmt.(*SelectStmt)
	assert.Equal(t, []string{"bannerID", "gpa"}, sel.Columns)
	assert.Nil(t, sel.Where)

	_, err = Parse("SELECT FROM Profile")
	assert.Equal(t, common.ErrSyntax, common.CodeOf(err))

	_, err = Parse("SELECT * Profile")
	assert.Equal(t, common.ErrSyntax, common.CodeOf(err))
}

func TestParseUpdateAndDelete(t *testing.T) {
	stmt, err := Parse("UPDATE Profile SET gpa = 4.0, bannerID='B9' WHERE bannerID = 'B1'")
	require.NoError(t, err)
	assert.Equal(t, &UpdateStmt{
		TableName: "Profile",
		Assignments: []Assignment{
			{Column: "gpa", Value: "4.0"},
			{Column: "bannerID", Value: "'B9'"},
		},
		Where: &Condition{Column: "bannerID", Op: OpEQ, Value: "'B1'"},
	}, stmt)

	stmt, err = Parse("DELETE FROM Profile WHERE gpa < 3")
	require.NoError(t, err)
	assert.Equal(t, &DeleteStmt{TableName: "Profile", Where: &Condition{Column: "gpa", Op: OpLT, Value: "3"}}, stmt)

	stmt, err = Parse("DELETE FROM Profile")
	require.NoError(t, err)
	assert.Nil(t, stmt.(*DeleteStmt).Where)

	_, err = Parse("UPDATE Profile gpa = 1")
	assert.Equal(t, common.ErrSyntax, common.CodeOf(err))
}

func TestParseConditionLeftmostOperator(t *testing.T) {
	cases := []struct {
		text string
		want Condition
	}{
		{"gpa >= 3.8", Condition{"gpa", OpGE, "3.8"}},
		{"gpa<=3", Condition{"gpa", OpLE, "3"}},
		{"name != 'x'", Condition{"name", OpNE, "'x'"}},
		{"gpa > 3", Condition{"gpa", OpGT, "3"}},
		// "=" starts before ">=" here, so the value keeps the later text.
		{"note = 'a>=b'", Condition{"note", OpEQ, "'a>=b'"}},
		{"note < 'x=y'", Condition{"note", OpLT, "'x=y'"}},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			cond, err := ParseCondition(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.want, *cond)
		})
	}

	for _, bad := range []string{"gpa", "= 3", "gpa >=", "a b = 1"} {
		_, err := ParseCondition(bad)
		assert.Equal(t, common.ErrInvalidCondition, common.CodeOf(err), bad)
	}
}

func TestParseRejects(t *testing.T) {
	_, err := Parse("   ;")
	assert.Equal(t, common.ErrEmptyQuery, common.CodeOf(err))

	_, err = Parse("DROP TABLE Profile")
	assert.Equal(t, common.ErrUnsupportedCommand, common.CodeOf(err))
	assert.Equal(t, common.KindParse, common.KindOf(err))

	_, err = Parse("SHOW COLUMNS")
	assert.Equal(t, common.ErrSyntax, common.CodeOf(err))

	_, err = Parse("BEGIN WORK")
	assert.Equal(t, common.ErrSyntax, common.CodeOf(err))

	_, err = Parse("USE bad.name")
	assert.Equal(t, common.ErrInvalidName, common.CodeOf(err))
}

func TestIsWrite(t *testing.T) {
	assert.True(t, IsWrite(&InsertStmt{}))
	assert.True(t, IsWrite(&UpdateStmt{}))
	assert.True(t, IsWrite(&DeleteStmt{}))
	assert.False(t, IsWrite(&SelectStmt{}))
	assert.False(t, IsWrite(&CreateTableStmt{}))
}
