package sqlparser

import "strings"

// ColumnType is one of the three declared column types.
type ColumnType string

const (
	TypeString ColumnType = "STRING"
	TypeInt    ColumnType = "INT"
	TypeFloat  ColumnType = "FLOAT"
)

// ParseColumnType accepts a type name in any case.
func ParseColumnType(s string) (ColumnType, bool) {
	switch ColumnType(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeString:
		return TypeString, true
	case TypeInt:
		return TypeInt, true
	case TypeFloat:
		return TypeFloat, true
	}
	return "", false
}

// IsNumeric reports whether values of t compare numerically.
func (t ColumnType) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

// ColumnDef is one (name, type) pair of a schema.
type ColumnDef struct {
	Name string
	Type ColumnType
}

// Statement is the common interface for all parsed statements.
type Statement interface {
	stmtNode()
}

// TableStatement is implemented by statements scoped to one table of the
// active database.
type TableStatement interface {
	Statement
	Table() string
}

type ShowDatabasesStmt struct{}

type ShowTablesStmt struct{}

type CreateDatabaseStmt struct {
	Name string
}

type CreateTableStmt struct {
	TableName string
	Columns   []ColumnDef
}

type UseStmt struct {
	Name string
}

type DescribeStmt struct {
	TableName string
}

type InsertStmt struct {
	TableName string
	Values    []string
}

// SelectStmt selects Columns ("*" when empty) from TableName.
type SelectStmt struct {
	TableName string
	Columns   []string
	Where     *Condition
}

// Assignment is one "col = value" of an UPDATE.
type Assignment struct {
	Column string
	Value  string
}

type UpdateStmt struct {
	TableName   string
	Assignments []Assignment
	Where       *Condition
}

type DeleteStmt struct {
	TableName string
	Where     *Condition
}

type BeginStmt struct{}

type CommitStmt struct{}

type RollbackStmt struct{}

func (*ShowDatabasesStmt) stmtNode()  {}
func (*ShowTablesStmt) stmtNode()     {}
func (*CreateDatabaseStmt) stmtNode() {}
func (*CreateTableStmt) stmtNode()    {}
func (*UseStmt) stmtNode()            {}
func (*DescribeStmt) stmtNode()       {}
func (*InsertStmt) stmtNode()         {}
func (*SelectStmt) stmtNode()         {}
func (*UpdateStmt) stmtNode()         {}
func (*DeleteStmt) stmtNode()         {}
func (*BeginStmt) stmtNode()          {}
func (*CommitStmt) stmtNode()         {}
func (*RollbackStmt) stmtNode()       {}

func (s *DescribeStmt) Table() string { return s.TableName }
func (s *InsertStmt) Table() string   { return s.TableName }
func (s *SelectStmt) Table() string   { return s.TableName }
func (s *UpdateStmt) Table() string   { return s.TableName }
func (s *DeleteStmt) Table() string   { return s.TableName }

// IsWrite reports whether stmt modifies table rows.
func IsWrite(stmt Statement) bool {
	switch stmt.(type) {
	case *InsertStmt, *UpdateStmt, *DeleteStmt:
		return true
	}
	return false
}
