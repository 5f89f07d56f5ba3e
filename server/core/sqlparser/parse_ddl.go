package sqlparser

import (
	"strings"

	"github.com/zhukovaskychina/xflatdb/server/common"
)

// parseCreate handles:
//
//	CREATE DATABASE name
//	CREATE TABLE name (col type, ...)
func parseCreate(q string, tokens []string) (Statement, error) {
	if len(tokens) < 3 {
		return nil, common.NewErr(common.ErrSyntax, "CREATE", "CREATE DATABASE name' or 'CREATE TABLE name (col type, ...)")
	}
	switch strings.ToUpper(tokens[1]) {
	case "DATABASE":
		if len(tokens) != 3 {
			return nil, common.NewErr(common.ErrSyntax, "CREATE DATABASE", "CREATE DATABASE database_name")
		}
		name, err := checkName(tokens[2])
		if err != nil {
			return nil, err
		}
		return &CreateDatabaseStmt{Name: name}, nil
	case "TABLE":
		return parseCreateTable(q)
	}
	return nil, common.NewErr(common.ErrSyntax, "CREATE", "CREATE DATABASE name' or 'CREATE TABLE name (col type, ...)")
}

func parseCreateTable(q string) (Statement, error) {
	const usage = "CREATE TABLE name (col type, ...)"
	pos := indexKeyword(q, "TABLE", 0)
	rest := strings.TrimSpace(q[pos+len("TABLE"):])

	open := strings.Index(rest, "(")
	closing := strings.LastIndex(rest, ")")
	if open <= 0 || closing < open {
		return nil, common.NewErr(common.ErrSyntax, "CREATE TABLE", usage)
	}
	if strings.TrimSpace(rest[closing+1:]) != "" {
		return nil, common.NewErr(common.ErrSyntax, "CREATE TABLE", usage)
	}
	name, err := checkName(strings.TrimSpace(rest[:open]))
	if err != nil {
		return nil, err
	}

	defs := splitList(rest[open+1 : closing])
	if len(defs) == 0 {
		return nil, common.NewErr(common.ErrSyntax, "CREATE TABLE", usage)
	}
	cols := make([]ColumnDef, 0, len(defs))
	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		parts := strings.Fields(def)
		if len(parts) != 2 {
			return nil, common.NewErr(common.ErrSyntax, "column definition", "col type")
		}
		colName, err := checkName(parts[0])
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(colName)
		if _, dup := seen[key]; dup {
			return nil, common.NewErr(common.ErrDuplicateColumn, colName)
		}
		seen[key] = struct{}{}
		typ, ok := ParseColumnType(parts[1])
		if !ok {
			return nil, common.NewErr(common.ErrUnknownColumnType, parts[1], colName)
		}
		cols = append(cols, ColumnDef{Name: colName, Type: typ})
	}
	return &CreateTableStmt{TableName: name, Columns: cols}, nil
}
