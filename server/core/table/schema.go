// Package table holds the row model shared by the query engine and the
// transaction manager: the schema row codec, value splitting, WHERE
// evaluation and the in-memory mutations applied before a table is saved.
package table

import (
	"strings"

	"github.com/zhukovaskychina/xflatdb/server/common"
	"github.com/zhukovaskychina/xflatdb/server/core/sqlparser"
)

// SchemaPrefix starts row 0 of every table file.
const SchemaPrefix = "SCHEMA:"

// Schema is the ordered column list of a table.
type Schema []sqlparser.ColumnDef

// FormatSchema renders the schema row, e.g. "SCHEMA: id INT, name STRING".
func FormatSchema(cols []sqlparser.ColumnDef) string {
	return SchemaPrefix + " " + Schema(cols).String()
}

// ParseSchema reads a schema row. Rows written with the column list still
// wrapped in parentheses are accepted.
func ParseSchema(row string) (Schema, error) {
	body := strings.TrimSpace(row)
	if idx := strings.Index(body, ":"); idx >= 0 && strings.EqualFold(body[:idx+1], SchemaPrefix) {
		body = body[idx+1:]
	} else {
		return nil, common.NewErr(common.ErrSyntax, "schema row", SchemaPrefix+" col type, ...")
	}
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, "(")
	body = strings.TrimSuffix(body, ")")

	var schema Schema
	for _, def := range strings.Split(body, ",") {
		parts := strings.Fields(def)
		if len(parts) == 0 {
			continue
		}
		if len(parts) < 2 {
			return nil, common.NewErr(common.ErrSyntax, "schema row", SchemaPrefix+" col type, ...")
		}
		typ, ok := sqlparser.ParseColumnType(parts[1])
		if !ok {
			return nil, common.NewErr(common.ErrUnknownColumnType, parts[1], parts[0])
		}
		schema = append(schema, sqlparser.ColumnDef{Name: parts[0], Type: typ})
	}
	if len(schema) == 0 {
		return nil, common.NewErr(common.ErrSyntax, "schema row", SchemaPrefix+" col type, ...")
	}
	return schema, nil
}

// String renders "col TYPE, col TYPE" without the prefix.
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.Name + " " + string(c.Type)
	}
	return strings.Join(parts, ", ")
}

// Index returns the position of column name, preferring an exact match over
// a case-insensitive one, or -1.
func (s Schema) Index(name string) int {
	fold := -1
	for i, c := range s {
		if c.Name == name {
			return i
		}
		if fold < 0 && strings.EqualFold(c.Name, name) {
			fold = i
		}
	}
	return fold
}

// Names lists the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// ValidateValues checks a full row of values against the schema.
func (s Schema) ValidateValues(values []string) error {
	if len(values) != len(s) {
		return common.NewErr(common.ErrColumnCountMismatch, len(s), len(values))
	}
	for i, v := range values {
		if err := s.validateValue(i, v); err != nil {
			return err
		}
	}
	return nil
}

func (s Schema) validateValue(i int, v string) error {
	col := s[i]
	if !col.Type.IsNumeric() {
		return nil
	}
	if !IsNumeric(col.Type, v) {
		return common.NewErr(common.ErrNotNumeric, v, col.Type, col.Name)
	}
	return nil
}
