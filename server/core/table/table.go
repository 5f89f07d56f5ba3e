package table

import (
	"github.com/zhukovaskychina/xflatdb/server/common"
	"github.com/zhukovaskychina/xflatdb/server/core/sqlparser"
)

// Table is a decoded row sequence: the schema plus the value rows after it.
type Table struct {
	Schema  Schema
	Records []string
}

// Change is one row rewritten by Update.
type Change struct {
	Old string
	New string
}

// New returns an empty table with the given columns.
func New(cols []sqlparser.ColumnDef) *Table {
	return &Table{Schema: Schema(cols)}
}

// FromRows decodes a stored row sequence. An empty sequence means the table
// does not exist.
func FromRows(name, database string, rows []string) (*Table, error) {
	if len(rows) == 0 {
		return nil, common.NewErr(common.ErrNoSuchTable, name, database)
	}
	schema, err := ParseSchema(rows[0])
	if err != nil {
		return nil, err
	}
	records := make([]string, len(rows)-1)
	copy(records, rows[1:])
	return &Table{Schema: schema, Records: records}, nil
}

// Rows encodes the table back into its stored row sequence.
func (t *Table) Rows() []string {
	rows := make([]string, 0, len(t.Records)+1)
	rows = append(rows, FormatSchema(t.Schema))
	return append(rows, t.Records...)
}

// Insert validates values and appends them as a new row.
func (t *Table) Insert(values []string) (string, error) {
	if err := t.Schema.ValidateValues(values); err != nil {
		return "", err
	}
	row := JoinValues(values)
	t.Records = append(t.Records, row)
	return row, nil
}

// Select returns the rows matching where, projected onto cols. No columns
// selects the raw row text.
func (t *Table) Select(cols []string, where *sqlparser.Condition) ([]string, error) {
	pred, err := t.Schema.Bind(where)
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(cols))
	for i, c := range cols {
		if idx[i] = t.Schema.Index(c); idx[i] < 0 {
			return nil, common.NewErr(common.ErrNoSuchColumn, c)
		}
	}

	out := make([]string, 0, len(t.Records))
	for _, row := range t.Records {
		if !pred.Match(row) {
			continue
		}
		if len(cols) == 0 {
			out = append(out, row)
			continue
		}
		values := SplitValues(row)
		picked := make([]string, len(idx))
		for i, j := range idx {
			if j < len(values) {
				picked[i] = values[j]
			}
		}
		out = append(out, JoinValues(picked))
	}
	return out, nil
}

// Update rewrites the matching rows with the assignments applied.
func (t *Table) Update(assignments []sqlparser.Assignment, where *sqlparser.Condition) ([]Change, error) {
	pred, err := t.Schema.Bind(where)
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(assignments))
	for i, a := range assignments {
		if idx[i] = t.Schema.Index(a.Column); idx[i] < 0 {
			return nil, common.NewErr(common.ErrNoSuchColumn, a.Column)
		}
		if err := t.Schema.validateValue(idx[i], a.Value); err != nil {
			return nil, err
		}
	}

	var changes []Change
	for r, row := range t.Records {
		if !pred.Match(row) {
			continue
		}
		values := SplitValues(row)
		for len(values) < len(t.Schema) {
			values = append(values, "")
		}
		for i, a := range assignments {
			values[idx[i]] = a.Value
		}
		updated := JoinValues(values)
		t.Records[r] = updated
		changes = append(changes, Change{Old: row, New: updated})
	}
	return changes, nil
}

// Delete removes the matching rows and returns them.
func (t *Table) Delete(where *sqlparser.Condition) ([]string, error) {
	pred, err := t.Schema.Bind(where)
	if err != nil {
		return nil, err
	}
	var removed []string
	kept := t.Records[:0]
	for _, row := range t.Records {
		if pred.Match(row) {
			removed = append(removed, row)
			continue
		}
		kept = append(kept, row)
	}
	t.Records = kept
	return removed, nil
}
