package table

import (
	"github.com/zhukovaskychina/xflatdb/server/common"
	"github.com/zhukovaskychina/xflatdb/server/core/sqlparser"
)

// Predicate is a condition bound to a column position.
type Predicate struct {
	index int
	typ   sqlparser.ColumnType
	op    sqlparser.Operator
	value string
}

// Bind resolves cond against the schema. A nil condition binds to a
// predicate that matches every row.
func (s Schema) Bind(cond *sqlparser.Condition) (*Predicate, error) {
	if cond == nil {
		return nil, nil
	}
	idx := s.Index(cond.Column)
	if idx < 0 {
		return nil, common.NewErr(common.ErrNoSuchColumn, cond.Column)
	}
	return &Predicate{index: idx, typ: s[idx].Type, op: cond.Op, value: cond.Value}, nil
}

// Match evaluates the predicate on one stored row. Rows too short to hold
// the column never match, nor do numeric cells that fail to parse.
func (p *Predicate) Match(row string) bool {
	if p == nil {
		return true
	}
	values := SplitValues(row)
	if p.index >= len(values) {
		return false
	}
	return Compare(p.typ, p.op, values[p.index], p.value)
}

// Compare applies op to a cell and a literal, numerically for INT and FLOAT
// columns and by code point otherwise.
func Compare(typ sqlparser.ColumnType, op sqlparser.Operator, cell, literal string) bool {
	var cmp int
	if typ.IsNumeric() {
		a, ok := ParseNumber(cell)
		if !ok {
			return false
		}
		b, ok := ParseNumber(literal)
		if !ok {
			return false
		}
		cmp = a.Cmp(b)
	} else {
		a, b := Unquote(cell), Unquote(literal)
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	}

	switch op {
	case sqlparser.OpEQ:
		return cmp == 0
	case sqlparser.OpNE:
		return cmp != 0
	case sqlparser.OpGT:
		return cmp > 0
	case sqlparser.OpLT:
		return cmp < 0
	case sqlparser.OpGE:
		return cmp >= 0
	case sqlparser.OpLE:
		return cmp <= 0
	}
	return false
}
