package sqlparser

import (
	"github.com/zhukovaskychina/xflatdb/server/common"
)

// parseSelect handles SELECT cols FROM name [WHERE col op value].
// A column list of "*" leaves Columns empty.
func parseSelect(q string) (Statement, error) {
	const usage = "SELECT cols FROM name [WHERE col op value]"
	from := indexKeyword(q, "FROM", 0)
	if from < 0 {
		return nil, common.NewErr(common.ErrSyntax, "SELECT", usage)
	}
	cols := splitList(q[len("SELECT"):from])
	if len(cols) == 0 {
		return nil, common.NewErr(common.ErrSyntax, "SELECT", usage)
	}

	target, where, err := splitWhere(q[from+len("FROM"):])
	if err != nil {
		return nil, err
	}
	name, err := checkName(target)
	if err != nil {
		return nil, err
	}

	stmt := &SelectStmt{TableName: name, Where: where}
	if len(cols) == 1 && cols[0] == "*" {
		return stmt, nil
	}
	for _, c := range cols {
		if _, err := checkName(c); err != nil {
			return nil, err
		}
	}
	stmt.Columns = cols
	return stmt, nil
}
