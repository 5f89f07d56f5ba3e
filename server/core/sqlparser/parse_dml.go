package sqlparser

import (
	"strings"

	"github.com/zhukovaskychina/xflatdb/server/common"
)

// parseInsert handles INSERT INTO name VALUES (v1, v2, ...).
func parseInsert(q string) (Statement, error) {
	const usage = "INSERT INTO name VALUES (v1, v2, ...)"
	into := indexKeyword(q, "INTO", 0)
	values := indexKeyword(q, "VALUES", 0)
	if into < 0 || values < 0 || values < into {
		return nil, common.NewErr(common.ErrSyntax, "INSERT", usage)
	}
	name, err := checkName(strings.TrimSpace(q[into+len("INTO") : values]))
	if err != nil {
		return nil, err
	}

	list := strings.TrimSpace(q[values+len("VALUES"):])
	if !strings.HasPrefix(list, "(") || !strings.HasSuffix(list, ")") {
		return nil, common.NewErr(common.ErrSyntax, "INSERT", usage)
	}
	vals := splitList(stripParens(list))
	if len(vals) == 0 {
		return nil, common.NewErr(common.ErrSyntax, "INSERT", usage)
	}
	return &InsertStmt{TableName: name, Values: vals}, nil
}

// parseUpdate handles UPDATE name SET col = value[, ...] [WHERE cond].
func parseUpdate(q string) (Statement, error) {
	const usage = "UPDATE name SET col = value [WHERE col op value]"
	set := indexKeyword(q, "SET", 0)
	if set < 0 {
		return nil, common.NewErr(common.ErrSyntax, "UPDATE", usage)
	}
	name, err := checkName(strings.TrimSpace(q[len("UPDATE"):set]))
	if err != nil {
		return nil, err
	}

	body, where, err := splitWhere(q[set+len("SET"):])
	if err != nil {
		return nil, err
	}
	pairs := splitList(body)
	if len(pairs) == 0 {
		return nil, common.NewErr(common.ErrSyntax, "UPDATE", usage)
	}
	assignments := make([]Assignment, 0, len(pairs))
	for _, pair := range pairs {
		eq := strings.Index(pair, "=")
		if eq < 0 {
			return nil, common.NewErr(common.ErrSyntax, "UPDATE", usage)
		}
		col, err := checkName(strings.TrimSpace(pair[:eq]))
		if err != nil {
			return nil, err
		}
		val := strings.TrimSpace(pair[eq+1:])
		if val == "" {
			return nil, common.NewErr(common.ErrSyntax, "UPDATE", usage)
		}
		assignments = append(assignments, Assignment{Column: col, Value: val})
	}
	return &UpdateStmt{TableName: name, Assignments: assignments, Where: where}, nil
}

// parseDelete handles DELETE FROM name [WHERE cond].
func parseDelete(q string) (Statement, error) {
	const usage = "DELETE FROM name [WHERE col op value]"
	from := indexKeyword(q, "FROM", 0)
	if from < 0 {
		return nil, common.NewErr(common.ErrSyntax, "DELETE", usage)
	}
	if strings.TrimSpace(q[len("DELETE"):from]) != "" {
		return nil, common.NewErr(common.ErrSyntax, "DELETE", usage)
	}
	target, where, err := splitWhere(q[from+len("FROM"):])
	if err != nil {
		return nil, err
	}
	name, err := checkName(target)
	if err != nil {
		return nil, err
	}
	return &DeleteStmt{TableName: name, Where: where}, nil
}
