// Package sqlparser turns one statement line into a Statement. Parsing is
// lenient: keywords are case-insensitive, a trailing ';' is dropped and lists
// are split on every comma without any quoting or nesting rules.
package sqlparser

import (
	"strings"
	"unicode"

	"github.com/zhukovaskychina/xflatdb/server/common"
)

// Normalize trims whitespace and a trailing statement terminator.
func Normalize(query string) string {
	q := strings.TrimSpace(query)
	if strings.HasSuffix(q, ";") {
		q = strings.TrimSpace(q[:len(q)-1])
	}
	return q
}

// Parse parses a single statement.
func Parse(query string) (Statement, error) {
	q := Normalize(query)
	if q == "" {
		return nil, common.NewErr(common.ErrEmptyQuery)
	}

	tokens := strings.Fields(q)
	switch strings.ToUpper(tokens[0]) {
	case "SHOW":
		return parseShow(tokens)
	case "CREATE":
		return parseCreate(q, tokens)
	case "USE":
		return parseUse(tokens)
	case "DESCRIBE", "DESC":
		return parseDescribe(tokens)
	case "INSERT":
		return parseInsert(q)
	case "SELECT":
		return parseSelect(q)
	case "UPDATE":
		return parseUpdate(q)
	case "DELETE":
		return parseDelete(q)
	case "BEGIN", "START":
		return parseBegin(tokens)
	case "COMMIT":
		return parseEnd(tokens, &CommitStmt{}, "COMMIT")
	case "ROLLBACK":
		return parseEnd(tokens, &RollbackStmt{}, "ROLLBACK")
	default:
		return nil, common.NewErr(common.ErrUnsupportedCommand)
	}
}

func parseShow(tokens []string) (Statement, error) {
	if len(tokens) == 2 {
		switch strings.ToUpper(tokens[1]) {
		case "DATABASES":
			return &ShowDatabasesStmt{}, nil
		case "TABLES":
			return &ShowTablesStmt{}, nil
		}
	}
	return nil, common.NewErr(common.ErrSyntax, "SHOW", "SHOW DATABASES' or 'SHOW TABLES")
}

func parseUse(tokens []string) (Statement, error) {
	if len(tokens) != 2 {
		return nil, common.NewErr(common.ErrSyntax, "USE", "USE database_name")
	}
	name, err := checkName(tokens[1])
	if err != nil {
		return nil, err
	}
	return &UseStmt{Name: name}, nil
}

func parseDescribe(tokens []string) (Statement, error) {
	if len(tokens) != 2 {
		return nil, common.NewErr(common.ErrSyntax, "DESCRIBE", "DESCRIBE table_name")
	}
	name, err := checkName(tokens[1])
	if err != nil {
		return nil, err
	}
	return &DescribeStmt{TableName: name}, nil
}

// parseBegin accepts BEGIN, BEGIN TRANSACTION and START TRANSACTION.
func parseBegin(tokens []string) (Statement, error) {
	first := strings.ToUpper(tokens[0])
	switch {
	case first == "BEGIN" && len(tokens) == 1:
		return &BeginStmt{}, nil
	case len(tokens) == 2 && strings.EqualFold(tokens[1], "TRANSACTION"):
		return &BeginStmt{}, nil
	}
	return nil, common.NewErr(common.ErrSyntax, "BEGIN", "BEGIN TRANSACTION")
}

func parseEnd(tokens []string, stmt Statement, keyword string) (Statement, error) {
	if len(tokens) == 1 || (len(tokens) == 2 && strings.EqualFold(tokens[1], "TRANSACTION")) {
		return stmt, nil
	}
	return nil, common.NewErr(common.ErrSyntax, keyword, keyword)
}

// checkName validates a database, table or column identifier.
func checkName(name string) (string, error) {
	if name == "" {
		return "", common.NewErr(common.ErrInvalidName, name)
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' || r == '-' {
			continue
		}
		return "", common.NewErr(common.ErrInvalidName, name)
	}
	return name, nil
}

// indexKeyword finds kw in s as a whole word, case-insensitively, at or after
// from. It returns -1 when absent.
func indexKeyword(s, kw string, from int) int {
	upper := strings.ToUpper(s)
	kw = strings.ToUpper(kw)
	for i := from; i+len(kw) <= len(upper); {
		j := strings.Index(upper[i:], kw)
		if j < 0 {
			return -1
		}
		pos := i + j
		end := pos + len(kw)
		before := pos == 0 || isBoundary(upper[pos-1])
		after := end == len(upper) || isBoundary(upper[end])
		if before && after {
			return pos
		}
		i = pos + 1
	}
	return -1
}

func isBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' || c == ')'
}

// splitList splits on commas, trims each element and drops empty ones.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// stripParens removes one pair of enclosing parentheses.
func stripParens(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") {
		s = s[1:]
	}
	if strings.HasSuffix(s, ")") {
		s = s[:len(s)-1]
	}
	return strings.TrimSpace(s)
}
