package sqlparser

import (
	"strings"

	"github.com/zhukovaskychina/xflatdb/server/common"
)

// Operator is a WHERE comparison operator.
type Operator string

const (
	OpGE Operator = ">="
	OpLE Operator = "<="
	OpNE Operator = "!="
	OpEQ Operator = "="
	OpGT Operator = ">"
	OpLT Operator = "<"
)

// operators is ordered two-character first so a tie at one position
// resolves to the longer operator.
var operators = []Operator{OpGE, OpLE, OpNE, OpEQ, OpGT, OpLT}

// Condition is a single "column op value" predicate. Value keeps any
// surrounding quotes; they are stripped at comparison time.
type Condition struct {
	Column string
	Op     Operator
	Value  string
}

func (c *Condition) String() string {
	return c.Column + " " + string(c.Op) + " " + c.Value
}

// ParseCondition picks the operator that starts leftmost in text.
func ParseCondition(text string) (*Condition, error) {
	text = strings.TrimSpace(text)
	for i := 0; i < len(text); i++ {
		for _, op := range operators {
			if !strings.HasPrefix(text[i:], string(op)) {
				continue
			}
			col := strings.TrimSpace(text[:i])
			val := strings.TrimSpace(text[i+len(op):])
			if col == "" || val == "" {
				return nil, common.NewErr(common.ErrInvalidCondition, text)
			}
			if _, err := checkName(col); err != nil {
				return nil, common.NewErr(common.ErrInvalidCondition, text)
			}
			return &Condition{Column: col, Op: op, Value: val}, nil
		}
	}
	return nil, common.NewErr(common.ErrInvalidCondition, text)
}

// splitWhere cuts s at a WHERE keyword and parses the condition after it.
func splitWhere(s string) (string, *Condition, error) {
	pos := indexKeyword(s, "WHERE", 0)
	if pos < 0 {
		return strings.TrimSpace(s), nil, nil
	}
	cond, err := ParseCondition(s[pos+len("WHERE"):])
	if err != nil {
		return "", nil, err
	}
	return strings.TrimSpace(s[:pos]), cond, nil
}
