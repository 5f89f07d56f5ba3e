package docfmt

import "github.com/pingcap/errors"

// NodeKind is the shape of a parsed value.
type NodeKind int

const (
	NodeString NodeKind = iota
	NodeArray
	NodeObject
)

// Field is one key/value pair of an object, in file order.
type Field struct {
	Key   string
	Value *Node
}

// Node is a parsed document value.
type Node struct {
	Kind   NodeKind
	Str    string
	Items  []*Node
	Fields []Field
}

// Parse reads one document. Empty or blank input yields (nil, nil).
func Parse(data []byte) (*Node, error) {
	p := &parser{tok: newTokenizer(data)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind == tokEOF {
		return nil, nil
	}
	node, err := p.value()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, errors.Errorf("unexpected %s after document at offset %d", p.cur.kind, p.cur.pos)
	}
	return node, nil
}

type parser struct {
	tok *tokenizer
	cur token
}

func (p *parser) advance() error {
	t, err := p.tok.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) expect(kind tokenKind) error {
	if p.cur.kind != kind {
		return errors.Errorf("expected %s, found %s at offset %d", kind, p.cur.kind, p.cur.pos)
	}
	return p.advance()
}

func (p *parser) value() (*Node, error) {
	switch p.cur.kind {
	case tokString:
		n := &Node{Kind: NodeString, Str: p.cur.text}
		return n, p.advance()
	case tokLBracket:
		return p.array()
	case tokLBrace:
		return p.object()
	default:
		return nil, errors.Errorf("unexpected %s at offset %d", p.cur.kind, p.cur.pos)
	}
}

func (p *parser) array() (*Node, error) {
	if err := p.expect(tokLBracket); err != nil {
		return nil, err
	}
	n := &Node{Kind: NodeArray}
	for p.cur.kind != tokRBracket {
		item, err := p.value()
		if err != nil {
			return nil, err
		}
		n.Items = append(n.Items, item)
		if p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if p.cur.kind != tokRBracket {
			return nil, errors.Errorf("expected ',' or ']', found %s at offset %d", p.cur.kind, p.cur.pos)
		}
	}
	return n, p.advance()
}

func (p *parser) object() (*Node, error) {
	if err := p.expect(tokLBrace); err != nil {
		return nil, err
	}
	n := &Node{Kind: NodeObject}
	for p.cur.kind != tokRBrace {
		if p.cur.kind != tokString {
			return nil, errors.Errorf("expected key, found %s at offset %d", p.cur.kind, p.cur.pos)
		}
		key := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(tokColon); err != nil {
			return nil, err
		}
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		n.Fields = append(n.Fields, Field{Key: key, Value: val})
		if p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if p.cur.kind != tokRBrace {
			return nil, errors.Errorf("expected ',' or '}', found %s at offset %d", p.cur.kind, p.cur.pos)
		}
	}
	return n, p.advance()
}

// Strings flattens an array of scalars. Nested containers are an error.
func (n *Node) Strings() ([]string, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != NodeArray {
		return nil, errors.Errorf("expected array")
	}
	out := make([]string, 0, len(n.Items))
	for i, item := range n.Items {
		if item.Kind != NodeString {
			return nil, errors.Errorf("element %d is not a string", i)
		}
		out = append(out, item.Str)
	}
	return out, nil
}
