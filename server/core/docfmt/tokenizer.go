// Package docfmt reads and writes the catalog and table files. The files are
// JSON-shaped. The reader is lenient: whitespace is insignificant, trailing
// commas are accepted and unquoted scalars are read as strings.
package docfmt

import (
	"strings"

	"github.com/pingcap/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokColon
	tokComma
	tokString
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokColon:
		return "':'"
	case tokComma:
		return "','"
	default:
		return "string"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

type tokenizer struct {
	src []byte
	pos int
}

func newTokenizer(src []byte) *tokenizer {
	return &tokenizer{src: src}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	switch c {
	case '{', '}', '[', ']', ':', ',', '"':
		return true
	}
	return isSpace(c)
}

func (t *tokenizer) next() (token, error) {
	for t.pos < len(t.src) && isSpace(t.src[t.pos]) {
		t.pos++
	}
	if t.pos >= len(t.src) {
		return token{kind: tokEOF, pos: t.pos}, nil
	}

	start := t.pos
	c := t.src[t.pos]
	switch c {
	case '{':
		t.pos++
		return token{kind: tokLBrace, pos: start}, nil
	case '}':
		t.pos++
		return token{kind: tokRBrace, pos: start}, nil
	case '[':
		t.pos++
		return token{kind: tokLBracket, pos: start}, nil
	case ']':
		t.pos++
		return token{kind: tokRBracket, pos: start}, nil
	case ':':
		t.pos++
		return token{kind: tokColon, pos: start}, nil
	case ',':
		t.pos++
		return token{kind: tokComma, pos: start}, nil
	case '"':
		s, err := t.quoted()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: s, pos: start}, nil
	}

	for t.pos < len(t.src) && !isDelimiter(t.src[t.pos]) {
		t.pos++
	}
	return token{kind: tokString, text: string(t.src[start:t.pos]), pos: start}, nil
}

// quoted consumes a double-quoted string starting at t.pos. Only \" is an
// escape; any other backslash is kept as a literal byte.
func (t *tokenizer) quoted() (string, error) {
	start := t.pos
	t.pos++
	var b strings.Builder
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		switch {
		case c == '"':
			t.pos++
			return b.String(), nil
		case c == '\\' && t.pos+1 < len(t.src) && t.src[t.pos+1] == '"':
			b.WriteByte('"')
			t.pos += 2
		default:
			b.WriteByte(c)
			t.pos++
		}
	}
	return "", errors.Errorf("unterminated string starting at offset %d", start)
}
