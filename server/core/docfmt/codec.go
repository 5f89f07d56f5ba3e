package docfmt

import (
	"sort"
	"strings"

	"github.com/pingcap/errors"
)

// DecodeCatalog reads a catalog file: an object of database name to an array
// of table names. Empty input is an empty catalog.
func DecodeCatalog(data []byte) (map[string][]string, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}
	catalog := make(map[string][]string)
	if root == nil {
		return catalog, nil
	}
	if root.Kind != NodeObject {
		return nil, errors.Errorf("catalog must be an object")
	}
	for _, f := range root.Fields {
		tables, err := f.Value.Strings()
		if err != nil {
			return nil, errors.Annotatef(err, "database %q", f.Key)
		}
		if tables == nil {
			tables = []string{}
		}
		catalog[f.Key] = tables
	}
	return catalog, nil
}

// EncodeCatalog writes databases in name order, one per line.
func EncodeCatalog(catalog map[string][]string) []byte {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("{\n")
	for i, name := range names {
		b.WriteString("  ")
		writeQuoted(&b, name)
		b.WriteString(": [")
		for j, table := range catalog[name] {
			if j > 0 {
				b.WriteString(", ")
			}
			writeQuoted(&b, table)
		}
		b.WriteString("]")
		if i < len(names)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return []byte(b.String())
}

// DecodeRows reads a table file: an array of row strings.
func DecodeRows(data []byte) ([]string, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return []string{}, nil
	}
	rows, err := root.Strings()
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// EncodeRows writes one row per line.
func EncodeRows(rows []string) []byte {
	var b strings.Builder
	b.WriteString("[\n")
	for i, row := range rows {
		b.WriteString("  ")
		writeQuoted(&b, row)
		if i < len(rows)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("]")
	return []byte(b.String())
}

// writeQuoted escapes only '"'. A backslash directly before a quote or at the
// end of s cannot be told apart from an escape when read back.
func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	b.WriteString(strings.ReplaceAll(s, `"`, `\"`))
	b.WriteByte('"')
}
