package manager

import (
	"strings"

	"github.com/zhukovaskychina/xflatdb/server/common"
)

// Qualify builds the "database.table" name used for files, locks and the index.
func Qualify(database, table string) string {
	return database + "." + table
}

// SplitQualified splits "database.table" at its first dot.
func SplitQualified(name string) (string, string, error) {
	idx := strings.Index(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return "", "", common.NewErr(common.ErrSyntax, "table name '"+name+"'", "database.table")
	}
	return name[:idx], name[idx+1:], nil
}
