package engine

import (
	"strings"

	"github.com/zhukovaskychina/xflatdb/server/core/manager"
)

// Result is the outcome of one statement.
type Result struct {
	Message string
	Header  string
	Rows    []string
	Report  *manager.CommitReport
	Err     error
}

func errResult(err error) *Result {
	return &Result{Err: err}
}

func msgResult(msg string) *Result {
	return &Result{Message: msg}
}

// OK reports whether the statement succeeded.
func (r *Result) OK() bool {
	return r.Err == nil
}

// String renders the result the way a session prints it.
func (r *Result) String() string {
	if r.Err != nil {
		return "Error: " + r.Err.Error()
	}
	var lines []string
	if r.Report != nil {
		for _, res := range r.Report.Results {
			lines = append(lines, renderEntry(res)...)
		}
	}
	if r.Header != "" {
		lines = append(lines, r.Header)
	}
	lines = append(lines, r.Rows...)
	if r.Message != "" {
		lines = append(lines, r.Message)
	}
	return strings.Join(lines, "\n")
}

func renderEntry(res manager.EntryResult) []string {
	if res.Err != nil {
		return []string{"Error: " + res.Err.Error()}
	}
	if res.Result == nil {
		return []string{"Committed: " + res.Entry.Statement}
	}
	if res.Result.Header != "" {
		lines := append([]string{res.Result.Header}, res.Result.Rows...)
		if res.Result.Message != "" {
			lines = append(lines, res.Result.Message)
		}
		return lines
	}
	return []string{"Committed: " + res.Entry.Statement + " (" + res.Result.Message + ")"}
}
