package common

import (
	"errors"
	"fmt"
)

// ErrKind groups error codes into the four families reported to a session.
type ErrKind int

const (
	KindUnknown ErrKind = iota
	KindParse
	KindSemantic
	KindLockConflict
	KindPersistence
)

func (k ErrKind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindSemantic:
		return "SemanticError"
	case KindLockConflict:
		return "LockConflict"
	case KindPersistence:
		return "PersistenceError"
	default:
		return "UnknownError"
	}
}

// ErrCode identifies one error message template.
type ErrCode uint16

const (
	ErrSyntax ErrCode = iota + 1
	ErrUnsupportedCommand
	ErrEmptyQuery
	ErrInvalidCondition
	ErrUnknownColumnType
	ErrInvalidName
	ErrDuplicateColumn

	ErrNoDatabaseSelected
	ErrNoSuchDatabase
	ErrNoSuchTable
	ErrDatabaseExists
	ErrTableExists
	ErrColumnCountMismatch
	ErrNoSuchColumn
	ErrNotNumeric
	ErrTxInProgress
	ErrNoActiveTx

	ErrReadLockDenied
	ErrWriteLockDenied

	ErrSaveCatalog
	ErrSaveTable
)

type errTemplate struct {
	kind   ErrKind
	format string
}

var errTemplates = map[ErrCode]errTemplate{
	ErrSyntax:             {KindParse, "Invalid %s syntax. Use '%s'."},
	ErrUnsupportedCommand: {KindParse, "Unsupported command. Supported commands: SHOW, USE, CREATE, DESCRIBE, INSERT, SELECT, UPDATE, DELETE, BEGIN, COMMIT, ROLLBACK."},
	ErrEmptyQuery:         {KindParse, "Empty query."},
	ErrInvalidCondition:   {KindParse, "Invalid condition format '%s'. Use 'column operator value'."},
	ErrUnknownColumnType:  {KindParse, "Unknown type '%s' for column '%s'. Use STRING, INT or FLOAT."},
	ErrInvalidName:        {KindParse, "Invalid name '%s'. Names may contain letters, digits, '_', '$' and '-'."},
	ErrDuplicateColumn:    {KindParse, "Duplicate column '%s'."},

	ErrNoDatabaseSelected:  {KindSemantic, "No database selected. Use 'USE database_name' first."},
	ErrNoSuchDatabase:      {KindSemantic, "Database '%s' not found."},
	ErrNoSuchTable:         {KindSemantic, "Table '%s' not found in database '%s'."},
	ErrDatabaseExists:      {KindSemantic, "Database '%s' already exists."},
	ErrTableExists:         {KindSemantic, "Table '%s' already exists."},
	ErrColumnCountMismatch: {KindSemantic, "Column mismatch: expected %d values but got %d."},
	ErrNoSuchColumn:        {KindSemantic, "Column '%s' not found in table."},
	ErrNotNumeric:          {KindSemantic, "Value '%s' is not a valid %s for column '%s'."},
	ErrTxInProgress:        {KindSemantic, "A transaction is already in progress."},
	ErrNoActiveTx:          {KindSemantic, "No active transaction to %s."},

	ErrReadLockDenied:  {KindLockConflict, "Could not acquire read lock for table '%s'."},
	ErrWriteLockDenied: {KindLockConflict, "Could not acquire write lock for table '%s'."},

	ErrSaveCatalog: {KindPersistence, "Could not save catalog."},
	ErrSaveTable:   {KindPersistence, "Could not save table '%s'."},
}

// SQLError is the error value produced by every core component.
type SQLError struct {
	Code    ErrCode
	Kind    ErrKind
	Message string
	cause   error
}

// NewErr builds an error from a code and the arguments of its message template.
func NewErr(code ErrCode, args ...interface{}) *SQLError {
	tpl, ok := errTemplates[code]
	if !ok {
		return &SQLError{Code: code, Kind: KindUnknown, Message: fmt.Sprintf("unknown error %d", code)}
	}
	msg := tpl.format
	if len(args) > 0 {
		msg = fmt.Sprintf(tpl.format, args...)
	}
	return &SQLError{Code: code, Kind: tpl.kind, Message: msg}
}

// NewErrWithCause is NewErr keeping the underlying failure reachable through Unwrap.
func NewErrWithCause(cause error, code ErrCode, args ...interface{}) *SQLError {
	e := NewErr(code, args...)
	e.cause = cause
	return e
}

func (e *SQLError) Error() string {
	if e.cause != nil {
		return e.Message + " " + e.cause.Error()
	}
	return e.Message
}

func (e *SQLError) Unwrap() error {
	return e.cause
}

// Is matches on code so callers can compare against NewErr(code) values.
func (e *SQLError) Is(target error) bool {
	t, ok := target.(*SQLError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// KindOf reports the family of err, or KindUnknown for foreign errors.
func KindOf(err error) ErrKind {
	var se *SQLError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// CodeOf reports the code of err, or zero for foreign errors.
func CodeOf(err error) ErrCode {
	var se *SQLError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
