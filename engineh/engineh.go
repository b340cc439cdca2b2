// Copyright (c) 2026 The sqlstmt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package engineh describes the C-shaped surface of an embedded relational
// engine for Gophers.
//
// This package is designed to have as few opinions as possible. It exposes
// the engine's handles and raw result codes exactly as the engine reports
// them, so that packages building on it can focus on policy (validity
// tracking, error classification, escalation) rather than on the mechanics
// of the binding itself. The concrete engine binding is chosen by whoever
// links the program; see the sqlstmt.Open seam.
package engineh

import (
	"strconv"
	"time"
)

// OpenFunc opens a database file and returns a connection handle.
//
// An error while opening can still return a non-nil handle.
// Call Close on it.
type OpenFunc func(filename string, flags OpenFlags) (DB, error)

// DB is a handle to one open database connection.
//
// A DB and every Stmt prepared from it belong to a single goroutine at a
// time; the engine's objects are not designed for concurrent stepping.
type DB interface {
	// Close releases the connection. Statements prepared from this DB
	// must be finalized before Close, or the engine reports Busy.
	Close() error
	// ErrMsg returns the engine's text for the most recent error on
	// this connection.
	ErrMsg() string
	// Interrupt aborts any in-flight Step on this connection; the
	// aborted call returns CodeInterrupt.
	Interrupt()
	// Prepare compiles the first statement of query. remainingQuery
	// holds any trailing text after the first statement, so scripts can
	// be compiled piecewise. On failure stmt is nil and code carries
	// the engine's reason.
	Prepare(query string, flags PrepareFlags) (stmt Stmt, remainingQuery string, code Code)
}

// Stmt is a handle to one compiled statement.
//
// Bind and column indexes at this layer follow the engine's own
// conventions: parameters are 1-based, result columns 0-based.
type Stmt interface {
	// SQL returns the text the statement was compiled from.
	SQL() string
	// ExpandedSQL returns the statement text with bound parameter
	// values substituted in, for diagnostics.
	ExpandedSQL() string
	// Finalize releases the compiled statement. The Stmt must not be
	// used afterwards.
	Finalize() Code
	// Reset rewinds the statement's execution cursor back to "not
	// started". Bindings are kept. Reset may echo the code of the most
	// recent failed Step.
	Reset() Code
	// ClearBindings sets every parameter back to null.
	ClearBindings() Code
	// Step advances execution. Row means a result row is positioned
	// for column reads, Done means the statement ran to completion;
	// anything else is an error.
	Step() Code

	BindNull(param int) Code
	BindInt64(param int, v int64) Code
	BindDouble(param int, v float64) Code
	// BindText binds a copy of v; the engine does not retain caller
	// memory past the call. Same for BindBlob.
	BindText(param int, v string) Code
	BindBlob(param int, v []byte) Code
	// BindParameterCount returns the index of the highest parameter.
	BindParameterCount() int

	// ColumnCount is valid whether or not a row is positioned.
	ColumnCount() int
	// ColumnType is the dynamic type tag of the value in column col of
	// the current row.
	ColumnType(col int) ColumnType
	// ColumnDeclType is the column's declared type string from the
	// compiled schema, or "" if none.
	ColumnDeclType(col int) string
	ColumnInt64(col int) int64
	ColumnDouble(col int) float64
	ColumnText(col int) string
	// ColumnBlob returns engine-owned memory, valid only until the
	// next call on this Stmt.
	ColumnBlob(col int) []byte
	// ColumnLen is the length in bytes of the value in column col.
	ColumnLen(col int) int
}

// ColumnType is the dynamic datatype of one value.
type ColumnType int

const (
	TypeInteger ColumnType = 1
	TypeFloat   ColumnType = 2
	TypeText    ColumnType = 3
	TypeBlob    ColumnType = 4
	TypeNull    ColumnType = 5
)

func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeFloat:
		return "FLOAT"
	case TypeText:
		return "TEXT"
	case TypeBlob:
		return "BLOB"
	case TypeNull:
		return "NULL"
	default:
		return "UNKNOWN_TYPE(" + strconv.Itoa(int(t)) + ")"
	}
}

// PrepareFlags adjust statement compilation.
type PrepareFlags int

const (
	// PreparePersistent hints that the statement will be kept for a
	// long time, as in a statement cache.
	PreparePersistent PrepareFlags = 0x01
)

// OpenFlags are flags used when opening a DB.
type OpenFlags int

const (
	OpenReadOnly  OpenFlags = 0x0001
	OpenReadWrite OpenFlags = 0x0002
	OpenCreate    OpenFlags = 0x0004
	OpenURI       OpenFlags = 0x0040
	OpenMemory    OpenFlags = 0x0080

	OpenFlagsDefault = OpenReadWrite | OpenCreate | OpenURI
)

// Code is an engine result code.
//
// The three non-error codes (CodeOK, CodeRow, CodeDone) report forms of
// success and must never be wrapped in an ErrCode.
type Code int

const (
	CodeOK         = Code(0) // do not use in ErrCode
	CodeError      = Code(1)
	CodeInternal   = Code(2)
	CodePerm       = Code(3)
	CodeAbort      = Code(4)
	CodeBusy       = Code(5)
	CodeLocked     = Code(6)
	CodeNoMem      = Code(7)
	CodeReadOnly   = Code(8)
	CodeInterrupt  = Code(9)
	CodeIOErr      = Code(10)
	CodeCorrupt    = Code(11)
	CodeNotFound   = Code(12)
	CodeFull       = Code(13)
	CodeCantOpen   = Code(14)
	CodeProtocol   = Code(15)
	CodeEmpty      = Code(16)
	CodeSchema     = Code(17)
	CodeTooBig     = Code(18)
	CodeConstraint = Code(19)
	CodeMismatch   = Code(20)
	CodeMisuse     = Code(21)
	CodeAuth       = Code(23)
	CodeFormat     = Code(24)
	CodeRange      = Code(25) // bind or column index out of declared range
	CodeNotADB     = Code(26)
	CodeNotice     = Code(27)
	CodeWarning    = Code(28)
	CodeRow        = Code(100) // do not use in ErrCode
	CodeDone       = Code(101) // do not use in ErrCode
)

func (code Code) String() string {
	switch code {
	default:
		return "ENGINE_UNKNOWN_ERR(" + strconv.Itoa(int(code)) + ")"
	case CodeOK:
		return "ENGINE_OK(not an error)"
	case CodeError:
		return "ENGINE_ERROR"
	case CodeInternal:
		return "ENGINE_INTERNAL"
	case CodePerm:
		return "ENGINE_PERM"
	case CodeAbort:
		return "ENGINE_ABORT"
	case CodeBusy:
		return "ENGINE_BUSY"
	case CodeLocked:
		return "ENGINE_LOCKED"
	case CodeNoMem:
		return "ENGINE_NOMEM"
	case CodeReadOnly:
		return "ENGINE_READONLY"
	case CodeInterrupt:
		return "ENGINE_INTERRUPT"
	case CodeIOErr:
		return "ENGINE_IOERR"
	case CodeCorrupt:
		return "ENGINE_CORRUPT"
	case CodeNotFound:
		return "ENGINE_NOTFOUND"
	case CodeFull:
		return "ENGINE_FULL"
	case CodeCantOpen:
		return "ENGINE_CANTOPEN"
	case CodeProtocol:
		return "ENGINE_PROTOCOL"
	case CodeEmpty:
		return "ENGINE_EMPTY"
	case CodeSchema:
		return "ENGINE_SCHEMA"
	case CodeTooBig:
		return "ENGINE_TOOBIG"
	case CodeConstraint:
		return "ENGINE_CONSTRAINT"
	case CodeMismatch:
		return "ENGINE_MISMATCH"
	case CodeMisuse:
		return "ENGINE_MISUSE"
	case CodeAuth:
		return "ENGINE_AUTH"
	case CodeFormat:
		return "ENGINE_FORMAT"
	case CodeRange:
		return "ENGINE_RANGE"
	case CodeNotADB:
		return "ENGINE_NOTADB"
	case CodeNotice:
		return "ENGINE_NOTICE"
	case CodeWarning:
		return "ENGINE_WARNING"
	case CodeRow:
		return "ENGINE_ROW(not an error)"
	case CodeDone:
		return "ENGINE_DONE(not an error)"
	}
}

// ErrCode is an engine error code as a Go error.
// It must not be one of the status codes CodeOK, CodeRow, or CodeDone.
type ErrCode Code

func (e ErrCode) Error() string {
	return Code(e).String()
}

// CodeAsError converts an engine code into a Go error.
// The non-error status codes return nil.
func CodeAsError(code Code) error {
	if code == CodeOK || code == CodeRow || code == CodeDone {
		return nil
	}
	return ErrCode(code)
}

// TraceConnID identifies a connection to a Tracer.
type TraceConnID int32

// Tracer reports statement executions for debugging and statistics.
// Implementations must be safe for concurrent use.
type Tracer interface {
	// Query is called once per completed execution attempt: a Run, the
	// final Step of a row loop, or a script statement. err is nil on
	// success (including zero rows).
	Query(id TraceConnID, query string, duration time.Duration, err error)
}
