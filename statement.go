// Copyright (c) 2026 The sqlstmt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlstmt is a safe prepared-statement execution wrapper over an
// embedded relational engine.
//
// The engine itself is opaque behind the engineh interfaces; this package
// owns the statement's local run state and the policy around it: validity
// tracking, typed parameter binding, stepping, typed column reads, and a
// single error-classification path that can recover, report, or escalate
// through the owning connection.
//
// # Failure model
//
// No fallible operation returns a Go error from a Statement. Binds and
// steps report a bool, and after a false Step the caller asks Succeeded to
// tell "ran out of rows" from "query failed". Engine failures are
// classified once, escalated to the connection's error callback, and the
// callback may close the connection outright; every live statement then
// silently degrades to safe no-ops and zero values rather than crashing.
//
// # Binding Time
//
// The engine has no strict time datatype, but its date functions expect
// one of a few text timestamp formats. BindTime uses the shortest format
// that accurately represents the value; see TimeFormat.
package sqlstmt

import (
	"strings"
	"time"

	"go4.org/mem"

	"github.com/sqlcore/sqlstmt/engineh"
)

// TimeFormat is the text format BindTime uses to store
// millisecond-precision time in the engine.
const TimeFormat = "2006-01-02 15:04:05.000-0700"

// Statement wraps one compiled statement handle and tracks its run state.
//
// A Statement is exclusively owned by its caller and is not safe for
// concurrent use. The zero value is a valid empty Statement: it wraps the
// canonical empty handle, and every operation on it is a safe no-op.
//
// Parameter and column indexes at this surface are zero-based; the
// engine's one-based parameter convention is translated internally.
type Statement struct {
	ref       *StatementRef
	stepped   bool // Run or Step has been called since the last Reset
	succeeded bool // the last step-family engine code classified as success

	stepStart time.Time // start of the current execution, for tracing
}

// NewStatement returns a Statement wrapping ref, as handed out by a
// connection's CachedStatement or UniqueStatement.
func NewStatement(ref *StatementRef) *Statement {
	if ref == nil {
		ref = invalidRef
	}
	return &Statement{ref: ref.acquire()}
}

// handle never returns nil, so callers only ever check validity.
func (s *Statement) handle() *StatementRef {
	if s.ref == nil {
		s.ref = invalidRef
	}
	return s.ref
}

// IsValid reports whether the statement is backed by a live compiled
// statement. It is false for empty statements, statements whose SQL failed
// to compile, and statements invalidated by a connection close.
func (s *Statement) IsValid() bool { return s.handle().Valid() }

// checkValid is IsValid plus misuse detection: a statement that used to be
// valid and no longer is was invalidated out from under a live caller,
// typically because an error handler closed the connection. That is
// allowed, but suspicious enough to flag.
func (s *Statement) checkValid() bool {
	h := s.handle()
	if h.wasValid && !h.Valid() {
		contractViolation("Statement.UseAfterInvalidation")
	}
	return h.Valid()
}

// Assign points the statement at a new handle. The old handle is reset
// with bindings cleared and released first.
func (s *Statement) Assign(ref *StatementRef) {
	if ref == nil {
		ref = invalidRef
	}
	s.Reset(true)
	old := s.handle()
	s.ref = ref.acquire()
	old.release()
}

// Clear detaches the statement from any compiled statement, returning it
// to the empty state.
func (s *Statement) Clear() {
	s.Assign(invalidRef)
	s.succeeded = false
}

// Close resets the statement, clearing bindings, and releases its hold on
// the handle. No statement is torn down mid-execution with stale bindings.
// The Statement is permanently empty afterwards.
func (s *Statement) Close() {
	s.Clear()
}

// Run executes a statement that produces no result rows, such as an
// INSERT, UPDATE or DDL, and reports whether the engine ran it to
// completion. Calling Run again without an intervening Reset is a
// contract violation.
func (s *Statement) Run() bool {
	if s.stepped {
		contractViolation("Statement.Run.AlreadyStepped")
	}
	if !s.checkValid() {
		return false
	}
	s.startTimer()
	s.stepped = true
	code := s.checkError(s.handle().stmt.Step())
	s.trace(code)
	return code == engineh.CodeDone
}

// Step advances a query by one row and reports whether a row is available
// for column reads. Step returns false both on completion and on error;
// use Succeeded to tell them apart.
func (s *Statement) Step() bool {
	if !s.checkValid() {
		return false
	}
	if !s.stepped {
		s.startTimer()
	}
	s.stepped = true
	code := s.checkError(s.handle().stmt.Step())
	if code != engineh.CodeRow {
		s.trace(code)
	}
	return code == engineh.CodeRow
}

// Reset rewinds the statement so it can be re-executed, optionally
// clearing all parameter bindings. The engine code returned by the reset
// itself is not classified: it may echo the previous step's error, which
// must not be reported twice.
func (s *Statement) Reset(clearBoundVars bool) {
	if h := s.handle(); h.Valid() {
		if clearBoundVars {
			h.stmt.ClearBindings()
		}
		h.stmt.Reset()
	}
	s.succeeded = false
	s.stepped = false
}

// Succeeded reports whether the most recent step-family call returned a
// non-error engine code. Meaningful after Step returns false, to
// distinguish end-of-results from failure.
func (s *Statement) Succeeded() bool {
	return s.IsValid() && s.succeeded
}

// SQL returns the text the statement was compiled from, for diagnostics.
func (s *Statement) SQL() string {
	if !s.IsValid() {
		return ""
	}
	return s.handle().stmt.SQL()
}

// ExpandedSQL returns the statement text with bound parameter values
// substituted in, for diagnostics.
func (s *Statement) ExpandedSQL() string {
	if !s.IsValid() {
		return ""
	}
	return s.handle().stmt.ExpandedSQL()
}

// bind runs one engine bind call under the shared preconditions: binding
// after stepping is a contract violation, and binds on an invalid
// statement report failure without touching the engine.
func (s *Statement) bind(do func(st engineh.Stmt) engineh.Code) bool {
	if s.stepped {
		contractViolation("Statement.Bind.AfterStep")
	}
	if !s.IsValid() {
		return false
	}
	return s.checkOK(do(s.handle().stmt))
}

// BindNull binds NULL to the zero-based parameter col.
func (s *Statement) BindNull(col int) bool {
	return s.bind(func(st engineh.Stmt) engineh.Code {
		return st.BindNull(col + 1)
	})
}

// BindBool binds v as integer 0 or 1.
func (s *Statement) BindBool(col int, v bool) bool {
	i := 0
	if v {
		i = 1
	}
	return s.BindInt(col, i)
}

func (s *Statement) BindInt(col int, v int) bool {
	return s.BindInt64(col, int64(v))
}

func (s *Statement) BindInt64(col int, v int64) bool {
	return s.bind(func(st engineh.Stmt) engineh.Code {
		return st.BindInt64(col+1, v)
	})
}

func (s *Statement) BindDouble(col int, v float64) bool {
	return s.bind(func(st engineh.Stmt) engineh.Code {
		return st.BindDouble(col+1, v)
	})
}

// BindString binds a copy of v; the engine does not retain caller memory
// past the call.
func (s *Statement) BindString(col int, v string) bool {
	return s.bind(func(st engineh.Stmt) engineh.Code {
		return st.BindText(col+1, v)
	})
}

// BindBlob binds a copy of v.
func (s *Statement) BindBlob(col int, v []byte) bool {
	return s.bind(func(st engineh.Stmt) engineh.Code {
		return st.BindBlob(col+1, v)
	})
}

// BindTime binds t as text in the shortest of:
//
//	YYYY-MM-DD HH:MM
//	YYYY-MM-DD HH:MM:SS
//	YYYY-MM-DD HH:MM:SS.SSS
//
// with "[+-]HHMM" appended when t is not UTC.
func (s *Statement) BindTime(col int, t time.Time) bool {
	str := t.Format(TimeFormat)
	str = strings.TrimSuffix(str, "-0000")
	str = strings.TrimSuffix(str, "+0000")
	str = strings.TrimSuffix(str, ".000")
	str = strings.TrimSuffix(str, ":00")
	return s.BindString(col, str)
}

// ColumnCount returns the number of result columns, whether or not a row
// is currently positioned.
func (s *Statement) ColumnCount() int {
	if !s.IsValid() {
		return 0
	}
	return s.handle().stmt.ColumnCount()
}

// ColumnType returns the dynamic type tag of the value in column col of
// the current row. This is distinct from the declared column type.
func (s *Statement) ColumnType(col int) engineh.ColumnType {
	if !s.checkValid() {
		return engineh.TypeNull
	}
	return s.handle().stmt.ColumnType(col)
}

// DeclaredColumnType returns the column's static type as declared in the
// compiled schema, mapped case-insensitively onto the engine type tags.
// Unrecognized declarations map to TypeNull. Available whether or not a
// row is positioned.
func (s *Statement) DeclaredColumnType(col int) engineh.ColumnType {
	if !s.IsValid() {
		return engineh.TypeNull
	}
	decl := s.handle().stmt.ColumnDeclType(col)
	switch {
	case strings.EqualFold(decl, "integer"):
		return engineh.TypeInteger
	case strings.EqualFold(decl, "float"):
		return engineh.TypeFloat
	case strings.EqualFold(decl, "text"):
		return engineh.TypeText
	case strings.EqualFold(decl, "blob"):
		return engineh.TypeBlob
	}
	return engineh.TypeNull
}

// Column reads return a type-appropriate zero value when the statement is
// invalid. Callers read after confirming Step returned a row, so reads
// are treated as always safe.

func (s *Statement) ColumnBool(col int) bool {
	return s.ColumnInt64(col) != 0
}

func (s *Statement) ColumnInt(col int) int {
	return int(s.ColumnInt64(col))
}

func (s *Statement) ColumnInt64(col int) int64 {
	if !s.checkValid() {
		return 0
	}
	return s.handle().stmt.ColumnInt64(col)
}

func (s *Statement) ColumnDouble(col int) float64 {
	if !s.checkValid() {
		return 0
	}
	return s.handle().stmt.ColumnDouble(col)
}

func (s *Statement) ColumnString(col int) string {
	if !s.checkValid() {
		return ""
	}
	return s.handle().stmt.ColumnText(col)
}

// ColumnByteLength returns the length in bytes of the value in column col.
func (s *Statement) ColumnByteLength(col int) int {
	if !s.checkValid() {
		return 0
	}
	return s.handle().stmt.ColumnLen(col)
}

// ColumnBlob returns a copy of the blob in column col, or nil if the value
// is empty or the statement is invalid.
func (s *Statement) ColumnBlob(col int) []byte {
	if !s.checkValid() {
		return nil
	}
	b := s.handle().stmt.ColumnBlob(col)
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

// ColumnBlobRO returns a read-only, zero-copy view of the blob in column
// col. The view is valid only until the next operation on this Statement.
func (s *Statement) ColumnBlobRO(col int) mem.RO {
	if !s.checkValid() {
		return mem.B(nil)
	}
	return mem.B(s.handle().stmt.ColumnBlob(col))
}

// ColumnTime parses the value in column col as a time. Integer values are
// read as seconds since epoch; text values are parsed as TimeFormat with
// trailing components dropped to match the stored precision. The zero
// time is returned for anything else.
func (s *Statement) ColumnTime(col int) time.Time {
	if !s.checkValid() {
		return time.Time{}
	}
	st := s.handle().stmt
	switch st.ColumnType(col) {
	case engineh.TypeInteger:
		return time.Unix(st.ColumnInt64(col), 0)
	case engineh.TypeText:
		v := st.ColumnText(col)
		format := TimeFormat
		if len(format) > len(v) {
			format = strings.TrimSuffix(format, "-0700")
		}
		if len(format) > len(v) {
			format = strings.TrimSuffix(format, ".000")
		}
		if len(format) > len(v) {
			format = strings.TrimSuffix(format, ":05")
		}
		t, err := time.Parse(format, v)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	return time.Time{}
}

// checkOK reports whether a bind was accepted by the engine. A bind
// targeting a parameter outside the statement's declared range is never
// silently swallowed: it indicates a programming error, not a data
// condition.
func (s *Statement) checkOK(code engineh.Code) bool {
	if code == engineh.CodeRange {
		contractViolation("Statement.Bind.Range")
	}
	return code == engineh.CodeOK
}

// checkError is the single classification point for step-family engine
// codes. It updates the success state and, on failure, escalates through
// the owning connection's error callback, which may transform the code or
// close the connection.
func (s *Statement) checkError(code engineh.Code) engineh.Code {
	s.succeeded = code == engineh.CodeOK || code == engineh.CodeRow || code == engineh.CodeDone
	if !s.succeeded {
		if c := s.handle().conn; c != nil {
			return c.onStatementError(code, s)
		}
	}
	return code
}

func (s *Statement) startTimer() {
	if c := s.handle().conn; c != nil && c.tracer != nil {
		s.stepStart = time.Now()
	}
}

// trace reports a finished execution to the connection's tracer: a Run,
// or the Step that ended a row loop.
func (s *Statement) trace(code engineh.Code) {
	c := s.handle().conn
	if c == nil || c.tracer == nil {
		return
	}
	c.tracer.Query(c.id, s.SQL(), time.Since(s.stepStart), engineh.CodeAsError(code))
}
