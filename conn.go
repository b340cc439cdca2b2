// Copyright (c) 2026 The sqlstmt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlstmt

import (
	"errors"
	"expvar"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/sqlcore/sqlstmt/engineh"
)

// Open is the engine-binding seam. A concrete engine binding registers
// itself here from an init function; the default refuses to open anything.
var Open engineh.OpenFunc = func(string, engineh.OpenFlags) (engineh.DB, error) {
	return nil, fmt.Errorf("sqlstmt: no engine binding registered")
}

// UsesAfterClose is a metric that is incremented every time an operation
// is attempted on a connection after Close has already been called. The
// keys are internal identifiers for the code path that incremented a
// counter.
var UsesAfterClose expvar.Map

// ErrClosed is returned when an operation is attempted on a connection
// after Close has already been called.
var ErrClosed = errors.New("sqlstmt: already closed")

var maxConnID atomic.Int32

// ErrorCallback is consulted on every engine failure classified by a
// statement on this connection. It receives the failing code and the
// statement for diagnostic text (its SQL and bound parameter dump), and
// returns the code to surface, possibly transformed. The callback may
// close the connection outright; live statements then observe IsValid
// flipping false.
type ErrorCallback func(code engineh.Code, stmt *Statement) engineh.Code

// Conn owns one open engine connection and compiles SQL text into shared
// statement handles. It is not safe for concurrent use: a connection and
// all its statements belong to a single goroutine at a time.
type Conn struct {
	db     engineh.DB
	id     engineh.TraceConnID
	tracer engineh.Tracer
	closed bool

	errorCallback ErrorCallback

	cache map[string]*StatementRef   // compiled statements by SQL text
	refs  map[*StatementRef]struct{} // every live ref compiled on this conn
}

// OpenConn opens the database at filename with the registered engine
// binding and wraps it in a Conn. The tracer may be nil.
func OpenConn(filename string, flags engineh.OpenFlags, tracer engineh.Tracer) (*Conn, error) {
	db, err := Open(filename, flags)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("sqlstmt.OpenConn: %w", err)
	}
	return NewConn(db, tracer), nil
}

// NewConn wraps an already-open engine connection. The tracer may be nil.
func NewConn(db engineh.DB, tracer engineh.Tracer) *Conn {
	return &Conn{
		db:     db,
		id:     engineh.TraceConnID(maxConnID.Add(1)),
		tracer: tracer,
		cache:  make(map[string]*StatementRef),
		refs:   make(map[*StatementRef]struct{}),
	}
}

// SetErrorCallback installs the error-escalation hook. Passing nil
// restores the default, which only counts the failure.
func (c *Conn) SetErrorCallback(cb ErrorCallback) {
	c.errorCallback = cb
}

// IsOpen reports whether the connection is usable.
func (c *Conn) IsOpen() bool { return c != nil && !c.closed }

// Close finalizes every statement compiled on this connection and closes
// the engine handle. Live Statements keep working as safe no-ops: their
// handles go invalid but remember that they were once valid.
func (c *Conn) Close() error {
	if c.closed {
		UsesAfterClose.Add("Close", 1)
		return nil
	}
	c.closed = true

	for r := range c.refs {
		r.close()
	}
	c.refs = make(map[*StatementRef]struct{})
	c.cache = nil

	return c.db.Close()
}

// CachedStatement returns a statement backed by the connection's cache.
// The compiled handle is shared: a later call with the same SQL reuses it,
// and it survives the Statement's Close. Use for hot, recurring queries.
//
// If sql fails to compile the returned Statement is permanently invalid;
// every operation on it reports failure without touching the engine.
func (c *Conn) CachedStatement(sql string) *Statement {
	return NewStatement(c.CachedStatementRef(sql))
}

// CachedStatementRef returns the cache-backed handle for sql, compiling
// it on first use. Most callers want CachedStatement; the ref form exists
// for re-pointing an existing Statement via Assign.
func (c *Conn) CachedStatementRef(sql string) *StatementRef {
	if r := c.cache[sql]; r != nil && r.Valid() {
		return r
	}
	r := c.prepare(sql, engineh.PreparePersistent)
	if r.Valid() {
		c.cache[sql] = r.acquire()
	}
	return r
}

// UniqueStatement compiles sql into a statement that is not cached. The
// compiled handle is released when the Statement is closed.
//
// Compile failure yields a permanently-invalid Statement, as with
// CachedStatement.
func (c *Conn) UniqueStatement(sql string) *Statement {
	return NewStatement(c.UniqueStatementRef(sql))
}

// UniqueStatementRef compiles sql into an uncached handle.
func (c *Conn) UniqueStatementRef(sql string) *StatementRef {
	return c.prepare(sql, 0)
}

func (c *Conn) prepare(sql string, flags engineh.PrepareFlags) *StatementRef {
	if c.closed {
		UsesAfterClose.Add("prepare", 1)
		return invalidRef
	}
	stmt, rem, code := c.db.Prepare(sql, flags)
	if code != engineh.CodeOK {
		if c.tracer != nil {
			c.tracer.Query(c.id, sql, 0, reserr(c.db, "Prepare", sql, code))
		}
		c.onError(code, nil)
		return newStatementRef(c, nil)
	}
	if strings.TrimSpace(rem) != "" {
		// A single-statement entry point was handed a script.
		contractViolation("Conn.Prepare.TrailingText")
	}
	return newStatementRef(c, stmt)
}

// Execute compiles and runs a statement that produces no result rows, and
// reports whether it ran to completion.
func (c *Conn) Execute(sql string) bool {
	s := c.UniqueStatement(sql)
	defer s.Close()
	return s.Run()
}

// ExecScript executes a series of SQL statements, stopping on the first
// error. The compiled statements are not cached.
func (c *Conn) ExecScript(queries string) error {
	if c.closed {
		UsesAfterClose.Add("ExecScript", 1)
		return ErrClosed
	}
	for {
		queries = strings.TrimSpace(queries)
		if queries == "" {
			return nil
		}
		stmt, rem, code := c.db.Prepare(queries, 0)
		if code != engineh.CodeOK {
			return reserr(c.db, "ExecScript", queries, code)
		}
		queries = rem
		// One-off script statements step the engine handle directly:
		// a failure here is returned to the caller, not escalated
		// through the statement error callback.
		stepCode := stmt.Step()
		err := reserr(c.db, "ExecScript", stmt.SQL(), stepCode)
		stmt.Finalize()
		if err != nil {
			return err
		}
	}
}

// Interrupt aborts any statement currently stepping on this connection.
// The aborted call classifies as a CodeInterrupt failure and its
// statement can be Reset and retried.
func (c *Conn) Interrupt() {
	if c.closed {
		UsesAfterClose.Add("Interrupt", 1)
		return
	}
	c.db.Interrupt()
}

// ErrMsg returns the engine's text for the most recent error on this
// connection.
func (c *Conn) ErrMsg() string {
	if c.closed {
		return ""
	}
	return c.db.ErrMsg()
}

// Errors counts classified engine failures by code. It is the default
// destination when no error callback is installed.
var Errors expvar.Map

// onStatementError is the escalation path for failures classified by a
// statement's step. stmt carries diagnostic context; it is nil when the
// failure happened during compilation.
func (c *Conn) onStatementError(code engineh.Code, stmt *Statement) engineh.Code {
	return c.onError(code, stmt)
}

func (c *Conn) onError(code engineh.Code, stmt *Statement) engineh.Code {
	if c.errorCallback != nil {
		return c.errorCallback(code, stmt)
	}
	Errors.Add(code.String(), 1)
	return code
}
