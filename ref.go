// Copyright (c) 2026 The sqlstmt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlstmt

import "github.com/sqlcore/sqlstmt/engineh"

// StatementRef is a shared handle around one compiled statement.
//
// A ref can be held by several Statements and by the owning connection's
// statement cache at once; the compiled statement is finalized when the
// last holder lets go, or immediately when the connection closes. Refs
// follow the connection's single-goroutine model and do no locking.
type StatementRef struct {
	conn     *Conn
	stmt     engineh.Stmt
	wasValid bool
	holds    int
}

// invalidRef is the canonical empty handle. Every Statement not bound to a
// compiled statement points here, so validity is always a field check,
// never a nil check. It is inert: acquire and release skip it.
var invalidRef = &StatementRef{}

func newStatementRef(conn *Conn, stmt engineh.Stmt) *StatementRef {
	r := &StatementRef{
		conn:     conn,
		stmt:     stmt,
		wasValid: stmt != nil,
	}
	if conn != nil {
		conn.refs[r] = struct{}{}
	}
	return r
}

// Valid reports whether the compiled statement is live.
func (r *StatementRef) Valid() bool { return r.stmt != nil }

// WasEverValid reports whether the ref ever held a compiled statement.
// It stays true after the statement is invalidated by a connection close,
// which is how "became invalid" is told apart from "never valid".
func (r *StatementRef) WasEverValid() bool { return r.wasValid }

// OwningConn returns the connection the statement was compiled on, or nil
// for the empty handle or after the connection closed.
func (r *StatementRef) OwningConn() *Conn { return r.conn }

func (r *StatementRef) acquire() *StatementRef {
	if r != invalidRef {
		r.holds++
	}
	return r
}

func (r *StatementRef) release() {
	if r == invalidRef {
		return
	}
	r.holds--
	if r.holds <= 0 {
		r.close()
	}
}

// close finalizes the compiled statement and detaches from the connection.
// wasValid deliberately stays set.
func (r *StatementRef) close() {
	if r.stmt != nil {
		r.stmt.Finalize()
		r.stmt = nil
	}
	if r.conn != nil {
		delete(r.conn.refs, r)
		r.conn = nil
	}
}
