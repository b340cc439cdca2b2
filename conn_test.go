// Copyright (c) 2026 The sqlstmt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlstmt

import (
	"errors"
	"strings"
	"testing"

	"github.com/sqlcore/sqlstmt/engineh"
	"github.com/sqlcore/sqlstmt/enginetest"
)

func TestCachedStatement(t *testing.T) {
	c, db := newTestConn(t, enginetest.Query{
		SQL:    "SELECT val FROM kv WHERE key = ?",
		Params: 1,
		Cols:   []string{"TEXT"},
		Rows:   []enginetest.Row{{"v"}},
	})

	s1 := c.CachedStatement("SELECT val FROM kv WHERE key = ?")
	if !s1.IsValid() {
		t.Fatal("cached statement invalid")
	}
	s1.BindString(0, "k")
	if !s1.Step() {
		t.Fatal("Step=false, want a row")
	}
	s1.Close()

	// The compiled handle outlives the Statement and is reused.
	s2 := c.CachedStatement("SELECT val FROM kv WHERE key = ?")
	defer s2.Close()
	if !s2.IsValid() {
		t.Fatal("re-acquired cached statement invalid")
	}
	if got := db.Prepares("SELECT val FROM kv WHERE key = ?"); got != 1 {
		t.Errorf("prepares=%d, want 1: cache must reuse the compiled statement", got)
	}

	// Statement.Close resets the shared handle, so the next user starts
	// from a clean cursor.
	if !s2.Step() {
		t.Error("Step=false on re-acquired statement, want a row")
	}
}

func TestUniqueStatementNotCached(t *testing.T) {
	c, db := newTestConn(t, enginetest.Query{SQL: "SELECT 1", Cols: []string{"INTEGER"}, Rows: []enginetest.Row{{1}}})
	c.UniqueStatement("SELECT 1").Close()
	c.UniqueStatement("SELECT 1").Close()
	if got := db.Prepares("SELECT 1"); got != 2 {
		t.Errorf("prepares=%d, want 2", got)
	}
}

func TestExecute(t *testing.T) {
	c, _ := newTestConn(t, enginetest.Query{SQL: "CREATE TABLE t (c)"})
	if !c.Execute("CREATE TABLE t (c)") {
		t.Error("Execute=false, want true")
	}
	if c.Execute("BOGUS") {
		t.Error("Execute of invalid SQL = true, want false")
	}
}

func TestExecScript(t *testing.T) {
	c, db := newTestConn(t,
		enginetest.Query{SQL: "CREATE TABLE a (x)"},
		enginetest.Query{SQL: "CREATE TABLE b (y)"},
	)
	if err := c.ExecScript("CREATE TABLE a (x); CREATE TABLE b (y);"); err != nil {
		t.Fatal(err)
	}
	if got := db.Prepares("CREATE TABLE a (x)"); got != 1 {
		t.Errorf("prepares(a)=%d, want 1", got)
	}
	if got := db.Prepares("CREATE TABLE b (y)"); got != 1 {
		t.Errorf("prepares(b)=%d, want 1", got)
	}
}

func TestExecScriptStopsOnError(t *testing.T) {
	c, db := newTestConn(t, enginetest.Query{SQL: "CREATE TABLE a (x)"})
	err := c.ExecScript("CREATE TABLE a (x); NOT SQL; CREATE TABLE c (z);")
	if err == nil {
		t.Fatal("ExecScript of bad script succeeded, want error")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error type %T, want *Error", err)
	}
	if e.Loc != "ExecScript" {
		t.Errorf("error Loc=%q, want ExecScript", e.Loc)
	}
	if !strings.Contains(e.Msg, "syntax error") {
		t.Errorf("error Msg=%q, want engine syntax error text", e.Msg)
	}
	// The statement after the failure must not have been reached.
	if got := db.Prepares("CREATE TABLE c (z)"); got != 0 {
		t.Errorf("prepares(c)=%d, want 0", got)
	}
}

func TestInterrupt(t *testing.T) {
	c, _ := newTestConn(t, enginetest.Query{
		SQL:  "SELECT id FROM slow",
		Cols: []string{"INTEGER"},
		Rows: []enginetest.Row{{1}},
	})
	var gotCode engineh.Code
	c.SetErrorCallback(func(code engineh.Code, stmt *Statement) engineh.Code {
		gotCode = code
		return code
	})

	s := c.UniqueStatement("SELECT id FROM slow")
	defer s.Close()
	c.Interrupt()
	if s.Step() {
		t.Fatal("Step=true after Interrupt, want false")
	}
	if s.Succeeded() {
		t.Error("Succeeded=true after Interrupt, want false")
	}
	if gotCode != engineh.CodeInterrupt {
		t.Errorf("callback code=%v, want INTERRUPT", gotCode)
	}

	// The interrupt is one-shot; a Reset and retry runs to completion.
	s.Reset(false)
	if !s.Step() {
		t.Error("Step=false on retry after Interrupt, want a row")
	}
}

func TestErrMsg(t *testing.T) {
	c, _ := newTestConn(t)
	s := c.UniqueStatement("NONSENSE")
	defer s.Close()
	if got := c.ErrMsg(); !strings.Contains(got, "syntax error") {
		t.Errorf("ErrMsg=%q, want syntax error text", got)
	}
}

func TestUsesAfterClose(t *testing.T) {
	c, _ := newTestConn(t, enginetest.Query{SQL: "SELECT 1", Cols: []string{"INTEGER"}, Rows: []enginetest.Row{{1}}})
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if c.IsOpen() {
		t.Error("IsOpen=true after Close")
	}

	before := counter(&UsesAfterClose, "prepare")
	s := c.UniqueStatement("SELECT 1")
	defer s.Close()
	if s.IsValid() {
		t.Error("statement prepared on closed connection is valid")
	}
	if got := counter(&UsesAfterClose, "prepare"); got != before+1 {
		t.Errorf("UsesAfterClose[prepare]=%d, want %d", got, before+1)
	}

	if err := c.ExecScript("SELECT 1;"); err != ErrClosed {
		t.Errorf("ExecScript on closed connection = %v, want ErrClosed", err)
	}

	before = counter(&UsesAfterClose, "Close")
	if err := c.Close(); err != nil {
		t.Errorf("double Close = %v, want nil", err)
	}
	if got := counter(&UsesAfterClose, "Close"); got != before+1 {
		t.Errorf("UsesAfterClose[Close]=%d, want %d", got, before+1)
	}
}

func TestOpenConn(t *testing.T) {
	// The default seam refuses to open anything.
	if _, err := OpenConn("file:x", engineh.OpenFlagsDefault, nil); err == nil {
		t.Fatal("OpenConn with no engine binding succeeded, want error")
	}

	db := enginetest.NewDB()
	db.Add(enginetest.Query{SQL: "CREATE TABLE t (c)"})
	prev := Open
	Open = db.Opener()
	defer func() { Open = prev }()

	c, err := OpenConn("file:x", engineh.OpenFlagsDefault, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if !c.Execute("CREATE TABLE t (c)") {
		t.Error("Execute on opened conn = false, want true")
	}
}
