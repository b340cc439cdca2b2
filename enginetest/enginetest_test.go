// Copyright (c) 2026 The sqlstmt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package enginetest

import (
	"strings"
	"testing"

	"github.com/sqlcore/sqlstmt/engineh"
)

func TestPrepareSplitsAtSemicolon(t *testing.T) {
	d := NewDB()
	d.Add(Query{SQL: "CREATE TABLE a (x)"})
	stmt, rem, code := d.Prepare("CREATE TABLE a (x); CREATE TABLE b (y);", 0)
	if code != engineh.CodeOK {
		t.Fatalf("Prepare = %v, want OK", code)
	}
	if want := " CREATE TABLE b (y);"; rem != want {
		t.Errorf("remaining = %q, want %q", rem, want)
	}
	if got := stmt.SQL(); got != "CREATE TABLE a (x)" {
		t.Errorf("SQL = %q", got)
	}
	stmt.Finalize()
}

func TestPrepareUnregistered(t *testing.T) {
	d := NewDB()
	stmt, _, code := d.Prepare("NOT SQL", 0)
	if stmt != nil || code != engineh.CodeError {
		t.Fatalf("Prepare = (%v, %v), want (nil, CodeError)", stmt, code)
	}
	if msg := d.ErrMsg(); !strings.Contains(msg, "syntax error") {
		t.Errorf("ErrMsg = %q, want syntax error text", msg)
	}
}

func TestEchoRow(t *testing.T) {
	d := NewDB()
	d.Add(Query{SQL: "SELECT ?, ?", Params: 2, Echo: true})
	stmt, _, code := d.Prepare("SELECT ?, ?", 0)
	if code != engineh.CodeOK {
		t.Fatal(code)
	}
	stmt.BindInt64(1, 7)
	stmt.BindText(2, "hi")
	if got := stmt.Step(); got != engineh.CodeRow {
		t.Fatalf("Step = %v, want Row", got)
	}
	if got := stmt.ColumnInt64(0); got != 7 {
		t.Errorf("col 0 = %d, want 7", got)
	}
	if got := stmt.ColumnText(1); got != "hi" {
		t.Errorf("col 1 = %q, want hi", got)
	}
	if got := stmt.Step(); got != engineh.CodeDone {
		t.Errorf("second Step = %v, want Done", got)
	}
	if got := stmt.ExpandedSQL(); got != "SELECT 7, 'hi'" {
		t.Errorf("ExpandedSQL = %q", got)
	}
}

func TestForcedStepCodes(t *testing.T) {
	d := NewDB()
	d.Add(Query{
		SQL:       "UPDATE t SET c = 1",
		StepCodes: []engineh.Code{engineh.CodeBusy},
	})
	stmt, _, _ := d.Prepare("UPDATE t SET c = 1", 0)
	if got := stmt.Step(); got != engineh.CodeBusy {
		t.Fatalf("Step = %v, want Busy", got)
	}
	// Reset echoes the last step failure, like the real engine.
	if got := stmt.Reset(); got != engineh.CodeBusy {
		t.Errorf("Reset = %v, want Busy", got)
	}
	// The forced code is consumed; the retry completes.
	if got := stmt.Step(); got != engineh.CodeDone {
		t.Errorf("retried Step = %v, want Done", got)
	}
}

func TestCannedRowsAndReset(t *testing.T) {
	d := NewDB()
	d.Add(Query{
		SQL:  "SELECT n FROM seq",
		Cols: []string{"INTEGER"},
		Rows: []Row{{1}, {2}},
	})
	stmt, _, _ := d.Prepare("SELECT n FROM seq", 0)
	var got []int64
	for stmt.Step() == engineh.CodeRow {
		got = append(got, stmt.ColumnInt64(0))
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("rows = %v, want [1 2]", got)
	}
	stmt.Reset()
	if code := stmt.Step(); code != engineh.CodeRow {
		t.Errorf("Step after Reset = %v, want Row", code)
	}
	if d.Steps() != 4 {
		t.Errorf("Steps = %d, want 4", d.Steps())
	}
}
