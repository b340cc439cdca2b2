// Copyright (c) 2026 The sqlstmt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package enginetest is a scriptable in-memory engine for tests.
//
// A test registers the statements it intends to prepare, each with a
// parameter count, declared column types, and either canned result rows or
// echo mode, where the single result row reflects the current parameter
// bindings. Step codes can be forced to exercise error paths. The engine
// mimics the real one's conventions: 1-based parameters, 0-based columns,
// raw result codes, lenient zero-value column reads.
package enginetest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sqlcore/sqlstmt/engineh"
)

// Row is one result row. Cells are nil, int64, float64, string or []byte;
// Add normalizes int and bool cells for convenience.
type Row []any

// Query describes one statement the test plans to prepare.
type Query struct {
	SQL    string
	Params int      // number of ? parameters
	Cols   []string // declared column type strings, by column
	Rows   []Row    // canned result rows, served in order
	Echo   bool     // serve one row reflecting the current bindings

	// StepCodes are consumed, one per Step call, before any rows are
	// served. Use to force Busy, IOErr and friends.
	StepCodes []engineh.Code
}

// DB implements engineh.DB over registered queries.
type DB struct {
	queries     map[string]*Query
	prepares    map[string]int
	steps       int
	closed      bool
	interrupted bool
	errMsg      string
}

func NewDB() *DB {
	return &DB{
		queries:  make(map[string]*Query),
		prepares: make(map[string]int),
	}
}

// Opener returns an engineh.OpenFunc that hands out this DB, for wiring
// the test engine into the sqlstmt.Open seam.
func (d *DB) Opener() engineh.OpenFunc {
	return func(string, engineh.OpenFlags) (engineh.DB, error) {
		return d, nil
	}
}

// Add registers q. Preparing any SQL that was not registered fails with
// CodeError, the engine's answer to SQL it cannot parse.
func (d *DB) Add(q Query) {
	rows := make([]Row, len(q.Rows))
	for i, r := range q.Rows {
		rows[i] = normalizeRow(r)
	}
	q.Rows = rows
	d.queries[normalize(q.SQL)] = &q
}

// SetErrMsg sets the text ErrMsg reports for the next failure.
func (d *DB) SetErrMsg(msg string) { d.errMsg = msg }

// Steps returns the total number of Step calls made on any statement,
// so tests can assert the engine was, or was not, touched.
func (d *DB) Steps() int { return d.steps }

// Prepares returns how many times sql has been compiled.
func (d *DB) Prepares(sql string) int { return d.prepares[normalize(sql)] }

func (d *DB) Close() error {
	if d.closed {
		return engineh.ErrCode(engineh.CodeMisuse)
	}
	d.closed = true
	return nil
}

func (d *DB) ErrMsg() string { return d.errMsg }

// Interrupt makes the next Step on any statement fail with CodeInterrupt.
func (d *DB) Interrupt() { d.interrupted = true }

func (d *DB) Prepare(query string, flags engineh.PrepareFlags) (engineh.Stmt, string, engineh.Code) {
	if d.closed {
		return nil, "", engineh.CodeMisuse
	}
	head, rem := query, ""
	if i := strings.IndexByte(query, ';'); i >= 0 {
		head, rem = query[:i], query[i+1:]
	}
	q := d.queries[normalize(head)]
	if q == nil {
		d.errMsg = fmt.Sprintf("near %q: syntax error", strings.TrimSpace(head))
		return nil, "", engineh.CodeError
	}
	d.prepares[normalize(head)]++
	return &Stmt{
		db:     d,
		q:      q,
		sql:    strings.TrimSpace(head),
		params: make([]any, q.Params),
		codes:  append([]engineh.Code(nil), q.StepCodes...),
	}, rem, engineh.CodeOK
}

func normalize(sql string) string {
	sql = strings.TrimSpace(sql)
	sql = strings.TrimSuffix(sql, ";")
	return strings.TrimSpace(sql)
}

func normalizeRow(r Row) Row {
	out := make(Row, len(r))
	for i, cell := range r {
		switch v := cell.(type) {
		case int:
			out[i] = int64(v)
		case bool:
			if v {
				out[i] = int64(1)
			} else {
				out[i] = int64(0)
			}
		default:
			out[i] = cell
		}
	}
	return out
}

// Stmt implements engineh.Stmt for one prepared registered query.
type Stmt struct {
	db        *DB
	q         *Query
	sql       string
	params    []any
	codes     []engineh.Code
	pos       int // rows served since the last reset
	cur       Row // current row, nil when none positioned
	lastErr   engineh.Code
	finalized bool
}

func (s *Stmt) SQL() string { return s.sql }

func (s *Stmt) ExpandedSQL() string {
	var b strings.Builder
	param := 0
	for i := 0; i < len(s.sql); i++ {
		if s.sql[i] != '?' {
			b.WriteByte(s.sql[i])
			continue
		}
		if param < len(s.params) {
			writeCell(&b, s.params[param])
			param++
		} else {
			b.WriteString("NULL")
		}
	}
	return b.String()
}

func writeCell(b *strings.Builder, cell any) {
	switch v := cell.(type) {
	case nil:
		b.WriteString("NULL")
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case string:
		fmt.Fprintf(b, "'%s'", strings.ReplaceAll(v, "'", "''"))
	case []byte:
		fmt.Fprintf(b, "x'%x'", v)
	}
}

func (s *Stmt) Finalize() engineh.Code {
	if s.finalized {
		return engineh.CodeMisuse
	}
	s.finalized = true
	s.cur = nil
	return engineh.CodeOK
}

func (s *Stmt) Reset() engineh.Code {
	s.pos = 0
	s.cur = nil
	// Real engines echo the most recent step failure from reset.
	if s.lastErr != 0 {
		return s.lastErr
	}
	return engineh.CodeOK
}

func (s *Stmt) ClearBindings() engineh.Code {
	for i := range s.params {
		s.params[i] = nil
	}
	return engineh.CodeOK
}

func (s *Stmt) Step() engineh.Code {
	if s.finalized || s.db.closed {
		return engineh.CodeMisuse
	}
	s.db.steps++
	if s.db.interrupted {
		s.db.interrupted = false
		s.lastErr = engineh.CodeInterrupt
		s.cur = nil
		return engineh.CodeInterrupt
	}
	if len(s.codes) > 0 {
		code := s.codes[0]
		s.codes = s.codes[1:]
		if code != engineh.CodeRow && code != engineh.CodeDone && code != engineh.CodeOK {
			s.lastErr = code
			s.cur = nil
			return code
		}
		return code
	}
	if s.q.Echo {
		if s.pos == 0 {
			s.pos++
			s.cur = s.params
			return engineh.CodeRow
		}
		s.cur = nil
		return engineh.CodeDone
	}
	if s.pos < len(s.q.Rows) {
		s.cur = s.q.Rows[s.pos]
		s.pos++
		return engineh.CodeRow
	}
	s.cur = nil
	return engineh.CodeDone
}

func (s *Stmt) bindable(param int) bool {
	return param >= 1 && param <= len(s.params)
}

func (s *Stmt) bind(param int, v any) engineh.Code {
	if s.finalized {
		return engineh.CodeMisuse
	}
	if !s.bindable(param) {
		return engineh.CodeRange
	}
	s.params[param-1] = v
	return engineh.CodeOK
}

func (s *Stmt) BindNull(param int) engineh.Code { return s.bind(param, nil) }

func (s *Stmt) BindInt64(param int, v int64) engineh.Code { return s.bind(param, v) }

func (s *Stmt) BindDouble(param int, v float64) engineh.Code { return s.bind(param, v) }

func (s *Stmt) BindText(param int, v string) engineh.Code { return s.bind(param, v) }

func (s *Stmt) BindBlob(param int, v []byte) engineh.Code {
	// Copy, like the transient bind the wrapper asks the real engine for.
	return s.bind(param, append([]byte(nil), v...))
}

func (s *Stmt) BindParameterCount() int { return len(s.params) }

func (s *Stmt) ColumnCount() int {
	if len(s.q.Cols) > 0 {
		return len(s.q.Cols)
	}
	if s.q.Echo {
		return s.q.Params
	}
	if len(s.q.Rows) > 0 {
		return len(s.q.Rows[0])
	}
	return 0
}

func (s *Stmt) ColumnDeclType(col int) string {
	if col < 0 || col >= len(s.q.Cols) {
		return ""
	}
	return s.q.Cols[col]
}

func (s *Stmt) cell(col int) any {
	if s.cur == nil || col < 0 || col >= len(s.cur) {
		return nil
	}
	return s.cur[col]
}

func (s *Stmt) ColumnType(col int) engineh.ColumnType {
	switch s.cell(col).(type) {
	case int64:
		return engineh.TypeInteger
	case float64:
		return engineh.TypeFloat
	case string:
		return engineh.TypeText
	case []byte:
		return engineh.TypeBlob
	}
	return engineh.TypeNull
}

func (s *Stmt) ColumnInt64(col int) int64 {
	switch v := s.cell(col).(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func (s *Stmt) ColumnDouble(col int) float64 {
	switch v := s.cell(col).(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func (s *Stmt) ColumnText(col int) string {
	switch v := s.cell(col).(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []byte:
		return string(v)
	}
	return ""
}

func (s *Stmt) ColumnBlob(col int) []byte {
	switch v := s.cell(col).(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return nil
}

func (s *Stmt) ColumnLen(col int) int {
	switch v := s.cell(col).(type) {
	case []byte:
		return len(v)
	case string:
		return len(v)
	case nil:
		return 0
	}
	return len(s.ColumnText(col))
}
