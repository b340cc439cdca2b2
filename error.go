// Copyright (c) 2026 The sqlstmt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlstmt

import (
	"strings"

	"github.com/sqlcore/sqlstmt/engineh"
)

// Error is an error produced by the engine.
type Error struct {
	Code  engineh.Code // engine error code (CodeOK is an invalid value)
	Loc   string       // method name that generated the error
	Query string       // original SQL query text
	Msg   string       // engine error text, if available
}

func (err Error) Error() string {
	b := new(strings.Builder)
	b.WriteString("sqlstmt")
	if err.Loc != "" {
		b.WriteByte('.')
		b.WriteString(err.Loc)
	}
	b.WriteString(": ")
	b.WriteString(err.Code.String())
	if err.Msg != "" {
		b.WriteString(": ")
		b.WriteString(err.Msg)
	}
	if err.Query != "" {
		b.WriteString(" (")
		b.WriteString(err.Query)
		b.WriteByte(')')
	}
	return b.String()
}

func reserr(db engineh.DB, loc, query string, code engineh.Code) error {
	if code == engineh.CodeOK || code == engineh.CodeRow || code == engineh.CodeDone {
		return nil
	}
	e := &Error{
		Code:  code,
		Loc:   loc,
		Query: query,
	}
	if db != nil {
		e.Msg = db.ErrMsg()
	}
	return e
}
