// Copyright (c) 2026 The sqlstmt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engineh

import "testing"

func TestCodeString(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeOK, "ENGINE_OK(not an error)"},
		{CodeError, "ENGINE_ERROR"},
		{CodeBusy, "ENGINE_BUSY"},
		{CodeRange, "ENGINE_RANGE"},
		{CodeRow, "ENGINE_ROW(not an error)"},
		{CodeDone, "ENGINE_DONE(not an error)"},
		{Code(9999), "ENGINE_UNKNOWN_ERR(9999)"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("Code(%d).String() = %q, want %q", int(tt.code), got, tt.want)
		}
	}
}

func TestCodeAsError(t *testing.T) {
	for _, code := range []Code{CodeOK, CodeRow, CodeDone} {
		if err := CodeAsError(code); err != nil {
			t.Errorf("CodeAsError(%v) = %v, want nil", code, err)
		}
	}
	err := CodeAsError(CodeBusy)
	if err == nil {
		t.Fatal("CodeAsError(CodeBusy) = nil, want error")
	}
	ec, ok := err.(ErrCode)
	if !ok {
		t.Fatalf("CodeAsError(CodeBusy) type %T, want ErrCode", err)
	}
	if Code(ec) != CodeBusy {
		t.Errorf("error code = %v, want CodeBusy", Code(ec))
	}
	if got := err.Error(); got != "ENGINE_BUSY" {
		t.Errorf("Error() = %q, want ENGINE_BUSY", got)
	}
}

func TestColumnTypeString(t *testing.T) {
	tests := []struct {
		ct   ColumnType
		want string
	}{
		{TypeInteger, "INTEGER"},
		{TypeFloat, "FLOAT"},
		{TypeText, "TEXT"},
		{TypeBlob, "BLOB"},
		{TypeNull, "NULL"},
	}
	for _, tt := range tests {
		if got := tt.ct.String(); got != tt.want {
			t.Errorf("ColumnType(%d).String() = %q, want %q", int(tt.ct), got, tt.want)
		}
	}
}
