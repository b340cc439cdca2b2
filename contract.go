// Copyright (c) 2026 The sqlstmt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqlstmt

import (
	"expvar"
	"sync/atomic"
)

// ContractViolations counts statement misuse. The keys are internal
// identifiers for the code path that detected the violation.
//
// A contract violation is a programming error, not a runtime condition:
// binding after stepping, running a statement twice without Reset, binding a
// parameter outside the statement's declared range, or using a statement
// whose connection was closed out from under it. In the default lenient
// mode a violation is counted here and the operation reports failure; in
// strict mode it panics.
var ContractViolations expvar.Map

var strictChecks atomic.Bool

// SetStrictChecks selects the policy for contract violations.
//
// Strict mode panics at the violation site and is meant for tests and
// debug builds. The default lenient mode degrades violations to reported
// failure, because a statement legitimately goes invalid when an error
// handler closes its connection and live callers must tolerate that.
func SetStrictChecks(strict bool) {
	strictChecks.Store(strict)
}

func contractViolation(loc string) {
	ContractViolations.Add(loc, 1)
	if strictChecks.Load() {
		panic("sqlstmt: contract violation: " + loc)
	}
}
