// Copyright (c) 2026 The sqlstmt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stmtstats implements an engineh.Tracer that collects per-query
// execution stats.
//
// To use, pass the Tracer to sqlstmt.NewConn, then start a debug web
// server with http.HandlerFunc(tracer.Handle).
package stmtstats

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sqlcore/sqlstmt/engineh"
)

// Tracer collects statement execution stats.
//
// Once a query has been seen once, only the read lock is required to
// update its stats.
type Tracer struct {
	mu      sync.RWMutex
	queries map[string]*queryStats // query -> stats
}

type queryStats struct {
	query string

	// When inside the queries map all fields must be accessed as atomics.
	count    int64
	errors   int64
	duration int64 // time.Duration
}

// QueryStat is a point-in-time snapshot of one query's stats.
type QueryStat struct {
	Query    string
	Count    int64
	Errors   int64
	Duration time.Duration
	Mean     time.Duration
}

func (t *Tracer) queryStats(query string) *queryStats {
	t.mu.RLock()
	stats := t.queries[query]
	t.mu.RUnlock()

	if stats != nil {
		return stats
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.queries == nil {
		t.queries = make(map[string]*queryStats)
	}
	stats = t.queries[query]
	if stats == nil {
		stats = &queryStats{query: query}
		t.queries[query] = stats
	}
	return stats
}

// Query implements engineh.Tracer.
func (t *Tracer) Query(id engineh.TraceConnID, query string, duration time.Duration, err error) {
	stats := t.queryStats(query)

	atomic.AddInt64(&stats.count, 1)
	atomic.AddInt64(&stats.duration, int64(duration))
	if err != nil {
		atomic.AddInt64(&stats.errors, 1)
	}
}

// Stats returns a snapshot of every query seen so far, unordered.
func (t *Tracer) Stats() (rows []QueryStat) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for query, s := range t.queries {
		row := QueryStat{
			Query:    query,
			Count:    atomic.LoadInt64(&s.count),
			Errors:   atomic.LoadInt64(&s.errors),
			Duration: time.Duration(atomic.LoadInt64(&s.duration)),
		}
		if row.Count > 0 {
			row.Mean = row.Duration / time.Duration(row.Count)
		}
		rows = append(rows, row)
	}
	return rows
}

// Handle serves the collected stats as an HTML table. The sort GET
// parameter selects the order: count (default), query, duration, errors,
// or mean.
func (t *Tracer) Handle(w http.ResponseWriter, r *http.Request) {
	getArgs, _ := url.ParseQuery(r.URL.RawQuery)
	sortParam := strings.TrimSpace(getArgs.Get("sort"))
	rows := t.Stats()

	switch sortParam {
	case "", "count":
		sort.Slice(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	case "query":
		sort.Slice(rows, func(i, j int) bool { return rows[i].Query < rows[j].Query })
	case "duration":
		sort.Slice(rows, func(i, j int) bool { return rows[i].Duration > rows[j].Duration })
	case "errors":
		sort.Slice(rows, func(i, j int) bool { return rows[i].Errors > rows[j].Errors })
	case "mean":
		sort.Slice(rows, func(i, j int) bool { return rows[i].Mean > rows[j].Mean })
	default:
		http.Error(w, fmt.Sprintf("unknown sort: %q", sortParam), 400)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(200)
	fmt.Fprintf(w, `<!DOCTYPE html><html><body>
<table border="1">
<tr>
<th><a href="?sort=query">Query</a></th>
<th><a href="?sort=count">Count</a></th>
<th><a href="?sort=errors">Errors</a></th>
<th><a href="?sort=duration">Total</a></th>
<th><a href="?sort=mean">Mean</a></th>
</tr>
`)
	for _, row := range rows {
		fmt.Fprintf(w, "<tr><td><code>%s</code></td><td>%d</td><td>%d</td><td>%v</td><td>%v</td></tr>\n",
			html.EscapeString(row.Query), row.Count, row.Errors,
			row.Duration.Round(time.Microsecond), row.Mean.Round(time.Microsecond))
	}
	fmt.Fprintf(w, "</table></body></html>\n")
}
