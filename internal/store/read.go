package store

import (
	"context"
	"fmt"
)

// RunInfo summarizes one recorded run.
type RunInfo struct {
	Token      string `json:"token"`
	Model      string `json:"model"`
	EventCount int    `json:"event_count"`
}

// TraceEvent is one event row of a recorded run.
type TraceEvent struct {
	ID     int    `json:"id"`
	Thread int    `json:"thread"`
	Index  int    `json:"instr_index"`
	Kind   string `json:"kind"`
	Loc    string `json:"loc,omitempty"`
	Value  int64  `json:"value"`
	Mode   string `json:"mode,omitempty"`
	Origin int    `json:"origin"`
}

// TraceEdge is one edge row of a recorded run.
type TraceEdge struct {
	Kind string `json:"kind"`
	Src  int    `json:"src"`
	Dst  int    `json:"dst"`
}

// RunTrace is a whole recorded run, in deterministic order: events by id,
// edges by (kind, src, dst) insertion order.
type RunTrace struct {
	Run    RunInfo      `json:"run"`
	Events []TraceEvent `json:"events"`
	Edges  []TraceEdge  `json:"edges"`
}

// ListRuns returns all recorded runs ordered by token. UUIDv7 run tokens
// sort by creation time, so the listing is chronological.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT token, model, event_count FROM runs ORDER BY token ASC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		if err := rows.Scan(&r.Token, &r.Model, &r.EventCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ReadRun loads one recorded run by token.
func (s *Store) ReadRun(ctx context.Context, token string) (*RunTrace, error) {
	var trace RunTrace
	err := s.db.QueryRowContext(ctx,
		`SELECT token, model, event_count FROM runs WHERE token = ?`, token).
		Scan(&trace.Run.Token, &trace.Run.Model, &trace.Run.EventCount)
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", token, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread, instr_index, kind, loc, value, mode, origin
		 FROM events WHERE run_token = ? ORDER BY id ASC`, token)
	if err != nil {
		return nil, fmt.Errorf("read events for run %s: %w", token, err)
	}
	defer rows.Close()
	for rows.Next() {
		var e TraceEvent
		if err := rows.Scan(&e.ID, &e.Thread, &e.Index, &e.Kind, &e.Loc, &e.Value, &e.Mode, &e.Origin); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		trace.Events = append(trace.Events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := s.db.QueryContext(ctx,
		`SELECT kind, src, dst FROM edges WHERE run_token = ? ORDER BY rowid ASC`, token)
	if err != nil {
		return nil, fmt.Errorf("read edges for run %s: %w", token, err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e TraceEdge
		if err := edgeRows.Scan(&e.Kind, &e.Src, &e.Dst); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		trace.Edges = append(trace.Edges, e)
	}
	return &trace, edgeRows.Err()
}
