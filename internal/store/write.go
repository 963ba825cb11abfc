package store

import (
	"context"
	"fmt"

	"github.com/roach88/weft/internal/graph"
	"github.com/roach88/weft/internal/ir"
)

// RecordRun writes a finished session's execution graph in a single
// transaction: the run row, the full event arena, and every edge set
// (derived fr included, so the log is self-contained for readers that do
// not want to re-derive it).
//
// Recording the same run token twice is an error: traces are append-only
// at the granularity of whole runs.
func (s *Store) RecordRun(ctx context.Context, token, model string, g *graph.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin trace transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (token, model, engine_version, trace_version, event_count)
		 VALUES (?, ?, ?, ?, ?)`,
		token, model, ir.EngineVersion, ir.TraceVersion, g.Len(),
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", token, err)
	}

	eventStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (run_token, id, thread, instr_index, kind, loc, value, mode, origin)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare event insert: %w", err)
	}
	defer eventStmt.Close()

	for _, e := range g.Events() {
		_, err := eventStmt.ExecContext(ctx,
			token, int(e.ID), e.Thread, e.Index, e.Kind.String(),
			string(e.Loc), e.Value, e.Mode.String(), int(e.Origin),
		)
		if err != nil {
			return fmt.Errorf("write event %d: %w", int(e.ID), err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges (run_token, kind, src, dst) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()

	edgeSets := []struct {
		kind  string
		edges []graph.Edge
	}{
		{"po", g.PO()},
		{"rf", g.RF()},
		{"mo", g.MO()},
		{"sw", g.SW()},
		{"fr", g.FR()},
	}
	for _, set := range edgeSets {
		for _, e := range set.edges {
			if _, err := edgeStmt.ExecContext(ctx, token, set.kind, int(e.From), int(e.To)); err != nil {
				return fmt.Errorf("write %s edge e%d->e%d: %w", set.kind, int(e.From), int(e.To), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trace for run %s: %w", token, err)
	}
	return nil
}
