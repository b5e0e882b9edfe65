package store

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/polygenea/internal/graph"
	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
)

var rowsWritten = promauto.NewCounter(prometheus.CounterOpts{
	Name: "polygenea_journal_rows_written_total",
	Help: "Nodes newly written to a journal",
})

// Write journals nodes in one transaction and returns how many were new.
//
// Nodes are written by ascending height, so a node always follows the
// nodes it references. Uses ON CONFLICT(id) DO NOTHING for idempotency:
// nodes already journaled are skipped. If a reference target is neither
// journaled nor among ns the transaction is rolled back and Write fails
// with ir.ErrDanglingReference.
func (j *Journal) Write(ctx context.Context, ns ...node.Node) (int, error) {
	ordered := slices.Clone(ns)
	slices.SortStableFunc(ordered, func(a, b node.Node) int {
		return cmp.Or(cmp.Compare(a.Height(), b.Height()), node.Compare(a, b))
	})

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write nodes: %w", err)
	}
	defer tx.Rollback()

	written := 0
	for _, n := range ordered {
		added, err := writeNode(ctx, tx, n)
		if err != nil {
			return 0, err
		}
		if added {
			written++
			j.logger.Debug("node journaled", "class", n.Class(), "id", n.ID())
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write nodes: commit: %w", err)
	}
	rowsWritten.Add(float64(written))
	return written, nil
}

// Sync journals every node of g and returns how many were new.
func (j *Journal) Sync(ctx context.Context, g *graph.Store) (int, error) {
	written, err := j.Write(ctx, g.TopologicalOrder()...)
	if err != nil {
		return 0, err
	}
	j.logger.Info("journal synced", "nodes", g.Len(), "written", written)
	return written, nil
}

func writeNode(ctx context.Context, tx *sql.Tx, n node.Node) (bool, error) {
	body, err := node.Standalone(n)
	if err != nil {
		return false, fmt.Errorf("write node %s: %w", n.ID(), err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO nodes (id, class, height, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, n.ID().String(), n.Class(), n.Height(), string(body))
	if err != nil {
		return false, fmt.Errorf("write node %s: %w", n.ID(), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write node %s: %w", n.ID(), err)
	}
	if affected == 0 {
		return false, nil
	}

	for _, target := range node.OutEdges(n) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO edges (source, target)
			VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, n.ID().String(), target.ID().String())
		if isForeignKeyError(err) {
			return false, ir.Errorf(ir.ErrDanglingReference, "%s %s refers to %s %s, which is not journaled",
				n.Class(), n.ID(), target.Class(), target.ID()).WithID(target.ID().String())
		}
		if err != nil {
			return false, fmt.Errorf("write edge %s -> %s: %w", n.ID(), target.ID(), err)
		}
	}
	return true, nil
}

func isForeignKeyError(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
