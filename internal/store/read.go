package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/polygenea/internal/graph"
	"github.com/roach88/polygenea/internal/ir"
	"github.com/roach88/polygenea/internal/node"
)

// Replay rebuilds the journaled nodes into g and returns how many rows were
// read.
//
// Rows are read ORDER BY seq ASC, so every reference resolves to a row
// already read or to a node g holds. Each body is rebuilt through g's
// registry, which recomputes content identities; a row whose rebuilt
// identity differs from its id column fails with ir.ErrIdentity. All nodes
// are added to g in one call, so a failed replay leaves g untouched.
func (j *Journal) Replay(ctx context.Context, g *graph.Store) (int, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, id, body
		FROM nodes
		ORDER BY seq ASC
	`)
	if err != nil {
		return 0, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	built := make(map[uuid.UUID]node.Node)
	lk := node.LookupFunc(func(token ir.IRValue) (node.Node, error) {
		if s, ok := token.(ir.IRString); ok {
			if id, err := uuid.Parse(string(s)); err == nil {
				if n, ok := built[id]; ok {
					return n, nil
				}
			}
		}
		return g.Lookup(token)
	})

	var ordered []node.Node
	for rows.Next() {
		var (
			seq  int64
			id   string
			body string
		)
		if err := rows.Scan(&seq, &id, &body); err != nil {
			return 0, fmt.Errorf("scan node: %w", err)
		}
		v, err := ir.ParseString(body)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", seq, err)
		}
		n, err := node.FromValue(v, lk, g.Registry())
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", seq, err)
		}
		if n.ID().String() != id {
			return 0, ir.Errorf(ir.ErrIdentity, "row %d: body rebuilds as %s, journaled as %s", seq, n.ID(), id).WithID(id)
		}
		built[n.ID()] = n
		ordered = append(ordered, n)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate nodes: %w", err)
	}

	if err := g.Add(ordered...); err != nil {
		return 0, err
	}
	j.logger.Info("journal replayed", "rows", len(ordered), "nodes", g.Len())
	return len(ordered), nil
}

// Len returns the number of journaled nodes.
func (j *Journal) Len(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

// Referrers returns the identities of journaled nodes that reference id,
// ordered by id.
//
// Returns an empty slice (not nil) if nothing references id.
func (j *Journal) Referrers(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT source
		FROM edges
		WHERE target = ?
		ORDER BY source COLLATE BINARY ASC
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query referrers: %w", err)
	}
	defer rows.Close()

	out := []uuid.UUID{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan referrer: %w", err)
		}
		ref, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("referrer %q: %w", s, err)
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referrers: %w", err)
	}
	return out, nil
}
