// Package store provides a SQLite journal for polygenea nodes.
//
// The journal is append-only: each node is one row holding its stand-alone
// canonical text, and rows are written dependencies first. Replaying the
// rows in order rebuilds a graph.Store with every identity intact.
//
// # Tables
//
//   - nodes: seq, id (UNIQUE), class, height, body
//   - edges: (source, target) pairs, both foreign keys into nodes
//
// Writes use ON CONFLICT DO NOTHING, so journaling a node twice is a no-op.
// A node whose reference target is neither journaled nor written in the
// same call is refused by the edges foreign key and reported as
// ir.ErrDanglingReference.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
