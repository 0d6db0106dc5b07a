// Package store persists analyzed call graphs to a local SQLite
// database so callers and callees can be queried without re-running the
// analysis.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"solgraph/internal/graph"
	"solgraph/util"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL UNIQUE,
	label   TEXT NOT NULL,
	cluster TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nodes_cluster ON nodes(cluster);

CREATE TABLE IF NOT EXISTS edges (
	caller TEXT NOT NULL,
	callee TEXT NOT NULL,
	kind   TEXT NOT NULL,
	PRIMARY KEY (caller, callee, kind)
);
CREATE INDEX IF NOT EXISTS idx_edges_callee ON edges(callee);
`

// Store wraps the SQLite handle. A single writer is assumed; WAL mode
// keeps concurrent readers from blocking on it.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveGraph replaces the stored snapshot with the given graph in one
// transaction.
func (s *Store) SaveGraph(ctx context.Context, g *graph.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM edges", "DELETE FROM nodes"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: clear snapshot: %w", err)
		}
	}

	insNode, err := tx.PrepareContext(ctx,
		"INSERT INTO nodes (id, name, label, cluster) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer insNode.Close()

	for _, n := range g.Nodes() {
		id := util.GenerateNodeID(n.Cluster, n.Name)
		if _, err := insNode.ExecContext(ctx, id, n.Name, n.Label, n.Cluster); err != nil {
			return fmt.Errorf("store: insert node %s: %w", n.Name, err)
		}
	}

	insEdge, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO edges (caller, callee, kind) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer insEdge.Close()

	for _, e := range g.Edges() {
		if _, err := insEdge.ExecContext(ctx, e.From, e.To, string(e.Kind)); err != nil {
			return fmt.Errorf("store: insert edge %s -> %s: %w", e.From, e.To, err)
		}
	}

	return tx.Commit()
}

// FindCallers returns the edges whose callee matches name, which may be
// either a qualified "Contract.member" name or a bare member name.
func (s *Store) FindCallers(ctx context.Context, name string) ([]*graph.Edge, error) {
	return s.queryEdges(ctx, `
		SELECT e.caller, e.callee, e.kind FROM edges e
		JOIN nodes n ON n.name = e.callee
		WHERE n.name = ? OR n.label = ?
		ORDER BY e.caller, e.callee`, name, name)
}

// FindCallees returns the edges whose caller matches name.
func (s *Store) FindCallees(ctx context.Context, name string) ([]*graph.Edge, error) {
	return s.queryEdges(ctx, `
		SELECT e.caller, e.callee, e.kind FROM edges e
		JOIN nodes n ON n.name = e.caller
		WHERE n.name = ? OR n.label = ?
		ORDER BY e.caller, e.callee`, name, name)
}

func (s *Store) queryEdges(ctx context.Context, query string, args ...any) ([]*graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query edges: %w", err)
	}
	defer rows.Close()

	var edges []*graph.Edge
	for rows.Next() {
		var e graph.Edge
		var kind string
		if err := rows.Scan(&e.From, &e.To, &kind); err != nil {
			return nil, fmt.Errorf("store: scan edge: %w", err)
		}
		e.Kind = graph.EdgeKind(kind)
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}

// Stats returns the stored node and edge counts.
func (s *Store) Stats(ctx context.Context) (nodes, edges int, err error) {
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes").Scan(&nodes); err != nil {
		return 0, 0, fmt.Errorf("store: count nodes: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM edges").Scan(&edges); err != nil {
		return 0, 0, fmt.Errorf("store: count edges: %w", err)
	}
	return nodes, edges, nil
}
