// Package graph stores the per-project knowledge graph: directed edges
// between chunk ids recording that one chunk's code references another
// chunk's defined symbol, with a confidence tag in the metadata.
package graph

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Edge metadata match types, from high to low confidence.
const (
	MatchExplicitImport = "explicit_import"
	MatchName           = "name_match"
)

// Edge is one directed relation between two chunks.
type Edge struct {
	Project  string
	SourceID string
	TargetID string
	Type     string
	Metadata map[string]any
}

// Store wraps the SQLite edge relation.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the default knowledge graph database.
func Open() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("home dir: %w", err)
	}
	dir := filepath.Join(home, ".cache", "codeintel")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir cache: %w", err)
	}
	return OpenPath(filepath.Join(dir, "knowledge_graph.db"))
}

// OpenPath opens a knowledge graph database at the given path, creating
// parent directories as needed.
func OpenPath(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory graph database (for testing).
func OpenMemory() (*Store, error) {
	return OpenPath(":memory:")
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS edges (
		project TEXT NOT NULL,
		source_chunk_id TEXT NOT NULL,
		target_chunk_id TEXT NOT NULL,
		type TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		PRIMARY KEY (project, source_chunk_id, target_chunk_id, type)
	);
	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(project, source_chunk_id);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(project, target_chunk_id);
	`)
	return err
}

// AddEdge inserts or replaces one edge. The (project, source, target, type)
// primary key makes re-linking idempotent: the same triple replaces rather
// than duplicates.
func (s *Store) AddEdge(project, sourceID, targetID, edgeType string, metadata map[string]any) error {
	meta := "{}"
	if len(metadata) > 0 {
		data, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal edge metadata: %w", err)
		}
		meta = string(data)
	}
	_, err := s.db.Exec(`
		INSERT INTO edges (project, source_chunk_id, target_chunk_id, type, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project, source_chunk_id, target_chunk_id, type)
		DO UPDATE SET metadata = excluded.metadata`,
		project, sourceID, targetID, edgeType, meta)
	return err
}

// Filter narrows an Edges query; zero values match everything.
type Filter struct {
	SourceID string
	TargetID string
	Type     string
}

// Edges returns the project's edges matching the filter.
func (s *Store) Edges(project string, f Filter) ([]*Edge, error) {
	query := "SELECT project, source_chunk_id, target_chunk_id, type, metadata FROM edges WHERE project = ?"
	args := []any{project}
	if f.SourceID != "" {
		query += " AND source_chunk_id = ?"
		args = append(args, f.SourceID)
	}
	if f.TargetID != "" {
		query += " AND target_chunk_id = ?"
		args = append(args, f.TargetID)
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, f.Type)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEdges(rows)
}

// CountEdges returns the number of edges in the project partition.
func (s *Store) CountEdges(project string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM edges WHERE project = ?", project).Scan(&n)
	return n, err
}

// Clear wipes all edges for one project.
func (s *Store) Clear(project string) error {
	_, err := s.db.Exec("DELETE FROM edges WHERE project = ?", project)
	return err
}

// DeleteBySource removes the outgoing edges of one chunk, used when a file's
// chunks are replaced during incremental re-linking.
func (s *Store) DeleteBySource(project, sourceID string) error {
	_, err := s.db.Exec("DELETE FROM edges WHERE project = ? AND source_chunk_id = ?", project, sourceID)
	return err
}

func scanEdges(rows *sql.Rows) ([]*Edge, error) {
	var edges []*Edge
	for rows.Next() {
		var (
			e    Edge
			meta string
		)
		if err := rows.Scan(&e.Project, &e.SourceID, &e.TargetID, &e.Type, &meta); err != nil {
			return nil, err
		}
		e.Metadata = unmarshalMeta(meta)
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}

func unmarshalMeta(data string) map[string]any {
	if data == "" || data == "{}" {
		return map[string]any{}
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return map[string]any{}
	}
	return meta
}
