// Package store persists code chunks and their embedding vectors in SQLite,
// with vector search provided by sqlite-vec. Every operation is scoped to a
// project partition; no query crosses project boundaries.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"codeintel/internal/model"
)

func init() {
	sqlite_vec.Auto()
}

// Store wraps a SQLite connection holding chunks and embeddings.
type Store struct {
	db     *sql.DB
	dbPath string
	dim    int
}

// cacheDir returns the default directory for databases.
func cacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	dir := filepath.Join(home, ".cache", "codeintel")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir cache: %w", err)
	}
	return dir, nil
}

// Open opens or creates the default chunk database. dim is the embedding
// dimension the vector table is built with; it must match the embedding
// provider's output.
func Open(dim int) (*Store, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dir, "chunks.db"), dim)
}

// OpenPath opens a chunk database at the given path, creating parent
// directories as needed.
func OpenPath(dbPath string, dim int) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath, dim: dim}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory chunk database (for testing).
func OpenMemory(dim int) (*Store, error) {
	return OpenPath(":memory:", dim)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS chunks (
		rowid INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL,
		id TEXT NOT NULL,
		filename TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		content TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		symbol_name TEXT NOT NULL DEFAULT '',
		parent_symbol TEXT NOT NULL DEFAULT '',
		signature TEXT NOT NULL DEFAULT '',
		docstring TEXT NOT NULL DEFAULT '',
		decorators TEXT NOT NULL DEFAULT '[]',
		complexity INTEGER NOT NULL DEFAULT 0,
		dependencies TEXT NOT NULL DEFAULT '[]',
		related_tests TEXT NOT NULL DEFAULT '[]',
		author TEXT NOT NULL DEFAULT '',
		last_modified TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL DEFAULT '',
		UNIQUE(project, id)
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks(project, filename);
	CREATE INDEX IF NOT EXISTS idx_chunks_symbol ON chunks(project, symbol_name);

	CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
		chunk_rowid INTEGER PRIMARY KEY,
		project TEXT PARTITION KEY,
		embedding float[%d]
	);

	CREATE TABLE IF NOT EXISTS embedding_cache (
		hash TEXT PRIMARY KEY,
		vector BLOB NOT NULL,
		model TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		last_accessed TEXT NOT NULL DEFAULT (datetime('now'))
	);
	CREATE INDEX IF NOT EXISTS idx_cache_accessed ON embedding_cache(last_accessed);
	`, s.dim)
	_, err := s.db.Exec(schema)
	return err
}

// UpsertChunks replaces all chunks belonging to the filenames present in the
// batch, then inserts the new chunks with their vectors. Replace-by-filename
// keeps re-indexing idempotent: old chunk ids for a file stop resolving after
// the upsert.
func (s *Store) UpsertChunks(project string, chunks []*model.CodeChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks (%d) and vectors (%d) length mismatch", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	files := make(map[string]bool)
	for _, c := range chunks {
		files[c.Filename] = true
	}
	for filename := range files {
		if err := deleteFileChunksTx(tx, project, filename); err != nil {
			return err
		}
	}

	insertChunk, err := tx.Prepare(`
		INSERT INTO chunks (project, id, filename, start_line, end_line, content,
			type, language, symbol_name, parent_symbol, signature, docstring,
			decorators, complexity, dependencies, related_tests, author,
			last_modified, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertChunk.Close()

	insertVec, err := tx.Prepare("INSERT INTO vec_chunks (chunk_rowid, project, embedding) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer insertVec.Close()

	for i, c := range chunks {
		res, err := insertChunk.Exec(project, c.ID, c.Filename, c.StartLine, c.EndLine, c.Content,
			c.Type, c.Language, c.SymbolName, c.ParentSymbol, c.Signature, c.Docstring,
			marshalList(c.Decorators), c.Complexity, marshalList(c.Dependencies),
			marshalList(c.RelatedTests), c.Author, c.LastModified, c.ContentHash)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
		rowid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		blob, err := sqlite_vec.SerializeFloat32(padVector(vectors[i], s.dim))
		if err != nil {
			return fmt.Errorf("serialize vector for chunk %s: %w", c.ID, err)
		}
		if _, err := insertVec.Exec(rowid, project, blob); err != nil {
			return fmt.Errorf("insert vector for chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// deleteFileChunksTx removes a file's chunks and their vectors.
func deleteFileChunksTx(tx *sql.Tx, project, filename string) error {
	rows, err := tx.Query("SELECT rowid FROM chunks WHERE project = ? AND filename = ?", project, filename)
	if err != nil {
		return err
	}
	var rowids []int64
	for rows.Next() {
		var rid int64
		if err := rows.Scan(&rid); err != nil {
			rows.Close()
			return err
		}
		rowids = append(rowids, rid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, rid := range rowids {
		if _, err := tx.Exec("DELETE FROM vec_chunks WHERE chunk_rowid = ?", rid); err != nil {
			return err
		}
	}
	_, err = tx.Exec("DELETE FROM chunks WHERE project = ? AND filename = ?", project, filename)
	return err
}

// padVector zero-fills or truncates a vector to the schema dimension, so a
// provider hiccup cannot poison the vector table.
func padVector(v []float32, dim int) []float32 {
	if len(v) == dim {
		return v
	}
	out := make([]float32, dim)
	copy(out, v)
	return out
}

// SearchResult pairs a chunk with its vector distance to the query.
type SearchResult struct {
	Chunk    *model.CodeChunk
	Distance float64
}

// Search returns the chunks nearest to the query vector within one project.
func (s *Store) Search(project string, queryVector []float32, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	blob, err := sqlite_vec.SerializeFloat32(padVector(queryVector, s.dim))
	if err != nil {
		return nil, fmt.Errorf("serialize query vector: %w", err)
	}
	rows, err := s.db.Query(`
		SELECT `+chunkColumns("c")+`, v.distance
		FROM vec_chunks v
		JOIN chunks c ON c.rowid = v.chunk_rowid
		WHERE v.embedding MATCH ? AND v.project = ? AND k = ?
		ORDER BY v.distance`,
		blob, project, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		chunk, extra, err := scanChunk(rows, 1)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{Chunk: chunk, Distance: extra[0]})
	}
	return results, rows.Err()
}

// FindChunksBySymbol returns all chunks in the project whose symbol name
// matches. Empty result for unknown names, never an error.
func (s *Store) FindChunksBySymbol(project, name string) ([]*model.CodeChunk, error) {
	return s.queryChunks(
		"SELECT "+chunkColumns("chunks")+" FROM chunks WHERE project = ? AND symbol_name = ?",
		project, name)
}

// FindChunksBySymbolInFile narrows the symbol lookup to one resolved file.
func (s *Store) FindChunksBySymbolInFile(project, name, filename string) ([]*model.CodeChunk, error) {
	return s.queryChunks(
		"SELECT "+chunkColumns("chunks")+" FROM chunks WHERE project = ? AND symbol_name = ? AND filename = ?",
		project, name, filename)
}

// ChunksInFile returns all chunks stored for one file.
func (s *Store) ChunksInFile(project, filename string) ([]*model.CodeChunk, error) {
	return s.queryChunks(
		"SELECT "+chunkColumns("chunks")+" FROM chunks WHERE project = ? AND filename = ? ORDER BY start_line",
		project, filename)
}

// GetChunkByID fetches one chunk by its content-addressable id, or nil when
// the id is not present in the project partition.
func (s *Store) GetChunkByID(project, id string) (*model.CodeChunk, error) {
	chunks, err := s.queryChunks(
		"SELECT "+chunkColumns("chunks")+" FROM chunks WHERE project = ? AND id = ?",
		project, id)
	if err != nil || len(chunks) == 0 {
		return nil, err
	}
	return chunks[0], nil
}

// GetProjectHashes returns the stored per-file content hashes used by the
// incremental-scan skip decision.
func (s *Store) GetProjectHashes(project string) (map[string]string, error) {
	rows, err := s.db.Query(
		"SELECT DISTINCT filename, content_hash FROM chunks WHERE project = ? AND content_hash != ''",
		project)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var filename, hash string
		if err := rows.Scan(&filename, &hash); err != nil {
			return nil, err
		}
		hashes[filename] = hash
	}
	return hashes, rows.Err()
}

// CountChunks returns the number of chunks in the project partition.
func (s *Store) CountChunks(project string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM chunks WHERE project = ?", project).Scan(&n)
	return n, err
}

// ClearProject wipes the project partition: chunks and vectors.
func (s *Store) ClearProject(project string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT rowid FROM chunks WHERE project = ?", project)
	if err != nil {
		return err
	}
	var rowids []int64
	for rows.Next() {
		var rid int64
		if err := rows.Scan(&rid); err != nil {
			rows.Close()
			return err
		}
		rowids = append(rowids, rid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, rid := range rowids {
		if _, err := tx.Exec("DELETE FROM vec_chunks WHERE chunk_rowid = ?", rid); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("DELETE FROM chunks WHERE project = ?", project); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) queryChunks(query string, args ...any) ([]*model.CodeChunk, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*model.CodeChunk
	for rows.Next() {
		chunk, _, err := scanChunk(rows, 0)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// chunkColumns lists the chunk columns in scan order, prefixed with a table
// alias.
func chunkColumns(alias string) string {
	cols := []string{"id", "filename", "start_line", "end_line", "content",
		"type", "language", "symbol_name", "parent_symbol", "signature",
		"docstring", "decorators", "complexity", "dependencies",
		"related_tests", "author", "last_modified", "content_hash"}
	out := ""
	for i, col := range cols {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + col
	}
	return out
}

// scanChunk reads one chunk row plus extraFloats trailing float columns.
func scanChunk(rows *sql.Rows, extraFloats int) (*model.CodeChunk, []float64, error) {
	var (
		c          model.CodeChunk
		decorators string
		deps       string
		tests      string
	)
	dest := []any{&c.ID, &c.Filename, &c.StartLine, &c.EndLine, &c.Content,
		&c.Type, &c.Language, &c.SymbolName, &c.ParentSymbol, &c.Signature,
		&c.Docstring, &decorators, &c.Complexity, &deps,
		&tests, &c.Author, &c.LastModified, &c.ContentHash}
	extra := make([]float64, extraFloats)
	for i := range extra {
		dest = append(dest, &extra[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, nil, err
	}
	c.Decorators = unmarshalList(decorators)
	c.Dependencies = unmarshalList(deps)
	c.RelatedTests = unmarshalList(tests)
	return &c, extra, nil
}

func marshalList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalList(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil
	}
	return items
}
