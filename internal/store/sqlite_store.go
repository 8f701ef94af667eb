package store

// Uses ncruces/go-sqlite3/driver which provides a database/sql interface.
// The sqlite-vec import registers vec0 with the driver.

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// SQLiteStore is the SQLite-backed data store.
// Thread-safe for concurrent WASM callbacks.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// schema defines all tables. Codes are decimal text; SQLite integers cap at
// 64 bits.
const schema = `
CREATE TABLE IF NOT EXISTS super_tokens (
    id TEXT PRIMARY KEY,
    labels TEXT NOT NULL,
    claim TEXT,
    code TEXT NOT NULL,
    depth INTEGER NOT NULL DEFAULT 0,
    capped INTEGER DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_super_tokens_code ON super_tokens(code, depth);
CREATE INDEX IF NOT EXISTS idx_super_tokens_created ON super_tokens(created_at, id);

-- Edges (Graph)
-- Note: No foreign keys - nodes exist only as edge endpoints
CREATE TABLE IF NOT EXISTS edges (
    id TEXT PRIMARY KEY,
    source_id TEXT NOT NULL,
    target_id TEXT NOT NULL,
    weight REAL DEFAULT 1.0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// VecVersion reports the registered sqlite-vec extension version.
func (s *SQLiteStore) VecVersion() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v string
	err := s.db.QueryRow("SELECT vec_version()").Scan(&v)
	return v, err
}

// =============================================================================
// SuperToken CRUD
// =============================================================================

const superTokenColumns = `id, labels, claim, code, depth, capped, created_at`

// UpsertSuperToken inserts or replaces a super token. created_at is kept
// from the first insert.
func (s *SQLiteStore) UpsertSuperToken(tok *SuperToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	labelsJSON, err := json.Marshal(tok.Labels)
	if err != nil {
		return fmt.Errorf("failed to marshal labels: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO super_tokens (`+superTokenColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			labels = excluded.labels,
			claim = excluded.claim,
			code = excluded.code,
			depth = excluded.depth,
			capped = excluded.capped
	`, tok.ID, string(labelsJSON), tok.Claim, tok.Code, tok.Depth,
		boolToInt(tok.Capped), tok.CreatedAt)

	return err
}

// GetSuperToken retrieves a super token by ID. A missing token is (nil, nil).
func (s *SQLiteStore) GetSuperToken(id string) (*SuperToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, err := scanSuperToken(s.db.QueryRow(`
		SELECT `+superTokenColumns+` FROM super_tokens WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return tok, err
}

// DeleteSuperToken removes a super token by ID.
func (s *SQLiteStore) DeleteSuperToken(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM super_tokens WHERE id = ?", id)
	return err
}

// ListSuperTokens returns every super token in registration order.
func (s *SQLiteStore) ListSuperTokens() ([]*SuperToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT ` + superTokenColumns + ` FROM super_tokens ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	return collectSuperTokens(rows)
}

// FindSuperTokensByCode returns the tokens registered under (code, depth).
// Paths with the same edge-prime multiset share a code.
func (s *SQLiteStore) FindSuperTokensByCode(code string, depth int) ([]*SuperToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+superTokenColumns+` FROM super_tokens
		WHERE code = ? AND depth = ? ORDER BY created_at, id
	`, code, depth)
	if err != nil {
		return nil, err
	}
	return collectSuperTokens(rows)
}

// CountSuperTokens returns the total number of super tokens.
func (s *SQLiteStore) CountSuperTokens() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM super_tokens").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSuperToken(row rowScanner) (*SuperToken, error) {
	var tok SuperToken
	var labelsJSON string
	var claim sql.NullString
	var capped int

	if err := row.Scan(
		&tok.ID, &labelsJSON, &claim, &tok.Code, &tok.Depth, &capped, &tok.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(labelsJSON), &tok.Labels); err != nil {
		return nil, fmt.Errorf("super token %s: bad labels: %w", tok.ID, err)
	}
	tok.Claim = claim.String
	tok.Capped = capped != 0
	return &tok, nil
}

func collectSuperTokens(rows *sql.Rows) ([]*SuperToken, error) {
	defer rows.Close()

	var toks []*SuperToken
	for rows.Next() {
		tok, err := scanSuperToken(rows)
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	return toks, rows.Err()
}

// =============================================================================
// Edge CRUD
// =============================================================================

// UpsertEdge inserts or updates an edge.
func (s *SQLiteStore) UpsertEdge(edge *Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO edges (id, source_id, target_id, weight, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			target_id = excluded.target_id,
			weight = excluded.weight
	`, edge.ID, edge.SourceID, edge.TargetID, edge.Weight, edge.CreatedAt)

	return err
}

// GetEdge retrieves an edge by ID.
func (s *SQLiteStore) GetEdge(id string) (*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var edge Edge
	err := s.db.QueryRow(`
		SELECT id, source_id, target_id, weight, created_at
		FROM edges WHERE id = ?
	`, id).Scan(&edge.ID, &edge.SourceID, &edge.TargetID, &edge.Weight, &edge.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// DeleteEdge removes an edge by ID.
func (s *SQLiteStore) DeleteEdge(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM edges WHERE id = ?", id)
	return err
}

// ListEdges returns all edges ordered by ID.
func (s *SQLiteStore) ListEdges() ([]*Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, source_id, target_id, weight, created_at
		FROM edges ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*Edge
	for rows.Next() {
		var edge Edge
		if err := rows.Scan(
			&edge.ID, &edge.SourceID, &edge.TargetID, &edge.Weight, &edge.CreatedAt,
		); err != nil {
			return nil, err
		}
		edges = append(edges, &edge)
	}

	return edges, rows.Err()
}

// CountEdges returns the total number of edges.
func (s *SQLiteStore) CountEdges() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&count)
	return count, err
}

// =============================================================================
// Helpers
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Compile-time interface check
var _ Storer = (*SQLiteStore)(nil)
