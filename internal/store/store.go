// Package store persists analysis runs and caches parsed ontologies.
// Ontology edges are cached as gob files (fast, pure Go).
// Run results are recorded in DuckDB (queryable, append-only).
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for recording run results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS run_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS runs (
			id BIGINT PRIMARY KEY DEFAULT nextval('run_id_seq'),
			tool VARCHAR,
			parameters VARCHAR,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS run_inputs (
			run_id BIGINT,
			path VARCHAR,
			size BIGINT,
			mod_time TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS enriched_terms (
			run_id BIGINT,
			position BIGINT,
			term_id VARCHAR,
			definition VARCHAR,
			target_freq BIGINT,
			background_freq BIGINT,
			p_value DOUBLE,
			adjusted_p DOUBLE,
			enrichment_factor DOUBLE,
			genes VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS similarities (
			run_id BIGINT,
			term1 VARCHAR,
			term2 VARCHAR,
			score DOUBLE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
