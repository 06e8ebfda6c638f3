package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/goutil/internal/enrich"
)

// appender opens a DuckDB appender on a dedicated connection. The caller
// closes the appender before the connection.
func (s *Store) appender(table string) (*sql.Conn, *goduckdb.Appender, error) {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return nil, nil, fmt.Errorf("get connection: %w", err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("create appender: %w", err)
	}
	return conn, appender, nil
}

// WriteEnrichment batch-inserts the reported terms of a run, keeping their
// order.
func (s *Store) WriteEnrichment(runID int64, terms []enrich.Term) error {
	if len(terms) == 0 {
		return nil
	}

	conn, appender, err := s.appender("enriched_terms")
	if err != nil {
		return err
	}
	defer conn.Close()
	defer appender.Close()

	for i, t := range terms {
		if err := appender.AppendRow(
			runID, int64(i), t.ID, t.Definition,
			int64(t.TargetFreq), int64(t.BackgroundFreq),
			t.PValue, t.AdjustedP, t.EnrichmentFactor,
			strings.Join(t.Genes, " "),
		); err != nil {
			return fmt.Errorf("append enriched term: %w", err)
		}
	}

	return appender.Flush()
}

// EnrichedTerms returns the terms recorded for a run in reported order.
func (s *Store) EnrichedTerms(runID int64) ([]enrich.Term, error) {
	rows, err := s.db.Query(`SELECT
		term_id, definition, target_freq, background_freq,
		p_value, adjusted_p, enrichment_factor, genes
		FROM enriched_terms
		WHERE run_id=?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query enriched terms: %w", err)
	}
	defer rows.Close()

	var terms []enrich.Term
	for rows.Next() {
		var t enrich.Term
		var targetFreq, backgroundFreq int64
		var genes string
		if err := rows.Scan(
			&t.ID, &t.Definition, &targetFreq, &backgroundFreq,
			&t.PValue, &t.AdjustedP, &t.EnrichmentFactor, &genes,
		); err != nil {
			return nil, fmt.Errorf("scan enriched term: %w", err)
		}
		t.Index = -1
		t.TargetFreq = int(targetFreq)
		t.BackgroundFreq = int(backgroundFreq)
		t.Genes = strings.Fields(genes)
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enriched terms: %w", err)
	}
	return terms, nil
}

// SimilarityAppender streams similarity rows of one run into DuckDB.
type SimilarityAppender struct {
	runID    int64
	conn     *sql.Conn
	appender *goduckdb.Appender
	rows     int
}

// NewSimilarityAppender starts appending similarity rows for runID.
func (s *Store) NewSimilarityAppender(runID int64) (*SimilarityAppender, error) {
	conn, appender, err := s.appender("similarities")
	if err != nil {
		return nil, err
	}
	return &SimilarityAppender{runID: runID, conn: conn, appender: appender}, nil
}

// Append adds one scored pair.
func (sa *SimilarityAppender) Append(term1, term2 string, score float64) error {
	if err := sa.appender.AppendRow(sa.runID, term1, term2, score); err != nil {
		return fmt.Errorf("append similarity: %w", err)
	}
	sa.rows++
	return nil
}

// Rows returns the number of rows appended so far.
func (sa *SimilarityAppender) Rows() int {
	return sa.rows
}

// Close flushes pending rows and releases the connection.
func (sa *SimilarityAppender) Close() error {
	err := sa.appender.Close()
	if cerr := sa.conn.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("close similarity appender: %w", err)
	}
	return nil
}

// Similar is a term paired with its similarity to a query term.
type Similar struct {
	RunID int64
	Term  string
	Score float64
}

// TopSimilar returns up to n terms most similar to termID across all
// recorded runs, highest score first.
func (s *Store) TopSimilar(termID string, n int) ([]Similar, error) {
	rows, err := s.db.Query(`SELECT run_id, CASE WHEN term1=? THEN term2 ELSE term1 END AS other, score
		FROM similarities
		WHERE term1=? OR term2=?
		ORDER BY score DESC, other, run_id
		LIMIT ?`, termID, termID, termID, n)
	if err != nil {
		return nil, fmt.Errorf("query similarities: %w", err)
	}
	defer rows.Close()

	var out []Similar
	for rows.Next() {
		var sim Similar
		if err := rows.Scan(&sim.RunID, &sim.Term, &sim.Score); err != nil {
			return nil, fmt.Errorf("scan similarity: %w", err)
		}
		out = append(out, sim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similarities: %w", err)
	}
	return out, nil
}
