// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relational projects the paper snapshot into SQLite and answers
// natural-language queries through generated SQL.
// Implements: prd004-relational (R1-R4); docs/ARCHITECTURE § Relational Path.
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// Store manages the relational projection database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the projection database at dbPath and creates
// the schema if it does not exist (R1.2, R1.3).
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			paper_id TEXT PRIMARY KEY,
			corpus_id TEXT,
			title TEXT NOT NULL,
			abstract TEXT,
			venue TEXT,
			year INTEGER,
			publication_date TEXT,
			citation_count INTEGER DEFAULT 0,
			publication_types TEXT,
			fields_of_study TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS authors (
			author_id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS paper_authors (
			paper_id TEXT NOT NULL REFERENCES papers(paper_id) ON DELETE CASCADE,
			author_id TEXT NOT NULL REFERENCES authors(author_id) ON DELETE CASCADE,
			author_position INTEGER NOT NULL,
			PRIMARY KEY (paper_id, author_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_year ON papers(year)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_venue ON papers(venue)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_citation_count ON papers(citation_count)`,
		`CREATE INDEX IF NOT EXISTS idx_authors_name ON authors(name)`,
		`CREATE INDEX IF NOT EXISTS idx_paper_authors_paper ON paper_authors(paper_id)`,
		`CREATE INDEX IF NOT EXISTS idx_paper_authors_author ON paper_authors(author_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from a projection run (R1.5).
type IngestSummary struct {
	Papers  int
	Authors int
}

// Ingest projects papers into the relational schema. Upserts are
// idempotent, so re-running over the same snapshot is safe (R1.4).
// Multi-valued fields the schema keeps denormalized (publication types,
// fields of study) are stored comma-joined.
func (s *Store) Ingest(ctx context.Context, papers []types.Paper) (IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	paperStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (paper_id, corpus_id, title, abstract, venue, year,
			publication_date, citation_count, publication_types, fields_of_study)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET
			corpus_id=excluded.corpus_id, title=excluded.title,
			abstract=excluded.abstract, venue=excluded.venue, year=excluded.year,
			publication_date=excluded.publication_date,
			citation_count=excluded.citation_count,
			publication_types=excluded.publication_types,
			fields_of_study=excluded.fields_of_study`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing paper insert: %w", err)
	}
	defer paperStmt.Close()

	authorStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO authors (author_id, name) VALUES (?, ?)
		 ON CONFLICT(author_id) DO UPDATE SET name=excluded.name`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing author insert: %w", err)
	}
	defer authorStmt.Close()

	linkStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO paper_authors (paper_id, author_id, author_position)
		 VALUES (?, ?, ?)
		 ON CONFLICT(paper_id, author_id) DO UPDATE SET
			author_position=excluded.author_position`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing author link insert: %w", err)
	}
	defer linkStmt.Close()

	var summary IngestSummary
	seenAuthors := make(map[string]bool)

	for _, paper := range papers {
		if paper.PaperID == "" {
			continue
		}

		_, err := paperStmt.ExecContext(ctx,
			paper.PaperID, paper.CorpusID, paper.Title, paper.Abstract,
			paper.Venue, paper.Year, paper.PublicationDate, paper.CitationCount,
			strings.Join(paper.PublicationTypes, ", "),
			strings.Join(paper.FieldsOfStudy, ", "),
		)
		if err != nil {
			return summary, fmt.Errorf("inserting paper %s: %w", paper.PaperID, err)
		}
		summary.Papers++

		for position, author := range paper.Authors {
			if author.AuthorID == "" || author.Name == "" {
				continue
			}
			if !seenAuthors[author.AuthorID] {
				if _, err := authorStmt.ExecContext(ctx, author.AuthorID, author.Name); err != nil {
					return summary, fmt.Errorf("inserting author %s: %w", author.AuthorID, err)
				}
				seenAuthors[author.AuthorID] = true
				summary.Authors++
			}
			if _, err := linkStmt.ExecContext(ctx, paper.PaperID, author.AuthorID, position); err != nil {
				return summary, fmt.Errorf("linking author %s to %s: %w", author.AuthorID, paper.PaperID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing projection: %w", err)
	}
	return summary, nil
}
