// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus loads the paper snapshot from newline-delimited JSON.
// Implements: prd001-corpus (R1-R3); docs/ARCHITECTURE § Corpus.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// maxLineBytes bounds a single snapshot line. Full-text records with many
// paragraphs can run into megabytes; 64 MiB leaves generous headroom.
const maxLineBytes = 64 << 20

// LoadStats counts per-record outcomes of a snapshot load. Malformed
// records are skipped, never silently absorbed (R3.2): the counts are
// reported back to the caller for the build summary.
type LoadStats struct {
	// Loaded is the number of well-formed paper records.
	Loaded int

	// SkippedNoID is the number of records missing the paperId field.
	SkippedNoID int

	// SkippedParse is the number of lines that failed JSON parsing.
	SkippedParse int

	// SkippedLines records the 1-based line numbers of skipped records.
	SkippedLines []int
}

// Skipped returns the total number of skipped records.
func (s LoadStats) Skipped() int {
	return s.SkippedNoID + s.SkippedParse
}

// Load reads a paper snapshot file: one JSON paper record per line.
// Records missing paperId and unparseable lines are skipped per-record
// with counts in LoadStats; only I/O failures abort the load (R3.1, R3.2).
func Load(path string) ([]types.Paper, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("opening snapshot %s: %w", path, err)
	}
	defer f.Close()

	papers, stats, err := Read(f)
	if err != nil {
		return nil, stats, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return papers, stats, nil
}

// Read decodes paper records from r, one JSON object per line.
// Blank lines are ignored.
func Read(r io.Reader) ([]types.Paper, LoadStats, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		papers []types.Paper
		stats  LoadStats
		lineNo int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var paper types.Paper
		if err := json.Unmarshal([]byte(line), &paper); err != nil {
			stats.SkippedParse++
			stats.SkippedLines = append(stats.SkippedLines, lineNo)
			continue
		}

		// paperId is the identity field; a record without one cannot be
		// joined back from retrieval results (R3.1). Fall back to corpusId
		// as the snapshot source does.
		if paper.PaperID == "" {
			if paper.CorpusID == "" {
				stats.SkippedNoID++
				stats.SkippedLines = append(stats.SkippedLines, lineNo)
				continue
			}
			paper.PaperID = paper.CorpusID
		}

		papers = append(papers, paper)
		stats.Loaded++
	}

	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("scanning records: %w", err)
	}

	return papers, stats, nil
}
