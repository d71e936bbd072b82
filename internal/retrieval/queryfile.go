// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// LoadQueries reads a query file: one JSON record per line with the query
// text and the gold paper ID (prd005-evaluation R1.1). Unlike the paper
// snapshot, a malformed query line aborts the load — an evaluation run
// over a silently shrunken query set reports misleading metrics.
func LoadQueries(path string) ([]types.QueryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening query file %s: %w", path, err)
	}
	defer f.Close()

	var queries []types.QueryRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var q types.QueryRecord
		if err := json.Unmarshal([]byte(line), &q); err != nil {
			return nil, fmt.Errorf("parsing query line %d: %w", lineNo, err)
		}
		if q.Query == "" {
			return nil, fmt.Errorf("query line %d: empty query text", lineNo)
		}
		queries = append(queries, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}

	return queries, nil
}

// WriteResults writes one JSON result record per line (prd005-evaluation
// R1.2). The file is the scoring input, so the write is all-or-nothing:
// records go to a temp file renamed into place.
func WriteResults(path string, records []types.ResultRecord) error {
	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating results file: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			f.Close()
			os.Remove(tempPath)
			return fmt.Errorf("encoding result: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("flushing results: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing results file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming results file: %w", err)
	}
	return nil
}
