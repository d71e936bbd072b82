// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes rank-based retrieval metrics over a results file.
// Implements: prd005-evaluation (R2, R3); docs/ARCHITECTURE § Evaluation.
package score

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// DefaultKs are the hits@k cutoffs reported when the caller chooses none.
var DefaultKs = []int{1, 5}

// Metrics is one evaluation report. HitsAtK is keyed by cutoff; MRR uses
// the full ranking depth of each record.
type Metrics struct {
	// HitsAtK maps cutoff k to the fraction of queries whose gold paper
	// appears in the top k.
	HitsAtK map[int]float64 `json:"hits_at_k" yaml:"hits_at_k"`

	// MRR is the mean reciprocal rank of the gold paper over all queries;
	// a query whose gold paper is absent contributes zero.
	MRR float64 `json:"mrr" yaml:"mrr"`

	// TotalQueries is the number of scored records.
	TotalQueries int `json:"total_queries" yaml:"total_queries"`
}

// Evaluate scores records against their embedded gold paper IDs (R2.1).
// Retrieved lists are trusted to honor the RankedResult contract: unique
// papers, descending score. An empty record set yields zeroed metrics.
func Evaluate(records []types.ResultRecord, ks []int) Metrics {
	if len(ks) == 0 {
		ks = DefaultKs
	}

	m := Metrics{
		HitsAtK:      make(map[int]float64, len(ks)),
		TotalQueries: len(records),
	}
	if len(records) == 0 {
		for _, k := range ks {
			m.HitsAtK[k] = 0
		}
		return m
	}

	hits := make(map[int]int, len(ks))
	var mrrSum float64

	for _, rec := range records {
		rank := goldRank(rec)
		if rank > 0 {
			mrrSum += 1 / float64(rank)
			for _, k := range ks {
				if rank <= k {
					hits[k]++
				}
			}
		}
	}

	total := float64(len(records))
	for _, k := range ks {
		m.HitsAtK[k] = float64(hits[k]) / total
	}
	m.MRR = mrrSum / total
	return m
}

// goldRank returns the 1-based rank of the gold paper, or 0 if absent.
func goldRank(rec types.ResultRecord) int {
	for i, sp := range rec.Retrieved {
		if sp.PaperID == rec.Expected {
			return i + 1
		}
	}
	return 0
}

// ReadResults loads a results file: one JSON record per line (R1.2).
func ReadResults(path string) ([]types.ResultRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening results file %s: %w", path, err)
	}
	defer f.Close()

	var records []types.ResultRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec types.ResultRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("parsing results line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}

	return records, nil
}

// WriteYAML renders the report to path (R3.2).
func (m Metrics) WriteYAML(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// String renders the report for terminal output (R3.1).
func (m Metrics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluation metrics (%d queries):\n", m.TotalQueries)

	ks := make([]int, 0, len(m.HitsAtK))
	for k := range m.HitsAtK {
		ks = append(ks, k)
	}
	sort.Ints(ks)
	for _, k := range ks {
		fmt.Fprintf(&b, "  hits@%d: %.2f%%\n", k, m.HitsAtK[k]*100)
	}
	fmt.Fprintf(&b, "  MRR:    %.3f\n", m.MRR)
	return b.String()
}
