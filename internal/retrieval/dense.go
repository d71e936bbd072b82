// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieval answers natural-language queries against a dense
// unit index and produces paper-level rankings.
// Implements: prd003-retrieval (R1-R4); docs/ARCHITECTURE § Dense Retrieval.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/pdiddy/paper-finder/internal/embedding"
	"github.com/pdiddy/paper-finder/internal/index"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// DefaultK is the number of papers returned per query when the caller
// does not choose one.
const DefaultK = 100

// Engine retrieves papers from an immutable dense index. The index is
// never mutated after construction, so any number of Retrieve calls may
// run concurrently (R4.1).
type Engine struct {
	idx      *index.Index
	embedder embedding.Embedder
}

// NewEngine pairs a loaded index with a query-time embedder. The embedder
// must match the model configuration recorded in the index manifest;
// vectors from different models share no geometry, so a mismatch refuses
// to construct rather than return meaningless similarities (R1.2).
func NewEngine(idx *index.Index, e embedding.Embedder) (*Engine, error) {
	if e.ModelName() != idx.Manifest.ModelName {
		return nil, fmt.Errorf("%w: embedder %q, index built with %q",
			index.ErrModelMismatch, e.ModelName(), idx.Manifest.ModelName)
	}
	if idx.Manifest.EmbeddingDim != 0 && e.Dimensions() != idx.Manifest.EmbeddingDim {
		return nil, fmt.Errorf("%w: embedder emits %d dimensions, index has %d",
			index.ErrModelMismatch, e.Dimensions(), idx.Manifest.EmbeddingDim)
	}
	return &Engine{idx: idx, embedder: e}, nil
}

// Retrieve embeds query, scores every unit row by cosine similarity, and
// aggregates unit hits into a paper ranking: a paper's score is the
// maximum similarity over its own units, so a paper matches if any of its
// facets does, and paragraph-heavy papers are not penalized (R2.1-R2.3).
// Papers sort by score descending, ties by paper ID ascending for
// deterministic output (R3.1). At most k papers are returned; fewer exist,
// fewer come back (R3.2). An empty index yields an empty result, not an
// error. k <= 0 selects DefaultK.
func (eng *Engine) Retrieve(ctx context.Context, query string, k int) (types.RankedResult, error) {
	if k <= 0 {
		k = DefaultK
	}
	if eng.idx.Len() == 0 {
		return types.RankedResult{}, nil
	}

	vectors, err := eng.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding query: got %d vectors", len(vectors))
	}

	return eng.rank(vectors[0], k), nil
}

// rank is the pure aggregation step: unit similarities to per-paper max,
// then deterministic ordering. Operates on local state only (R4.2).
func (eng *Engine) rank(queryVec []float32, k int) types.RankedResult {
	best := make(map[string]float64)
	for row, unitVec := range eng.idx.Vectors {
		sim := cosineSimilarity(queryVec, unitVec)
		paperID := eng.idx.Units[row].PaperID
		if cur, ok := best[paperID]; !ok || sim > cur {
			best[paperID] = sim
		}
	}

	ranked := make(types.RankedResult, 0, len(best))
	for paperID, score := range best {
		ranked = append(ranked, types.ScoredPaper{PaperID: paperID, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].PaperID < ranked[j].PaperID
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// RetrieveBatch answers queries independently with up to concurrency
// queries in flight, preserving input order in the output (R4.3). The
// first failure cancels the remaining queries; partial result sets are
// never returned (prd005-evaluation depends on complete runs).
func (eng *Engine) RetrieveBatch(ctx context.Context, queries []types.QueryRecord, k, concurrency int) ([]types.ResultRecord, error) {
	if concurrency <= 0 {
		concurrency = 4
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	records := make([]types.ResultRecord, len(queries))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, concurrency)

	for i, q := range queries {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(i int, q types.QueryRecord) {
			defer wg.Done()
			defer func() { <-sem }()

			ranked, err := eng.Retrieve(ctx, q.Query, k)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("query %d (%q): %w", i, q.Query, err)
					cancel()
				}
				mu.Unlock()
				return
			}
			records[i] = types.ResultRecord{Query: q.Query, Expected: q.PaperID, Retrieved: ranked}
		}(i, q)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// cosineSimilarity accumulates in float64 so rankings stay stable for
// near-tied unit scores. Zero vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
