// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/paper-finder/internal/embedding"
	"github.com/pdiddy/paper-finder/internal/units"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// BuildStats holds counts from an index build (R2.6). Papers contributing
// zero units under the requested types are absent from the index; the
// count is surfaced so the omission is visible in the build summary.
type BuildStats struct {
	PapersIndexed int
	PapersNoUnits int
	Units         int
	UnitCounts    map[types.UnitType]int
	Duration      time.Duration
}

// Build extracts retrieval units from papers, embeds them, and assembles
// the index. Unit extraction order is deterministic, so rebuilds of the
// same snapshot produce identical row ordering and unit IDs (R2.2).
// A duplicate unit ID is rejected before any persistence (R2.4). An empty
// paper set builds an empty index, not an error (R2.3).
func Build(ctx context.Context, e embedding.Embedder, papers []types.Paper, unitTypes []types.UnitType, batchSize, concurrency int) (*Index, BuildStats, error) {
	start := time.Now()

	if len(unitTypes) == 0 {
		unitTypes = types.AllUnitTypes
	}

	stats := BuildStats{UnitCounts: make(map[types.UnitType]int)}

	var (
		metas   []UnitMeta
		texts   []string
		seen    = make(map[string]bool)
		nPapers = make(map[string]bool)
	)

	for _, paper := range papers {
		extracted := units.Extract(paper, unitTypes)
		if len(extracted) == 0 {
			stats.PapersNoUnits++
			continue
		}
		for _, u := range extracted {
			if seen[u.UnitID] {
				return nil, stats, fmt.Errorf("unit %s: %w", u.UnitID, ErrDuplicateUnitID)
			}
			seen[u.UnitID] = true

			metas = append(metas, UnitMeta{UnitID: u.UnitID, Type: u.Type, PaperID: u.PaperID})
			texts = append(texts, u.Text)
			stats.UnitCounts[u.Type]++
		}
		nPapers[paper.PaperID] = true
	}

	stats.PapersIndexed = len(nPapers)
	stats.Units = len(metas)

	vectors, err := embedding.EmbedAll(ctx, e, texts, batchSize, concurrency)
	if err != nil {
		return nil, stats, fmt.Errorf("embedding %d units: %w", len(texts), err)
	}
	if len(vectors) != len(metas) {
		return nil, stats, fmt.Errorf("%w: %d vectors, %d units", ErrRowMismatch, len(vectors), len(metas))
	}

	idx := &Index{
		Manifest: Manifest{
			ModelName:      e.ModelName(),
			EmbeddingDim:   e.Dimensions(),
			UnitTypes:      unitTypes,
			NumUnits:       len(metas),
			NumPapers:      len(nPapers),
			UnitTypeCounts: stats.UnitCounts,
			CreatedAt:      time.Now().UTC(),
		},
		Units:   metas,
		Vectors: vectors,
	}

	if err := idx.validate(); err != nil {
		return nil, stats, err
	}

	stats.Duration = time.Since(start)
	return idx, stats, nil
}
