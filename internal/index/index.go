// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index builds and persists the unit-level dense vector index.
// Implements: prd002-dense-index (R2, R4, R5); docs/ARCHITECTURE § Dense Index.
package index

import (
	"errors"
	"time"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// Errors returned by index operations.
var (
	// ErrIndexNotFound reports a missing index directory or manifest.
	ErrIndexNotFound = errors.New("dense index not found")

	// ErrDuplicateUnitID reports a unit ID collision during a build.
	// Duplicate IDs break the row-to-paper join and are a builder bug (R2.4).
	ErrDuplicateUnitID = errors.New("duplicate unit id")

	// ErrRowMismatch reports a row-count disagreement between the vector
	// matrix and the unit metadata table (R2.5, R5.4).
	ErrRowMismatch = errors.New("embeddings and unit metadata row counts differ")

	// ErrModelMismatch reports a query-time embedder whose configuration
	// differs from the one recorded at build time. Similarity between
	// vectors from different models is meaningless, so querying is refused
	// (prd003-retrieval R1.2).
	ErrModelMismatch = errors.New("embedding model does not match index manifest")
)

// Manifest records the configuration an index was built with.
// Per prd002-dense-index R5.3.
type Manifest struct {
	// ModelName is the embedding model identifier used for every vector.
	ModelName string `json:"model_name"`

	// EmbeddingDim is the vector width of every row.
	EmbeddingDim int `json:"embedding_dim"`

	// UnitTypes lists the unit types included in the index.
	UnitTypes []types.UnitType `json:"unit_types"`

	// NumUnits is the number of rows.
	NumUnits int `json:"n_units"`

	// NumPapers is the number of distinct papers contributing units.
	NumPapers int `json:"n_papers"`

	// UnitTypeCounts is the per-type unit tally.
	UnitTypeCounts map[types.UnitType]int `json:"unit_type_counts"`

	// CreatedAt is the build timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// UnitMeta is one row of the unit metadata table. The row position is the
// join key to the vector matrix.
type UnitMeta struct {
	// UnitID is the synthetic unit identifier.
	UnitID string `json:"unit_id"`

	// Type is the unit kind.
	Type types.UnitType `json:"unit_type"`

	// PaperID is the source paper.
	PaperID string `json:"paper_id"`
}

// Index is the in-memory form of a built index: a row-major vector matrix
// and the parallel unit metadata table. Read-only after construction;
// concurrent queries need no coordination.
type Index struct {
	Manifest Manifest

	// Units holds one entry per row.
	Units []UnitMeta

	// Vectors holds one embedding per row, parallel to Units.
	Vectors [][]float32
}

// Len returns the number of unit rows.
func (idx *Index) Len() int {
	return len(idx.Units)
}

// validate checks the row invariants shared by build and load paths.
func (idx *Index) validate() error {
	if len(idx.Units) != len(idx.Vectors) {
		return ErrRowMismatch
	}
	if idx.Manifest.NumUnits != len(idx.Units) {
		return ErrRowMismatch
	}

	seen := make(map[string]bool, len(idx.Units))
	for _, u := range idx.Units {
		if seen[u.UnitID] {
			return ErrDuplicateUnitID
		}
		seen[u.UnitID] = true
	}
	return nil
}
