// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// hashEmbedder is a deterministic stand-in for the embedding model: each
// vector component counts the text's bytes falling into that bucket.
type hashEmbedder struct {
	dims int
}

func (h hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, h.dims)
		for _, b := range []byte(t) {
			vec[int(b)%h.dims]++
		}
		out[i] = vec
	}
	return out, nil
}

func (h hashEmbedder) ModelName() string { return "hash-test" }
func (h hashEmbedder) Dimensions() int   { return h.dims }

func testPapers() []types.Paper {
	return []types.Paper{
		{
			PaperID:  "paperA",
			Title:    "Meta-Analysis Methods",
			Abstract: "A survey of meta-analysis uncertainty.",
			Venue:    "JMLR",
			Year:     2021,
			Paragraphs: []types.Paragraph{
				{ParagraphID: "g1", SectionTitle: "Intro", Text: "Pooling effect sizes."},
			},
		},
		{
			PaperID:  "paperB",
			Title:    "Graph Neural Networks",
			Abstract: "Message passing on graphs.",
		},
	}
}

func TestBuild(t *testing.T) {
	idx, stats, err := Build(context.Background(), hashEmbedder{dims: 8}, testPapers(), nil, 2, 1)
	require.NoError(t, err)

	// paperA: paragraph + abstract + title + metadata; paperB: abstract + title.
	assert.Equal(t, 6, idx.Len())
	assert.Equal(t, 2, stats.PapersIndexed)
	assert.Equal(t, 0, stats.PapersNoUnits)
	assert.Equal(t, 6, stats.Units)
	assert.Equal(t, 1, stats.UnitCounts[types.UnitParagraph])
	assert.Equal(t, 2, stats.UnitCounts[types.UnitAbstract])
	assert.Equal(t, 2, stats.UnitCounts[types.UnitTitle])
	assert.Equal(t, 1, stats.UnitCounts[types.UnitMetadata])

	assert.Equal(t, "hash-test", idx.Manifest.ModelName)
	assert.Equal(t, 8, idx.Manifest.EmbeddingDim)
	assert.Equal(t, 6, idx.Manifest.NumUnits)
	assert.Equal(t, 2, idx.Manifest.NumPapers)

	// Every row resolves to a source paper from the input corpus.
	known := map[string]bool{"paperA": true, "paperB": true}
	for i, u := range idx.Units {
		assert.True(t, known[u.PaperID], "row %d orphaned: %s", i, u.PaperID)
		assert.Len(t, idx.Vectors[i], 8)
	}
}

func TestBuildDeterminism(t *testing.T) {
	first, _, err := Build(context.Background(), hashEmbedder{dims: 8}, testPapers(), nil, 2, 1)
	require.NoError(t, err)
	second, _, err := Build(context.Background(), hashEmbedder{dims: 8}, testPapers(), nil, 3, 2)
	require.NoError(t, err)

	assert.Equal(t, first.Units, second.Units)
	assert.Equal(t, first.Vectors, second.Vectors)
}

func TestBuildUnitTypeFilter(t *testing.T) {
	idx, _, err := Build(context.Background(), hashEmbedder{dims: 8}, testPapers(),
		[]types.UnitType{types.UnitTitle}, 4, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())
	for _, u := range idx.Units {
		assert.Equal(t, types.UnitTitle, u.Type)
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	idx, stats, err := Build(context.Background(), hashEmbedder{dims: 8}, nil, nil, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 0, stats.PapersIndexed)
}

func TestBuildCountsZeroUnitPapers(t *testing.T) {
	papers := []types.Paper{
		{PaperID: "bare"}, // no title, abstract, metadata, or paragraphs
		{PaperID: "titled", Title: "Has A Title"},
	}

	idx, stats, err := Build(context.Background(), hashEmbedder{dims: 4}, papers, nil, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 1, stats.PapersIndexed)
	assert.Equal(t, 1, stats.PapersNoUnits)
}

func TestBuildRejectsDuplicatePaperID(t *testing.T) {
	papers := []types.Paper{
		{PaperID: "dup", Title: "First"},
		{PaperID: "dup", Title: "Second"},
	}

	_, _, err := Build(context.Background(), hashEmbedder{dims: 4}, papers, nil, 4, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateUnitID), "got %v", err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	built, _, err := Build(context.Background(), hashEmbedder{dims: 8}, testPapers(), nil, 2, 1)
	require.NoError(t, err)
	require.NoError(t, built.Save(dir))

	for _, name := range []string{"embeddings.bin", "units.jsonl", "manifest.json"} {
		_, statErr := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, statErr, name)
	}

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, built.Units, loaded.Units)
	assert.Equal(t, built.Vectors, loaded.Vectors)
	assert.Equal(t, built.Manifest.ModelName, loaded.Manifest.ModelName)
	assert.Equal(t, built.Manifest.NumUnits, loaded.Manifest.NumUnits)
}

func TestSaveLoadEmptyIndex(t *testing.T) {
	dir := t.TempDir()
	built, _, err := Build(context.Background(), hashEmbedder{dims: 8}, nil, nil, 2, 1)
	require.NoError(t, err)
	require.NoError(t, built.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestLoadMissingIndex(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestLoadDetectsTruncatedMatrix(t *testing.T) {
	dir := t.TempDir()
	built, _, err := Build(context.Background(), hashEmbedder{dims: 8}, testPapers(), nil, 2, 1)
	require.NoError(t, err)
	require.NoError(t, built.Save(dir))

	// Drop the last row's bytes from the matrix.
	path := filepath.Join(dir, "embeddings.bin")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-8*4], 0o644))

	_, err = Load(dir)
	assert.ErrorIs(t, err, ErrRowMismatch)
}

func TestSaveRejectsCorruptIndex(t *testing.T) {
	idx := &Index{
		Manifest: Manifest{NumUnits: 2, EmbeddingDim: 2},
		Units: []UnitMeta{
			{UnitID: "u1", PaperID: "p1"},
			{UnitID: "u1", PaperID: "p2"},
		},
		Vectors: [][]float32{{1, 0}, {0, 1}},
	}
	assert.ErrorIs(t, idx.Save(t.TempDir()), ErrDuplicateUnitID)
}
