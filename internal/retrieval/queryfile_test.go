// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-finder/pkg/types"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queries.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadQueries(t *testing.T) {
	path := writeFile(t, `{"query": "attention mechanisms", "paperId": "p1"}

{"query": "protein folding", "paperId": "p2"}
`)

	queries, err := LoadQueries(path)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "attention mechanisms", queries[0].Query)
	assert.Equal(t, "p1", queries[0].PaperID)
	assert.Equal(t, "p2", queries[1].PaperID)
}

func TestLoadQueriesMalformedLineAborts(t *testing.T) {
	path := writeFile(t, `{"query": "fine", "paperId": "p1"}
{broken`)

	_, err := LoadQueries(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadQueriesEmptyQueryAborts(t *testing.T) {
	path := writeFile(t, `{"paperId": "p1"}`)

	_, err := LoadQueries(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty query")
}

func TestWriteResultsRoundTrip(t *testing.T) {
	records := []types.ResultRecord{
		{
			Query:    "attention mechanisms",
			Expected: "p1",
			Retrieved: types.RankedResult{
				{PaperID: "p1", Score: 0.91},
				{PaperID: "p7", Score: 0.44},
			},
		},
		{Query: "no hits", Expected: "p2", Retrieved: types.RankedResult{}},
	}

	path := filepath.Join(t.TempDir(), "results.jsonl")
	require.NoError(t, WriteResults(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"expected":"p1"`)
	assert.Contains(t, lines[0], `"paper_id":"p1"`)
}
