// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantIDs       []string
		wantNoID      int
		wantParse     int
		wantSkipLines []int
	}{
		{
			name: "well-formed records",
			input: `{"paperId": "p1", "title": "First"}
{"paperId": "p2", "title": "Second"}`,
			wantIDs: []string{"p1", "p2"},
		},
		{
			name: "blank lines ignored",
			input: `{"paperId": "p1", "title": "First"}

{"paperId": "p2", "title": "Second"}
`,
			wantIDs: []string{"p1", "p2"},
		},
		{
			name: "missing paperId skipped with count",
			input: `{"paperId": "p1"}
{"title": "no identity"}
{"paperId": "p3"}`,
			wantIDs:       []string{"p1", "p3"},
			wantNoID:      1,
			wantSkipLines: []int{2},
		},
		{
			name: "corpusId fallback",
			input: `{"corpusId": "c9", "title": "Corpus only"}`,
			wantIDs: []string{"c9"},
		},
		{
			name: "malformed JSON skipped with count",
			input: `{"paperId": "p1"}
{not json at all
{"paperId": "p2"}`,
			wantIDs:       []string{"p1", "p2"},
			wantParse:     1,
			wantSkipLines: []int{2},
		},
		{
			name:    "empty input yields empty snapshot",
			input:   "",
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			papers, stats, err := Read(strings.NewReader(tt.input))
			require.NoError(t, err)

			var ids []string
			for _, p := range papers {
				ids = append(ids, p.PaperID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantNoID, stats.SkippedNoID)
			assert.Equal(t, tt.wantParse, stats.SkippedParse)
			assert.Equal(t, len(tt.wantIDs), stats.Loaded)
			if tt.wantSkipLines != nil {
				assert.Equal(t, tt.wantSkipLines, stats.SkippedLines)
			}
		})
	}
}

func TestReadFullRecord(t *testing.T) {
	input := `{"paperId": "abc", "title": "Attention Is All You Need", "abstract": "We propose the Transformer.", "authors": [{"authorId": "a1", "name": "A. Vaswani"}], "year": 2017, "venue": "NeurIPS", "citationCount": 100000, "publicationDate": "2017-06-12", "publicationTypes": ["JournalArticle"], "fieldsOfStudy": ["Computer Science"], "paragraphs": [{"paragraphId": "para-1", "sectionTitle": "Introduction", "text": "Recurrent models...", "refCount": 3}]}`

	papers, stats, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, 0, stats.Skipped())

	p := papers[0]
	assert.Equal(t, "abc", p.PaperID)
	assert.Equal(t, "Attention Is All You Need", p.Title)
	assert.Equal(t, 2017, p.Year)
	assert.Equal(t, "NeurIPS", p.Venue)
	require.Len(t, p.Authors, 1)
	assert.Equal(t, "A. Vaswani", p.Authors[0].Name)
	require.Len(t, p.Paragraphs, 1)
	assert.Equal(t, "Introduction", p.Paragraphs[0].SectionTitle)
	assert.Equal(t, 3, p.Paragraphs[0].RefCount)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "papers.jsonl")
	content := `{"paperId": "p1", "title": "One"}` + "\n" + `{"paperId": "p2", "title": "Two"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	papers, stats, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, papers, 2)
	assert.Equal(t, 2, stats.Loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}
