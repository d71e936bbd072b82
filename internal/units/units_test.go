// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-finder/pkg/types"
)

func fullPaper() types.Paper {
	return types.Paper{
		PaperID:  "p1",
		Title:    "Efficient Attention",
		Abstract: "We study attention mechanisms.",
		Authors: []types.Author{
			{AuthorID: "a1", Name: "J. Smith"},
			{AuthorID: "a2", Name: "A. Doe"},
		},
		Year:             2023,
		Venue:            "NeurIPS",
		FieldsOfStudy:    []string{"Computer Science"},
		PublicationTypes: []string{"Conference"},
		Paragraphs: []types.Paragraph{
			{ParagraphID: "g1", SectionTitle: "Introduction", Text: "Attention is costly."},
			{ParagraphID: "g2", SectionTitle: "Method", Text: "We approximate softmax."},
		},
	}
}

func TestExtractAllTypes(t *testing.T) {
	units := Extract(fullPaper(), nil)
	require.Len(t, units, 5)

	// Paragraphs first in document order, then abstract, title, metadata.
	assert.Equal(t, "p1_para_0", units[0].UnitID)
	assert.Equal(t, types.UnitParagraph, units[0].Type)
	assert.Equal(t, "Introduction: Attention is costly.", units[0].Text)
	assert.Equal(t, "p1_para_1", units[1].UnitID)
	assert.Equal(t, "p1_abstract", units[2].UnitID)
	assert.Equal(t, "p1_title", units[3].UnitID)
	assert.Equal(t, "Efficient Attention", units[3].Text)
	assert.Equal(t, "p1_metadata", units[4].UnitID)

	for _, u := range units {
		assert.Equal(t, "p1", u.PaperID)
	}
}

func TestExtractRequestedTypesOnly(t *testing.T) {
	units := Extract(fullPaper(), []types.UnitType{types.UnitTitle})
	require.Len(t, units, 1)
	assert.Equal(t, types.UnitTitle, units[0].Type)
	assert.Equal(t, "p1_title", units[0].UnitID)
}

func TestExtractOmitsEmptyFields(t *testing.T) {
	paper := types.Paper{
		PaperID: "p2",
		Paragraphs: []types.Paragraph{
			{ParagraphID: "g1", Text: ""},
			{ParagraphID: "g2", Text: "   "},
			{ParagraphID: "g3", Text: "Real content."},
		},
	}

	units := Extract(paper, nil)
	require.Len(t, units, 1)
	// Paragraph ordinal counts positions in the source list, so the
	// surviving paragraph keeps a stable ID even when earlier ones are empty.
	assert.Equal(t, "p2_para_2", units[0].UnitID)
	assert.Equal(t, "Real content.", units[0].Text)
}

func TestExtractNoMetadataFields(t *testing.T) {
	paper := types.Paper{PaperID: "p3", Title: "Bare"}
	units := Extract(paper, []types.UnitType{types.UnitMetadata})
	assert.Empty(t, units)
}

func TestExtractDeterminism(t *testing.T) {
	paper := fullPaper()
	first := Extract(paper, nil)
	second := Extract(paper, nil)
	assert.Equal(t, first, second)
}

func TestMetadataText(t *testing.T) {
	tests := []struct {
		name  string
		paper types.Paper
		want  string
	}{
		{
			name:  "all fields",
			paper: fullPaper(),
			want:  "Authors: J. Smith, A. Doe | Venue: NeurIPS | Year: 2023 | Fields: Computer Science | Publication Types: Conference",
		},
		{
			name:  "venue and year only",
			paper: types.Paper{PaperID: "x", Venue: "ICML", Year: 2020},
			want:  "Venue: ICML | Year: 2020",
		},
		{
			name:  "authors with empty names dropped",
			paper: types.Paper{PaperID: "x", Authors: []types.Author{{Name: ""}, {Name: "B. Lee"}}},
			want:  "Authors: B. Lee",
		},
		{
			name:  "no metadata",
			paper: types.Paper{PaperID: "x", Title: "only title"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MetadataText(tt.paper))
		})
	}
}
