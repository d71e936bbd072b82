// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// UnitType names the kind of retrieval unit derived from a paper.
// Per prd002-dense-index R1.1.
type UnitType string

const (
	UnitTitle     UnitType = "title"
	UnitAbstract  UnitType = "abstract"
	UnitMetadata  UnitType = "metadata"
	UnitParagraph UnitType = "paragraph"
)

// AllUnitTypes lists every unit type in the order units are extracted
// from a paper: paragraphs first, then abstract, title, and metadata.
var AllUnitTypes = []UnitType{UnitParagraph, UnitAbstract, UnitTitle, UnitMetadata}

// ParseUnitType validates a unit type string.
func ParseUnitType(s string) (UnitType, bool) {
	switch UnitType(s) {
	case UnitTitle, UnitAbstract, UnitMetadata, UnitParagraph:
		return UnitType(s), true
	}
	return "", false
}

// Unit is an embeddable text fragment derived from exactly one paper.
// UnitID is unique within an index and stable across rebuilds of the
// same snapshot. Per prd002-dense-index R1.2-R1.4.
type Unit struct {
	// UnitID is the synthetic unit identifier, e.g. "abc123_para_4".
	UnitID string `json:"unit_id" yaml:"unit_id"`

	// Type is the unit kind: title, abstract, metadata, or paragraph.
	Type UnitType `json:"unit_type" yaml:"unit_type"`

	// PaperID is the identifier of the source paper.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Text is the embeddable fragment.
	Text string `json:"text" yaml:"text"`
}

// ScoredPaper is one entry of a ranked retrieval result.
type ScoredPaper struct {
	// PaperID identifies the retrieved paper.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Score is the retrieval score; higher is more relevant.
	Score float64 `json:"score" yaml:"score"`
}

// RankedResult is an ordered list of scored papers: unique paper IDs,
// non-increasing scores, length bounded by the requested k.
// Per prd003-retrieval R3.1-R3.3.
type RankedResult []ScoredPaper

// PaperIDs returns the ranked paper identifiers in order.
func (r RankedResult) PaperIDs() []string {
	ids := make([]string, len(r))
	for i, sp := range r {
		ids[i] = sp.PaperID
	}
	return ids
}

// QueryRecord is one line of a query file: the natural-language query and
// the gold paper it should re-find. Per prd005-evaluation R1.1.
type QueryRecord struct {
	// Query is the natural-language query text.
	Query string `json:"query" yaml:"query"`

	// PaperID is the gold paper for this query.
	PaperID string `json:"paperId" yaml:"paper_id"`
}

// ResultRecord is one line of a results file: the query, the gold paper,
// and the ranked retrieval output. Per prd005-evaluation R1.2.
type ResultRecord struct {
	// Query is the original query text.
	Query string `json:"query" yaml:"query"`

	// Expected is the gold paper ID carried through from the query file.
	Expected string `json:"expected" yaml:"expected"`

	// Retrieved is the ranked list produced by a retriever, bounded by k.
	Retrieved RankedResult `json:"retrieved" yaml:"retrieved"`
}
