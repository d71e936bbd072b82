// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Author identifies one author of a paper.
type Author struct {
	// AuthorID is the corpus-wide author identifier.
	AuthorID string `json:"authorId" yaml:"author_id"`

	// Name is the author's display name.
	Name string `json:"name" yaml:"name"`
}

// Paragraph is one body-text paragraph of a paper.
// Per prd001-corpus R2.3.
type Paragraph struct {
	// ParagraphID identifies the paragraph within its paper.
	ParagraphID string `json:"paragraphId" yaml:"paragraph_id"`

	// SectionTitle is the heading of the section the paragraph belongs to.
	SectionTitle string `json:"sectionTitle" yaml:"section_title"`

	// Text is the paragraph body.
	Text string `json:"text" yaml:"text"`

	// RefCount is the number of inline references in the paragraph.
	RefCount int `json:"refCount" yaml:"ref_count"`
}

// Paper is one record of the paper snapshot. Identity is PaperID; records
// are immutable once loaded for indexing. Per prd001-corpus R2.1-R2.4.
type Paper struct {
	// PaperID is the globally unique paper identifier.
	PaperID string `json:"paperId" yaml:"paper_id"`

	// CorpusID is an alternate identifier some snapshots carry.
	CorpusID string `json:"corpusId,omitempty" yaml:"corpus_id,omitempty"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists the paper authors in source order.
	Authors []Author `json:"authors" yaml:"authors"`

	// Year is the publication year.
	Year int `json:"year" yaml:"year"`

	// Venue is the conference or journal name.
	Venue string `json:"venue" yaml:"venue"`

	// CitationCount is the citation count at snapshot time.
	CitationCount int `json:"citationCount" yaml:"citation_count"`

	// PublicationDate is the full publication date as recorded by the source.
	PublicationDate string `json:"publicationDate" yaml:"publication_date"`

	// PublicationTypes lists source-assigned publication types.
	PublicationTypes []string `json:"publicationTypes" yaml:"publication_types"`

	// FieldsOfStudy lists source-assigned research fields.
	FieldsOfStudy []string `json:"fieldsOfStudy" yaml:"fields_of_study"`

	// Paragraphs holds the paper's body text in document order.
	Paragraphs []Paragraph `json:"paragraphs" yaml:"paragraphs"`
}
