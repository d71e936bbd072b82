// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package units derives embeddable retrieval units from paper records.
// Implements: prd002-dense-index (R1); docs/ARCHITECTURE § Retrieval Units.
package units

import (
	"fmt"
	"strings"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// Extract returns the retrieval units of paper for the requested unit
// types. The output is deterministic: for a fixed paper and type set the
// sequence and the unit IDs are identical across runs, so rebuilt indexes
// keep stable join keys (R1.4). Extract never mutates paper.
//
// Per-paper order follows the snapshot pipeline: paragraphs in document
// order, then abstract, title, and metadata. Units whose text would be
// empty are omitted (R1.3).
func Extract(paper types.Paper, unitTypes []types.UnitType) []types.Unit {
	requested := make(map[types.UnitType]bool, len(unitTypes))
	for _, ut := range unitTypes {
		requested[ut] = true
	}
	if len(unitTypes) == 0 {
		for _, ut := range types.AllUnitTypes {
			requested[ut] = true
		}
	}

	var units []types.Unit

	if requested[types.UnitParagraph] {
		for i, para := range paper.Paragraphs {
			if strings.TrimSpace(para.Text) == "" {
				continue
			}
			units = append(units, types.Unit{
				UnitID:  fmt.Sprintf("%s_para_%d", paper.PaperID, i),
				Type:    types.UnitParagraph,
				PaperID: paper.PaperID,
				Text:    paragraphText(para),
			})
		}
	}

	if requested[types.UnitAbstract] && paper.Abstract != "" {
		units = append(units, types.Unit{
			UnitID:  paper.PaperID + "_abstract",
			Type:    types.UnitAbstract,
			PaperID: paper.PaperID,
			Text:    paper.Abstract,
		})
	}

	if requested[types.UnitTitle] && paper.Title != "" {
		units = append(units, types.Unit{
			UnitID:  paper.PaperID + "_title",
			Type:    types.UnitTitle,
			PaperID: paper.PaperID,
			Text:    paper.Title,
		})
	}

	if requested[types.UnitMetadata] {
		if text := MetadataText(paper); text != "" {
			units = append(units, types.Unit{
				UnitID:  paper.PaperID + "_metadata",
				Type:    types.UnitMetadata,
				PaperID: paper.PaperID,
				Text:    text,
			})
		}
	}

	return units
}

// paragraphText prefixes the section title for context when present.
func paragraphText(para types.Paragraph) string {
	if para.SectionTitle == "" {
		return para.Text
	}
	return para.SectionTitle + ": " + para.Text
}

// MetadataText builds the descriptive metadata string for a paper:
// labeled fields joined by " | " in a fixed order. Empty fields are
// omitted; an empty result means the paper has no metadata unit (R1.3).
func MetadataText(paper types.Paper) string {
	var parts []string

	if len(paper.Authors) > 0 {
		names := make([]string, 0, len(paper.Authors))
		for _, a := range paper.Authors {
			if a.Name != "" {
				names = append(names, a.Name)
			}
		}
		if len(names) > 0 {
			parts = append(parts, "Authors: "+strings.Join(names, ", "))
		}
	}
	if paper.Venue != "" {
		parts = append(parts, "Venue: "+paper.Venue)
	}
	if paper.Year != 0 {
		parts = append(parts, fmt.Sprintf("Year: %d", paper.Year))
	}
	if len(paper.FieldsOfStudy) > 0 {
		parts = append(parts, "Fields: "+strings.Join(paper.FieldsOfStudy, ", "))
	}
	if len(paper.PublicationTypes) > 0 {
		parts = append(parts, "Publication Types: "+strings.Join(paper.PublicationTypes, ", "))
	}

	return strings.Join(parts, " | ")
}
