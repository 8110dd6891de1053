// Package segment splits raw credit-agreement text into semantically
// meaningful, importance-scored sections. Segmentation never fails: a
// document with no recognizable structure degrades to a single
// whole-document section.
package segment

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// SectionType classifies a document section structurally.
type SectionType string

const (
	TypePreamble  SectionType = "preamble"
	TypeArticle   SectionType = "article"
	TypeExhibit   SectionType = "exhibit"
	TypeSchedule  SectionType = "schedule"
	TypeSignature SectionType = "signature"
	TypeUnknown   SectionType = "unknown"
)

// DocumentSection is a contiguous, bounded span of source text annotated
// with a structural type and an importance score in [0,1]. Sections are
// immutable once created and discarded after extraction.
type DocumentSection struct {
	Title       string
	Content     string
	Type        SectionType
	StartOffset int
	EndOffset   int
	Importance  float64
}

// Default sizing constants. MaxChunkChars bounds section content to the
// downstream model context window.
const (
	DefaultMaxChunkChars = 25_000
	minPreambleChars     = 200
	signatureDocMinChars = 50_000
	signatureTailChars   = 10_000
)

// Structural markers are compiled once; regexps are safe for concurrent use.
var (
	articleRe  = regexp.MustCompile(`(?m)^[ \t]*ARTICLE\s+([IVXLC]+|\d+)\b[.\s\-]*([A-Z][A-Z ,&'\-]*[A-Z])?`)
	exhibitRe  = regexp.MustCompile(`(?m)^[ \t]*EXHIBIT\s+([A-Z]|\d+)\b`)
	scheduleRe = regexp.MustCompile(`(?m)^[ \t]*SCHEDULE\s+([A-Z]|[\d.]+)\b`)
)

// keywordCategories drives importance scoring: one hit per category adds
// 0.1 to the 0.5 base, capped at 1.0.
var keywordCategories = map[string][]string{
	"parties":    {"borrower", "lender", "guarantor", "administrative agent", "parties"},
	"facilities": {"facility", "term loan", "revolving", "commitment", "tranche"},
	"terms":      {"interest", "margin", "spread", "benchmark", "sofr", "libor"},
	"dates":      {"maturity", "dated", "effective date", "termination"},
	"esg":        {"sustainability", "esg", "green", "kpi"},
}

// Segmenter produces scored sections from raw document text.
type Segmenter struct {
	maxChunkChars int
}

// Config holds segmentation tuning. Zero values select defaults.
type Config struct {
	MaxChunkChars int
}

// New creates a Segmenter.
func New(cfg Config) *Segmenter {
	maxChunk := cfg.MaxChunkChars
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunkChars
	}
	return &Segmenter{maxChunkChars: maxChunk}
}

// Segment splits text into sections sorted by descending importance.
// Empty input yields an empty list; input with no structural markers
// yields a single whole-document section of type unknown.
func (s *Segmenter) Segment(text string) []DocumentSection {
	if text == "" {
		return nil
	}

	var sections []DocumentSection

	articles := articleRe.FindAllStringSubmatchIndex(text, -1)
	if len(articles) == 0 {
		return []DocumentSection{s.fallbackSection(text)}
	}

	// Preamble: everything before the first article marker. Structurally
	// the most likely place to find the parties and the agreement date.
	if first := articles[0][0]; first > minPreambleChars {
		sections = append(sections, DocumentSection{
			Title:       "Preamble",
			Content:     s.truncate(text[:first]),
			Type:        TypePreamble,
			StartOffset: 0,
			EndOffset:   first,
			Importance:  0.95,
		})
	}

	// One section per article, spanning to the next article marker.
	for i, m := range articles {
		start := m[0]
		end := len(text)
		if i+1 < len(articles) {
			end = articles[i+1][0]
		}
		content := text[start:end]
		sections = append(sections, DocumentSection{
			Title:       articleTitle(text, m),
			Content:     s.truncate(content),
			Type:        TypeArticle,
			StartOffset: start,
			EndOffset:   end,
			Importance:  scoreByKeywords(content),
		})
	}

	// Exhibits and schedules can nest outside article boundaries, so they
	// are carved out independently.
	sections = append(sections, s.attachmentSections(text)...)

	// Long documents get a fixed-size tail section: dates and
	// counterparties conventionally sit near the signature block.
	if len(text) > signatureDocMinChars {
		start := len(text) - signatureTailChars
		sections = append(sections, DocumentSection{
			Title:       "Signature Pages",
			Content:     text[start:],
			Type:        TypeSignature,
			StartOffset: start,
			EndOffset:   len(text),
			Importance:  0.85,
		})
	}

	// Callers consume an importance-ranked prefix. Stable sort keeps the
	// document order among ties.
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Importance > sections[j].Importance
	})
	return sections
}

// fallbackSection wraps the whole document as a single unknown section.
func (s *Segmenter) fallbackSection(text string) DocumentSection {
	return DocumentSection{
		Title:       "Full Document",
		Content:     s.truncate(text),
		Type:        TypeUnknown,
		StartOffset: 0,
		EndOffset:   len(text),
		Importance:  1.0,
	}
}

// FallbackSection returns the single-chunk policy section for callers
// that received an empty segmentation result.
func (s *Segmenter) FallbackSection(text string) DocumentSection {
	return s.fallbackSection(text)
}

func (s *Segmenter) attachmentSections(text string) []DocumentSection {
	type marker struct {
		start, end int
		label      string
		kind       SectionType
	}

	var markers []marker
	for _, m := range exhibitRe.FindAllStringSubmatchIndex(text, -1) {
		markers = append(markers, marker{
			start: m[0],
			label: fmt.Sprintf("Exhibit %s", text[m[2]:m[3]]),
			kind:  TypeExhibit,
		})
	}
	for _, m := range scheduleRe.FindAllStringSubmatchIndex(text, -1) {
		markers = append(markers, marker{
			start: m[0],
			label: fmt.Sprintf("Schedule %s", text[m[2]:m[3]]),
			kind:  TypeSchedule,
		})
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].start < markers[j].start })

	var sections []DocumentSection
	for i, mk := range markers {
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1].start
		}
		content := text[mk.start:end]

		importance := 0.6
		if mk.kind == TypeSchedule {
			importance = 0.7
			// Commitment schedules carry the facility amounts.
			if strings.Contains(strings.ToLower(content), "commitment") {
				importance = 0.9
			}
		}

		sections = append(sections, DocumentSection{
			Title:       mk.label,
			Content:     s.truncate(content),
			Type:        mk.kind,
			StartOffset: mk.start,
			EndOffset:   end,
			Importance:  importance,
		})
	}
	return sections
}

func (s *Segmenter) truncate(content string) string {
	if len(content) > s.maxChunkChars {
		return content[:s.maxChunkChars]
	}
	return content
}

// articleTitle renders "ARTICLE <num> <TITLE>" from a submatch index set.
func articleTitle(text string, m []int) string {
	title := "Article " + text[m[2]:m[3]]
	if m[4] >= 0 {
		title += " " + strings.TrimSpace(text[m[4]:m[5]])
	}
	return title
}

// scoreByKeywords starts at 0.5 and adds 0.1 per keyword category with at
// least one hit, capped at 1.0.
func scoreByKeywords(content string) float64 {
	lower := strings.ToLower(content)
	score := 0.5
	for _, words := range keywordCategories {
		for _, w := range words {
			if strings.Contains(lower, w) {
				score += 0.1
				break
			}
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
