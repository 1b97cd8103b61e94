package extract

import (
	"regexp"
	"sort"
	"strings"
)

const (
	keywordWeight       = 10
	sectionMarkerWeight = 5
	minKeywordLen       = 4 // tokens shorter than this carry no signal

	// ElisionMarker separates non-adjacent chunks in a windowed excerpt.
	ElisionMarker = "\n[...]\n"
)

// Matches "Section 4" style headings and "4.2" / "B.1" style alphanumeric
// markers. Lines carrying these are boosted because citations depend on
// section numbers surviving extraction.
var sectionMarkerRe = regexp.MustCompile(`(?i)\bsection\s+\d+|\b[A-Za-z]?\d+(\.\d+)+\b|\b[A-Za-z]\.\d+\b`)

// Extractor returns the most query-relevant portion of a document within a
// size budget. Extraction is lossy: the cap can cut mid-sentence, which is
// accepted behavior, not a defect.
type Extractor struct {
	InlineThreshold int // documents at or below this length pass through whole
	Cap             int // max excerpt length
	Window          int // lines kept around each scoring line
}

func NewExtractor(inlineThreshold, cap, window int) *Extractor {
	return &Extractor{
		InlineThreshold: inlineThreshold,
		Cap:             cap,
		Window:          window,
	}
}

// Extract returns content unchanged when it is short enough, otherwise a
// windowed excerpt around the lines scoring against the query. A document
// with no scoring lines yields its head, deterministically, never an error.
func (e *Extractor) Extract(content, query string) string {
	if len(content) <= e.InlineThreshold {
		return content
	}

	lines := strings.Split(content, "\n")
	keywords := queryKeywords(query)

	var hits []int
	for i, line := range lines {
		if scoreLine(line, keywords) > 0 {
			hits = append(hits, i)
		}
	}

	if len(hits) == 0 {
		// Cap can be configured above the inline threshold.
		if len(content) <= e.Cap {
			return content
		}
		return content[:e.Cap]
	}

	// Union of ±Window around every hit, merged into ordered chunks.
	included := make(map[int]bool)
	for _, hit := range hits {
		lo := hit - e.Window
		if lo < 0 {
			lo = 0
		}
		hi := hit + e.Window
		if hi > len(lines)-1 {
			hi = len(lines) - 1
		}
		for i := lo; i <= hi; i++ {
			included[i] = true
		}
	}

	indices := make([]int, 0, len(included))
	for i := range included {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var sb strings.Builder
	prev := -2
	for _, idx := range indices {
		if prev >= 0 && idx != prev+1 {
			sb.WriteString(ElisionMarker)
		} else if prev >= 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(lines[idx])
		prev = idx
	}

	excerpt := sb.String()
	if len(excerpt) > e.Cap {
		excerpt = excerpt[:e.Cap]
	}
	return excerpt
}

// queryKeywords lower-cases and keeps tokens long enough to carry signal.
func queryKeywords(query string) []string {
	var keywords []string
	for _, token := range strings.Fields(query) {
		if len(token) >= minKeywordLen {
			keywords = append(keywords, strings.ToLower(token))
		}
	}
	return keywords
}

// scoreLine counts each keyword once, not per occurrence, and boosts lines
// that look like section headings.
func scoreLine(line string, keywords []string) int {
	lower := strings.ToLower(line)

	score := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			score += keywordWeight
		}
	}

	if score > 0 && sectionMarkerRe.MatchString(line) {
		score += sectionMarkerWeight
	}

	return score
}
