package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/logger"
)

// DefaultCitationOverlap is the minimum share of a sentence's terms
// that must appear in a retrieved passage for the sentence to be
// attributed to that source.
const DefaultCitationOverlap = 0.5

// minCitationTerms is the minimum number of significant terms a
// sentence needs before it can be attributed at all. Very short
// sentences match almost anything.
const minCitationTerms = 4

// maxExcerptLen bounds the excerpt shown in the source list.
const maxExcerptLen = 300

// documentContext is the evidence gathered for one document across
// all tool rounds: its best-scoring chunk plus every chunk text, in
// first-seen order.
type documentContext struct {
	documentID string
	title      string
	bestText   string
	bestScore  float64
	texts      []string
}

// CitationProcessor infers which retrieved passages a generated
// answer actually used and annotates the answer with inline citation
// markers plus a structured source list.
//
// The matching strategy is lexical (term overlap per sentence). It is
// approximate and may over- or under-attribute; it is a policy
// choice, not a guaranteed-correct algorithm.
type CitationProcessor struct {
	overlapThreshold float64
}

// NewCitationProcessor creates a citation processor with the default
// overlap threshold.
func NewCitationProcessor() *CitationProcessor {
	return &CitationProcessor{overlapThreshold: DefaultCitationOverlap}
}

// SetOverlapThreshold tunes the attribution sensitivity.
func (p *CitationProcessor) SetOverlapThreshold(t float64) {
	if t > 0 && t <= 1 {
		p.overlapThreshold = t
	}
}

// Process annotates the answer with citations drawn from the run's
// accumulated search results. With no evidence it is a no-op: the
// answer passes through unchanged with empty citations and sources.
func (p *CitationProcessor) Process(answer string, accumulated []domain.SearchResult) *domain.ProcessedAnswer {
	if len(accumulated) == 0 || strings.TrimSpace(answer) == "" {
		return &domain.ProcessedAnswer{
			AnnotatedAnswer: answer,
			Citations:       []domain.Citation{},
			Sources:         []domain.Source{},
		}
	}

	logger.Section("Citation Processing")
	contexts := buildDocumentContexts(accumulated)
	logger.Debug("Evidence: %d documents, %d chunks", len(contexts), len(accumulated))

	sentences := splitSentences(answer)

	// sourceIndex assignment is stable: a document cited again
	// reuses its existing index rather than minting a new one.
	indexByDoc := make(map[string]int)
	var citations []domain.Citation
	seenSpans := make(map[string]bool)

	var annotated strings.Builder
	for _, sent := range sentences {
		annotated.WriteString(sent.text)

		dc := p.matchSentence(sent.text, contexts)
		if dc == nil {
			annotated.WriteString(sent.trailing)
			continue
		}

		idx, ok := indexByDoc[dc.documentID]
		if !ok {
			idx = len(indexByDoc) + 1
			indexByDoc[dc.documentID] = idx
		}

		span := strings.TrimSpace(sent.text)
		dedupeKey := dc.documentID + "\x00" + span
		if !seenSpans[dedupeKey] {
			seenSpans[dedupeKey] = true
			citations = append(citations, domain.Citation{
				SourceIndex:    idx,
				DocumentID:     dc.documentID,
				MatchedSpan:    span,
				PassageExcerpt: truncate(dc.bestText, maxExcerptLen),
			})
		}

		annotated.WriteString(fmt.Sprintf(" [%d]", idx))
		annotated.WriteString(sent.trailing)
	}

	// Only documents actually cited appear in the visible source
	// list; retrieved-but-unused evidence stays in logs.
	sources := make([]domain.Source, len(indexByDoc))
	for _, dc := range contexts {
		idx, ok := indexByDoc[dc.documentID]
		if !ok {
			logger.Debug("Document %s retrieved but never cited, dropped from sources", dc.documentID)
			continue
		}
		sources[idx-1] = domain.Source{
			Index:      idx,
			DocumentID: dc.documentID,
			Title:      dc.title,
			Excerpt:    truncate(dc.bestText, maxExcerptLen),
			Score:      dc.bestScore,
		}
	}

	logger.Info("Citations: %d spans across %d sources", len(citations), len(sources))
	return &domain.ProcessedAnswer{
		AnnotatedAnswer: annotated.String(),
		Citations:       citations,
		Sources:         sources,
	}
}

// buildDocumentContexts groups accumulated results by document in
// first-seen order, tracking each document's best-scoring chunk.
func buildDocumentContexts(results []domain.SearchResult) []*documentContext {
	byDoc := make(map[string]*documentContext)
	var ordered []*documentContext

	for _, r := range results {
		dc, ok := byDoc[r.DocumentID]
		if !ok {
			dc = &documentContext{
				documentID: r.DocumentID,
				bestText:   r.ChunkText,
				bestScore:  r.Score,
			}
			if t, ok := r.Metadata["title"].(string); ok {
				dc.title = t
			}
			byDoc[r.DocumentID] = dc
			ordered = append(ordered, dc)
		}
		if r.Score > dc.bestScore || dc.bestText == "" {
			dc.bestText = r.ChunkText
			dc.bestScore = r.Score
		}
		dc.texts = append(dc.texts, r.ChunkText)
	}

	return ordered
}

// matchSentence returns the document whose evidence best covers the
// sentence's terms, or nil when no document clears the threshold.
func (p *CitationProcessor) matchSentence(sentence string, contexts []*documentContext) *documentContext {
	terms := significantTerms(sentence)
	if len(terms) < minCitationTerms {
		return nil
	}

	var best *documentContext
	bestScore := 0.0

	for _, dc := range contexts {
		score := 0.0
		for _, text := range dc.texts {
			if s := termCoverage(terms, text); s > score {
				score = s
			}
		}
		if score >= p.overlapThreshold && score > bestScore {
			best = dc
			bestScore = score
		}
	}

	return best
}

// termCoverage is the fraction of terms present in text.
func termCoverage(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	found := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

var termPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// stopwords excluded from overlap matching; they carry no evidence.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"with": true, "that": true, "this": true, "from": true, "have": true,
	"has": true, "had": true, "not": true, "but": true, "its": true,
	"their": true, "there": true, "which": true, "will": true, "can": true,
	"all": true, "any": true, "into": true, "than": true, "then": true,
	"when": true, "where": true, "also": true, "more": true, "most": true,
	"some": true, "such": true, "only": true, "other": true, "these": true,
	"they": true, "been": true, "were": true, "would": true, "could": true,
	"should": true, "about": true, "after": true, "before": true,
}

// significantTerms extracts lowercase terms of 3+ characters,
// excluding stopwords.
func significantTerms(text string) []string {
	words := termPattern.FindAllString(strings.ToLower(text), -1)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) >= 3 && !stopwords[w] {
			terms = append(terms, w)
		}
	}
	return terms
}

// sentence is one answer sentence plus the whitespace following it,
// so reassembly preserves the original layout.
type sentence struct {
	text     string
	trailing string
}

var sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)

// splitSentences partitions the answer into sentences. Every byte of
// the input lands in exactly one sentence (text + trailing).
func splitSentences(text string) []sentence {
	var out []sentence
	rest := text
	for rest != "" {
		loc := sentenceEnd.FindStringIndex(rest)
		if loc == nil {
			out = append(out, sentence{text: rest})
			break
		}
		// Punctuation stays with the sentence; trailing whitespace
		// is kept separately so markers insert before it.
		punctEnd := loc[0]
		for punctEnd < loc[1] && !isSpace(rest[punctEnd]) {
			punctEnd++
		}
		out = append(out, sentence{
			text:     rest[:punctEnd],
			trailing: rest[punctEnd:loc[1]],
		})
		rest = rest[loc[1]:]
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

// truncate shortens s to max bytes at a rune-safe boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}
