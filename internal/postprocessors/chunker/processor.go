// Package chunker provides a token-bounded text chunking processor.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// DefaultMaxTokens is the default token bound per chunk.
const DefaultMaxTokens = 600

// DefaultOverlapTokens is the default overlap between consecutive chunks.
const DefaultOverlapTokens = 150

// Processor splits document text into overlapping, token-bounded
// chunks. It implements the PostProcessor interface.
type Processor struct {
	maxTokens         int
	overlapTokens     int
	preserveStructure bool
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxTokens sets the token bound per chunk.
func WithMaxTokens(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithOverlapTokens sets the overlap between chunks in tokens.
func WithOverlapTokens(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.overlapTokens = n
		}
	}
}

// WithPreserveStructure enables splitting on paragraph and heading
// boundaries before packing.
func WithPreserveStructure(v bool) Option {
	return func(p *Processor) {
		p.preserveStructure = v
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxTokens:         DefaultMaxTokens,
		overlapTokens:     DefaultOverlapTokens,
		preserveStructure: true,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for new content in every chunk.
	if p.overlapTokens >= p.maxTokens {
		p.overlapTokens = p.maxTokens / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document text into chunks.
// Input chunks are ignored; this processor creates new chunks from
// document text. Empty or whitespace-only text produces no chunks.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}

	// Under the bound the whole document is one chunk and no
	// overlap logic engages.
	if domain.EstimateTokens(doc.Text) <= p.maxTokens {
		chunk := domain.Chunk{
			DocumentID: doc.ID,
			Index:      0,
			Text:       doc.Text,
			TokenCount: domain.EstimateTokens(doc.Text),
			Metadata:   p.chunkMetadata(doc, 0, 1),
		}
		return []domain.Chunk{chunk}, nil
	}

	// Content budget per chunk leaves room for the overlap prefix,
	// so Text (overlap + content) never exceeds maxTokens.
	budgetChars := (p.maxTokens - p.overlapTokens) * domain.CharsPerToken
	overlapChars := p.overlapTokens * domain.CharsPerToken

	units := p.splitUnits(doc.Text)
	units = hardSplit(units, budgetChars)

	// Greedily pack boundary-respecting units into content regions.
	var regions []string
	var current strings.Builder
	for _, unit := range units {
		if current.Len() > 0 && current.Len()+len(unit) > budgetChars {
			regions = append(regions, current.String())
			current.Reset()
		}
		current.WriteString(unit)
	}
	if current.Len() > 0 {
		regions = append(regions, current.String())
	}

	chunks := make([]domain.Chunk, 0, len(regions))
	prev := ""
	for i, region := range regions {
		text := region
		if i > 0 && overlapChars > 0 {
			text = tail(prev, overlapChars) + region
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID: doc.ID,
			Index:      i,
			Text:       text,
			TokenCount: domain.EstimateTokens(text),
			Metadata:   p.chunkMetadata(doc, i, len(regions)),
		})
		prev = region
	}

	return chunks, nil
}

// chunkMetadata inherits document metadata and records the chunk's
// position as "i/n".
func (p *Processor) chunkMetadata(doc *domain.Document, index, total int) map[string]any {
	md := make(map[string]any, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		md[k] = v
	}
	if doc.Title != "" {
		md["title"] = doc.Title
	}
	md["chunkOfTotal"] = fmt.Sprintf("%d/%d", index+1, total)
	return md
}

// splitUnits partitions text into structural units. Every byte of the
// input belongs to exactly one unit, so concatenating units in order
// reconstructs the text exactly.
func (p *Processor) splitUnits(text string) []string {
	if !p.preserveStructure {
		return []string{text}
	}

	var units []string
	var current strings.Builder

	lines := strings.SplitAfter(text, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// A heading starts a new unit.
		if strings.HasPrefix(trimmed, "#") && current.Len() > 0 {
			units = append(units, current.String())
			current.Reset()
		}

		current.WriteString(line)

		// A blank line ends the current unit (blank line included).
		if trimmed == "" && current.Len() > 0 {
			units = append(units, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		units = append(units, current.String())
	}

	return units
}

// hardSplit cuts any unit exceeding the character budget into
// budget-sized pieces at rune-safe boundaries.
func hardSplit(units []string, budgetChars int) []string {
	out := make([]string, 0, len(units))
	for _, unit := range units {
		for len(unit) > budgetChars {
			cut := runeSafeCut(unit, budgetChars)
			out = append(out, unit[:cut])
			unit = unit[cut:]
		}
		if unit != "" {
			out = append(out, unit)
		}
	}
	return out
}

// runeSafeCut returns the largest index <= max that does not split a
// UTF-8 sequence. Always returns at least one rune for non-empty
// input so splitting makes progress.
func runeSafeCut(s string, max int) int {
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}

// tail returns the trailing n bytes of s, rune-safe.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}
