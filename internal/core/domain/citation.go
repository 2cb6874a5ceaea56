package domain

// Citation links a span of generated text to a retrieved source.
// Citations are deduplicated by (DocumentID, MatchedSpan).
type Citation struct {
	// SourceIndex is the 1-based index into the answer's source
	// list. Stable within one answer: a document cited twice keeps
	// the same index.
	SourceIndex int

	// DocumentID is the cited document. It always appears in the
	// run's accumulated search results.
	DocumentID string

	// MatchedSpan is the answer substring attributed to the source.
	MatchedSpan string

	// PassageExcerpt is the retrieved passage backing the claim.
	PassageExcerpt string
}

// Source is one entry in an answer's visible source list. Only
// documents actually cited in the answer appear here.
type Source struct {
	// Index is the 1-based citation marker number.
	Index int

	// DocumentID is the source document.
	DocumentID string

	// Title is the document title when known.
	Title string

	// Excerpt is the best-scoring retrieved chunk for the document.
	Excerpt string

	// Score is the best similarity score seen for the document.
	Score float64
}

// ProcessedAnswer is the output of citation processing.
type ProcessedAnswer struct {
	// AnnotatedAnswer is the answer text with inline [n] markers.
	AnnotatedAnswer string

	// Citations are the individual span attributions.
	Citations []Citation

	// Sources lists the cited documents in marker order.
	Sources []Source
}
