package domain

import "time"

// CharsPerToken is the approximate number of characters per token.
// Used when no tokenizer is available for the embedding model.
const CharsPerToken = 4

// Document represents a unit of owner-submitted text to be indexed.
// It is immutable once chunked for a given indexing pass; re-indexing
// deletes all prior chunks for the same ID first.
type Document struct {
	// ID is the caller-assigned identifier for the document.
	ID string

	// OwnerID identifies the user that owns this document.
	// All retrieval is filtered by owner.
	OwnerID string

	// Title is the human-readable title, if any.
	Title string

	// Text is the full plain-text content before chunking.
	Text string

	// Metadata contains arbitrary key-value pairs (title, document
	// type, etc). A subset is inherited by each chunk.
	Metadata map[string]any

	// CreatedAt is when the document was first indexed.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-indexed.
	UpdatedAt time.Time
}

// Chunk represents a retrievable slice of a document's text.
// Consecutive chunks share overlapping text so no boundary concept
// is lost at retrieval time.
type Chunk struct {
	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the 0-based, contiguous position within the document.
	// (DocumentID, Index) identifies the same logical unit across
	// re-indexing runs, enabling idempotent upsert.
	Index int

	// Text is the chunk content, including any overlap prefix.
	Text string

	// TokenCount is the approximate token count of Text.
	TokenCount int

	// Metadata inherits a subset of Document metadata plus
	// "chunkOfTotal" ("i/n").
	Metadata map[string]any
}

// EstimateTokens approximates the token count of text using the
// CharsPerToken heuristic. Never returns a negative value.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / CharsPerToken
	if len(text)%CharsPerToken != 0 {
		n++
	}
	return n
}

// IndexReport summarises one indexing run for a document.
type IndexReport struct {
	// DocumentID is the document that was indexed.
	DocumentID string

	// ChunkCount is the number of chunks written to the index.
	ChunkCount int

	// TokenCount is the approximate total tokens across chunks.
	TokenCount int

	// Skipped is true when indexing was a no-op (empty text or
	// vector index unavailable).
	Skipped bool

	// SkipReason explains a skip, empty otherwise.
	SkipReason string
}
