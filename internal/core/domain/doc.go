// Package domain contains the core business entities and errors for
// the Scribe retrieval-augmented generation pipeline. It has no
// dependencies on adapters or infrastructure.
package domain
