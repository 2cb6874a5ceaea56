// Package mcp provides an MCP (Model Context Protocol) server adapter
// for Scribe. It lets AI assistants search the local document index
// and run grounded generation.
package mcp

import "errors"

// ErrMissingRetrieval is returned when the retrieval service is not provided.
var ErrMissingRetrieval = errors.New("mcp: retrieval service is required")
