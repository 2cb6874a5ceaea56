// Package driving provides interfaces for application entry points
// (primary/inbound ports). Route handlers, the CLI and the MCP server
// consume the core through these interfaces.
package driving
