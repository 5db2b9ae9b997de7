// Package driving provides interfaces for external actors (primary/
// inbound ports): the CLI, the directory watcher, and the MCP server.
package driving
