// Package cmd implements the command-line interface for meetfinder.
//
// This package provides the following commands:
//   - serve: Start the scheduling HTTP API server
//   - mcp: Start the MCP server to provide scheduling tools for AI assistants
//   - find: One-shot availability query across participants' calendars
//   - auth: Authenticate with Google Calendar and store OAuth tokens
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
