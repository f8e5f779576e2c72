// Package logging configures structured slog output for skillsmcp.
//
// The serve command writes JSON logs to ~/.skillsmcp/logs/server.log and never
// to stdout or stderr, since stdout carries the MCP protocol stream. CLI
// commands log to stderr unless --log-file is given.
package logging
