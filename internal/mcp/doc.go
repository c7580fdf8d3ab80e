// Package mcp implements the MCP backend: a client for Model Context
// Protocol servers that run as child processes and speak newline-delimited
// JSON-RPC 2.0 over stdio.
//
// The client spawns the server once and keeps it alive for its whole
// lifetime. Two background goroutines service the process: a read loop that
// parses each stdout line and routes responses to the requests waiting on
// them, and a log loop that collects stderr lines into a buffer drained via
// DrainLogs.
//
// # Request correlation
//
// Every outgoing request carries a fresh integer id from a monotonically
// increasing counter. A completion slot is registered under that id before
// the request bytes are written, so a server that answers instantly still
// finds the slot. Each call waits on its own slot with a 30 second deadline;
// expired slots are removed, and responses that arrive for an unknown id are
// discarded.
//
// # Basic usage
//
//	client, err := mcp.NewClient("my-mcp-server", "--flag")
//	if err != nil {
//		return err
//	}
//	defer client.Shutdown()
//
//	info, err := client.Initialize(ctx)
//	if err != nil {
//		return err
//	}
//
//	tools, err := client.ListTools(ctx)
//	result, err := client.CallTool(ctx, "echo", map[string]any{"message": "hi"})
//
// Server-initiated messages (notifications and requests) are exposed on the
// channel returned by Notifications; stderr output is available from
// DrainLogs. Both are optional to consume and never block the read loops.
//
// The package implements MCP protocol version 2024-11-05.
package mcp
