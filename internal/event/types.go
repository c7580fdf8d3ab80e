package event

import "encoding/json"

// NotificationData is the data for server.notification events: a message the
// server sent on its own, forwarded off the MCP client's inbound channel.
type NotificationData struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ManualChangedData is the data for manual.changed events, published when a
// watched manual file is written.
type ManualChangedData struct {
	Path string `json:"path"`
}

// ToolListChangedData is the data for tools.changed events, published after
// a manual reload produced a different tool listing.
type ToolListChangedData struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// ServerLogData is the data for server.log events: one drained server log
// line.
type ServerLogData struct {
	Line string `json:"line"`
}
