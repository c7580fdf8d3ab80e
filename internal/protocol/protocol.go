// Package protocol defines the backend-neutral client contract shared by the
// MCP and UTCP backends, along with the descriptor and result types both
// produce.
package protocol

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by operations a backend does not implement.
// The UTCP backend wraps it for prompt and resource access.
var ErrUnsupported = errors.New("unsupported operation")

// Client is the uniform interface over a capability server. Both backends
// implement it: the MCP backend over a spawned child process, the UTCP
// backend over a declarative manual.
//
// Initialize must be called exactly once before the other operations are
// well-defined. All methods are safe for concurrent use.
type Client interface {
	// Initialize performs the backend handshake and returns the server-info
	// snapshot that ServerInfo reports from then on.
	Initialize(ctx context.Context) (*ServerInfo, error)

	// ListTools returns the tools the server currently exposes.
	ListTools(ctx context.Context) ([]Tool, error)

	// CallTool invokes a named tool with the given arguments.
	CallTool(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error)

	// ListPrompts returns the prompts the server exposes. Backends without
	// prompt support return an empty slice.
	ListPrompts(ctx context.Context) ([]Prompt, error)

	// GetPrompt fetches a named prompt. Backends without prompt support fail
	// with ErrUnsupported.
	GetPrompt(ctx context.Context, name string, args map[string]string) (*PromptResult, error)

	// ListResources returns the resources the server exposes. Backends
	// without resource support return an empty slice.
	ListResources(ctx context.Context) ([]Resource, error)

	// ReadResource reads a resource by URI. Backends without resource
	// support fail with ErrUnsupported.
	ReadResource(ctx context.Context, uri string) (*ResourceReadResult, error)

	// ServerInfo returns the snapshot captured by Initialize, or nil if
	// Initialize has not completed.
	ServerInfo() *ServerInfo

	// DrainLogs returns the log lines accumulated since the previous drain
	// and clears the buffer.
	DrainLogs() []string

	// Shutdown tears the client down. It is idempotent.
	Shutdown() error
}
