package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/toolscope-io/toolscope/internal/protocol"
)

// ProtocolVersion is the MCP protocol version.
const ProtocolVersion = "2024-11-05"

// JSONRPCRequest represents a JSON-RPC 2.0 request. Notifications leave ID
// at zero so the field is omitted.
type JSONRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSONRPCMessage is the envelope used to classify inbound lines: responses
// carry an id and no method, notifications and server-initiated requests
// carry a method.
type JSONRPCMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// numericID extracts the message id when it is an integer. Client requests
// always use integer ids, so anything else cannot match a pending call.
func (m *JSONRPCMessage) numericID() (int64, bool) {
	if len(m.ID) == 0 {
		return 0, false
	}
	var id int64
	if err := json.Unmarshal(m.ID, &id); err != nil {
		return 0, false
	}
	return id, true
}

// ClientInfo identifies this client in the initialize handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities represents client capabilities.
type ClientCapabilities struct {
	Roots    *RootsCapability    `json:"roots,omitempty"`
	Sampling *SamplingCapability `json:"sampling,omitempty"`
}

// RootsCapability represents roots capabilities.
type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// SamplingCapability represents sampling capabilities.
type SamplingCapability struct{}

// ServerInfo identifies the server in the initialize result.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerCapabilities represents server capabilities.
type ServerCapabilities struct {
	Tools     *ToolCapability     `json:"tools,omitempty"`
	Resources *ResourceCapability `json:"resources,omitempty"`
	Prompts   *PromptCapability   `json:"prompts,omitempty"`
	Logging   *LoggingCapability  `json:"logging,omitempty"`
}

// ToolCapability represents tool capabilities.
type ToolCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ResourceCapability represents resource capabilities.
type ResourceCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// PromptCapability represents prompt capabilities.
type PromptCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// LoggingCapability represents logging capabilities.
type LoggingCapability struct{}

// InitializeRequest represents an initialize request.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ClientInfo         `json:"clientInfo"`
}

// InitializeResponse represents an initialize response.
type InitializeResponse struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// Prompt represents an MCP prompt.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptArgument represents a prompt argument.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ListToolsResponse represents a tools/list response.
type ListToolsResponse struct {
	Tools []Tool `json:"tools"`
}

// ListPromptsResponse represents a prompts/list response.
type ListPromptsResponse struct {
	Prompts []Prompt `json:"prompts"`
}

// ListResourcesResponse represents a resources/list response.
type ListResourcesResponse struct {
	Resources []Resource `json:"resources"`
}

// CallToolRequest represents a tools/call request.
type CallToolRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// CallToolResponse represents a tools/call response.
type CallToolResponse struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content represents one content item of a tool or prompt result.
type Content struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	MimeType string           `json:"mimeType,omitempty"`
	Data     string           `json:"data,omitempty"`
	Resource *ResourceContent `json:"resource,omitempty"`
}

// GetPromptRequest represents a prompts/get request.
type GetPromptRequest struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// GetPromptResponse represents a prompts/get response.
type GetPromptResponse struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// PromptMessage represents a prompt message.
type PromptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// ReadResourceRequest represents a resources/read request.
type ReadResourceRequest struct {
	URI string `json:"uri"`
}

// ReadResourceResponse represents a resources/read response.
type ReadResourceResponse struct {
	Contents []ResourceContent `json:"contents"`
}

// ResourceContent represents resource content, either text or base64 blob.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

func (t Tool) toProtocol() protocol.Tool {
	return protocol.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.InputSchema,
	}
}

func (p Prompt) toProtocol() protocol.Prompt {
	out := protocol.Prompt{
		Name:        p.Name,
		Description: p.Description,
	}
	for _, arg := range p.Arguments {
		out.Arguments = append(out.Arguments, protocol.PromptArgument{
			Name:        arg.Name,
			Description: arg.Description,
			Required:    arg.Required,
		})
	}
	return out
}

func (r Resource) toProtocol() protocol.Resource {
	return protocol.Resource{
		URI:         r.URI,
		Name:        r.Name,
		Description: r.Description,
		MimeType:    r.MimeType,
	}
}

func (c Content) toProtocol() protocol.ContentItem {
	item := protocol.ContentItem{
		Type:     c.Type,
		Text:     c.Text,
		Data:     c.Data,
		MimeType: c.MimeType,
	}
	if c.Resource != nil {
		r := c.Resource.toProtocol()
		item.Resource = &r
	}
	return item
}

func (r ResourceContent) toProtocol() protocol.ResourceContents {
	return protocol.ResourceContents{
		URI:      r.URI,
		MimeType: r.MimeType,
		Text:     r.Text,
		Blob:     r.Blob,
	}
}

// flatten renders content as a single display string for prompt messages.
func (c Content) flatten() string {
	switch c.Type {
	case "text", "":
		return c.Text
	case "image":
		return fmt.Sprintf("[image: %s]", c.MimeType)
	case "resource":
		if c.Resource != nil {
			return fmt.Sprintf("[resource: %s]", c.Resource.URI)
		}
		return "[resource]"
	default:
		return fmt.Sprintf("[%s]", c.Type)
	}
}

// summarizeCapabilities lists the capability groups a server declared.
func summarizeCapabilities(caps ServerCapabilities) []string {
	var out []string
	if caps.Tools != nil {
		out = append(out, "tools")
	}
	if caps.Prompts != nil {
		out = append(out, "prompts")
	}
	if caps.Resources != nil {
		out = append(out, "resources")
	}
	if caps.Logging != nil {
		out = append(out, "logging")
	}
	return out
}
