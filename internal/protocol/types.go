package protocol

import "encoding/json"

// Tool describes a callable tool.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// Prompt describes a prompt template.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptArgument describes one argument a prompt accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Resource describes a readable resource.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// Content item types.
const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeResource = "resource"
)

// ContentItem is one element of a tool result. Type selects which fields are
// meaningful: text items carry Text, image items carry base64 Data plus
// MimeType, resource items carry Resource.
type ContentItem struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	Data     string            `json:"data,omitempty"`
	MimeType string            `json:"mimeType,omitempty"`
	Resource *ResourceContents `json:"resource,omitempty"`
}

// TextContent builds a text content item.
func TextContent(text string) ContentItem {
	return ContentItem{Type: ContentTypeText, Text: text}
}

// ToolCallResult is the outcome of a tool invocation. IsError marks a
// tool-level failure that still produced content, as opposed to a Go error
// from the call itself.
type ToolCallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// PromptMessage is one message of a rendered prompt. Non-text message
// content is flattened to a readable placeholder.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PromptResult is a fetched prompt.
type PromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// ResourceContents is one block of resource data. Text and Blob are mutually
// exclusive; Blob is base64-encoded.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// ResourceReadResult is the outcome of reading a resource.
type ResourceReadResult struct {
	Contents []ResourceContents `json:"contents"`
}

// Protocol types reported in ServerInfo.
const (
	ProtocolTypeMCP  = "MCP"
	ProtocolTypeUTCP = "UTCP"
)

// ServerInfo is the snapshot captured during Initialize.
type ServerInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	ProtocolType string   `json:"protocolType"`
	Capabilities []string `json:"capabilities"`
}

// Notification is a server-initiated message surfaced by the MCP backend's
// inbound channel.
type Notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}
