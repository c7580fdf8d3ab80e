package utcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/toolscope-io/toolscope/internal/logging"
	"github.com/toolscope-io/toolscope/internal/protocol"
)

// suggestionDistance is the largest edit distance at which an unknown tool
// name still earns a did-you-mean hint.
const suggestionDistance = 3

// Client is the UTCP backend. Tool calls execute in-process from the loaded
// manual; there is no server and no background goroutine.
type Client struct {
	manual   *Manual
	executor *executor

	info *protocol.ServerInfo

	logMu sync.Mutex
	logs  []string
}

var _ protocol.Client = (*Client)(nil)

// NewClient loads and validates the manual at path. Manifest problems are
// fatal here rather than at call time.
func NewClient(path string) (*Client, error) {
	manual, err := LoadManual(path)
	if err != nil {
		return nil, err
	}
	return NewClientFromManual(manual), nil
}

// NewClientFromManual wraps an already loaded manual.
func NewClientFromManual(manual *Manual) *Client {
	engine := newTemplateEngine(manual.Variables)
	return &Client{
		manual:   manual,
		executor: newExecutor(engine),
		info: &protocol.ServerInfo{
			Name:         manual.Info.Title,
			Version:      manual.Info.Version,
			ProtocolType: protocol.ProtocolTypeUTCP,
			Capabilities: []string{
				fmt.Sprintf("%d tools", len(manual.Tools)),
				"HTTP execution",
				"CLI execution",
			},
		},
	}
}

// Initialize is immediate; the manual was loaded and validated during
// construction.
func (c *Client) Initialize(ctx context.Context) (*protocol.ServerInfo, error) {
	c.appendLog("UTCP client initialized")
	logging.Debug().
		Str("manual", c.manual.Info.Title).
		Int("tools", len(c.manual.Tools)).
		Msg("UTCP client initialized")
	return c.info, nil
}

// ListTools re-derives descriptors from the manual on every call.
func (c *Client) ListTools(ctx context.Context) ([]protocol.Tool, error) {
	tools := make([]protocol.Tool, len(c.manual.Tools))
	for i, t := range c.manual.Tools {
		tools[i] = protocol.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Inputs,
		}
	}
	return tools, nil
}

// CallTool executes the named tool's call template.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*protocol.ToolCallResult, error) {
	tool := c.findTool(name)
	if tool == nil {
		if suggestion := c.closestTool(name); suggestion != "" {
			return nil, fmt.Errorf("tool %q not found (did you mean %q?)", name, suggestion)
		}
		return nil, fmt.Errorf("tool %q not found", name)
	}

	argsJSON, _ := json.Marshal(args)
	c.appendLog(fmt.Sprintf("Calling tool: %s with args: %s", name, argsJSON))

	result, err := c.executor.execute(ctx, tool, args)
	if err != nil {
		return nil, err
	}

	c.appendLog(fmt.Sprintf("Tool '%s' execution completed", name))
	return result, nil
}

// ListPrompts always returns an empty list; manuals do not define prompts.
func (c *Client) ListPrompts(ctx context.Context) ([]protocol.Prompt, error) {
	return []protocol.Prompt{}, nil
}

// GetPrompt always fails; manuals do not define prompts.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*protocol.PromptResult, error) {
	return nil, fmt.Errorf("UTCP backend does not support prompts: %w", protocol.ErrUnsupported)
}

// ListResources always returns an empty list; manuals do not define
// resources.
func (c *Client) ListResources(ctx context.Context) ([]protocol.Resource, error) {
	return []protocol.Resource{}, nil
}

// ReadResource always fails; manuals do not define resources.
func (c *Client) ReadResource(ctx context.Context, uri string) (*protocol.ResourceReadResult, error) {
	return nil, fmt.Errorf("UTCP backend does not support resources: %w", protocol.ErrUnsupported)
}

// ServerInfo returns the snapshot derived from the manual.
func (c *Client) ServerInfo() *protocol.ServerInfo {
	return c.info
}

// DrainLogs returns the activity entries accumulated since the previous
// drain and clears the buffer.
func (c *Client) DrainLogs() []string {
	c.logMu.Lock()
	defer c.logMu.Unlock()

	logs := c.logs
	c.logs = nil
	return logs
}

// Shutdown has no process to stop; it only records the event.
func (c *Client) Shutdown() error {
	c.appendLog("UTCP client shut down")
	return nil
}

// Manual exposes the loaded manual for callers that render it directly.
func (c *Client) Manual() *Manual {
	return c.manual
}

func (c *Client) appendLog(entry string) {
	c.logMu.Lock()
	defer c.logMu.Unlock()
	c.logs = append(c.logs, entry)
}

func (c *Client) findTool(name string) *Tool {
	for i := range c.manual.Tools {
		if c.manual.Tools[i].Name == name {
			return &c.manual.Tools[i]
		}
	}
	return nil
}

// closestTool returns the nearest tool name within suggestionDistance edits,
// or "" when nothing is close.
func (c *Client) closestTool(name string) string {
	best := ""
	bestDist := suggestionDistance + 1
	for _, t := range c.manual.Tools {
		if dist := levenshtein.ComputeDistance(name, t.Name); dist < bestDist {
			best = t.Name
			bestDist = dist
		}
	}
	return best
}
