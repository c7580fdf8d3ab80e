package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/toolscope-io/toolscope/internal/logging"
	"github.com/toolscope-io/toolscope/internal/protocol"
)

// callTimeout bounds every request/response round trip.
const callTimeout = 30 * time.Second

// notificationBuffer caps the inbound channel; the read loop drops messages
// rather than block when nobody is consuming.
const notificationBuffer = 64

const (
	clientName    = "toolscope"
	clientVersion = "0.1.0"
)

// ErrConnectionClosed reports that the server process ended or the client
// was shut down while a call was in flight.
var ErrConnectionClosed = errors.New("connection closed")

// RPCError is a JSON-RPC error object returned by the server.
type RPCError struct {
	Code    int
	Message string
	Data    any
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Client is the MCP backend: one spawned server process spoken to over
// newline-delimited JSON-RPC 2.0 on its stdio.
type Client struct {
	transport *lineTransport
	calls     *correlator

	notifications chan protocol.Notification

	logMu sync.Mutex
	logs  []string

	infoMu sync.RWMutex
	info   *protocol.ServerInfo

	closeOnce sync.Once
	closeErr  error
}

var _ protocol.Client = (*Client)(nil)

// NewClient spawns the server process and starts the read and log loops.
func NewClient(command string, args ...string) (*Client, error) {
	return NewClientEnv(command, args, nil)
}

// NewClientEnv spawns the server process with extra environment variables.
func NewClientEnv(command string, args []string, env map[string]string) (*Client, error) {
	t, err := startTransport(command, args, env)
	if err != nil {
		return nil, fmt.Errorf("spawning %s: %w", command, err)
	}
	logging.Debug().Str("command", command).Strs("args", args).Msg("MCP server spawned")
	return newClientWithTransport(t), nil
}

// newClientWithTransport wires a client over an existing transport. Split
// out so tests can drive the loops over in-memory pipes.
func newClientWithTransport(t *lineTransport) *Client {
	c := &Client{
		transport:     t,
		calls:         newCorrelator(),
		notifications: make(chan protocol.Notification, notificationBuffer),
	}
	go c.readLoop()
	go c.logLoop()
	return c
}

// Initialize performs the MCP handshake: the initialize call followed by the
// initialized notification. The returned snapshot is also stored for
// ServerInfo.
func (c *Client) Initialize(ctx context.Context) (*protocol.ServerInfo, error) {
	params := InitializeRequest{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    ClientCapabilities{},
		ClientInfo: ClientInfo{
			Name:    clientName,
			Version: clientVersion,
		},
	}

	var result InitializeResponse
	if err := c.call(ctx, "initialize", params, &result); err != nil {
		return nil, err
	}

	info := &protocol.ServerInfo{
		Name:         result.ServerInfo.Name,
		Version:      result.ServerInfo.Version,
		ProtocolType: protocol.ProtocolTypeMCP,
		Capabilities: summarizeCapabilities(result.Capabilities),
	}

	c.infoMu.Lock()
	c.info = info
	c.infoMu.Unlock()

	if err := c.notify("notifications/initialized", struct{}{}); err != nil {
		return nil, fmt.Errorf("sending initialized notification: %w", err)
	}

	logging.Debug().
		Str("server", info.Name).
		Str("version", info.Version).
		Strs("capabilities", info.Capabilities).
		Msg("MCP server initialized")

	return info, nil
}

// ListTools returns the tools the server exposes.
func (c *Client) ListTools(ctx context.Context) ([]protocol.Tool, error) {
	var result ListToolsResponse
	if err := c.call(ctx, "tools/list", nil, &result); err != nil {
		return nil, err
	}

	tools := make([]protocol.Tool, len(result.Tools))
	for i, t := range result.Tools {
		tools[i] = t.toProtocol()
	}
	return tools, nil
}

// CallTool invokes a named tool with the given arguments.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*protocol.ToolCallResult, error) {
	params := CallToolRequest{
		Name:      name,
		Arguments: args,
	}

	var result CallToolResponse
	if err := c.call(ctx, "tools/call", params, &result); err != nil {
		return nil, err
	}

	out := &protocol.ToolCallResult{
		Content: make([]protocol.ContentItem, len(result.Content)),
		IsError: result.IsError,
	}
	for i, item := range result.Content {
		out.Content[i] = item.toProtocol()
	}
	return out, nil
}

// ListPrompts returns the prompts the server exposes.
func (c *Client) ListPrompts(ctx context.Context) ([]protocol.Prompt, error) {
	var result ListPromptsResponse
	if err := c.call(ctx, "prompts/list", nil, &result); err != nil {
		return nil, err
	}

	prompts := make([]protocol.Prompt, len(result.Prompts))
	for i, p := range result.Prompts {
		prompts[i] = p.toProtocol()
	}
	return prompts, nil
}

// GetPrompt fetches a named prompt with the given arguments.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*protocol.PromptResult, error) {
	params := GetPromptRequest{
		Name:      name,
		Arguments: args,
	}

	var result GetPromptResponse
	if err := c.call(ctx, "prompts/get", params, &result); err != nil {
		return nil, err
	}

	out := &protocol.PromptResult{
		Description: result.Description,
		Messages:    make([]protocol.PromptMessage, len(result.Messages)),
	}
	for i, msg := range result.Messages {
		out.Messages[i] = protocol.PromptMessage{
			Role:    msg.Role,
			Content: msg.Content.flatten(),
		}
	}
	return out, nil
}

// ListResources returns the resources the server exposes.
func (c *Client) ListResources(ctx context.Context) ([]protocol.Resource, error) {
	var result ListResourcesResponse
	if err := c.call(ctx, "resources/list", nil, &result); err != nil {
		return nil, err
	}

	resources := make([]protocol.Resource, len(result.Resources))
	for i, r := range result.Resources {
		resources[i] = r.toProtocol()
	}
	return resources, nil
}

// ReadResource reads a resource by URI.
func (c *Client) ReadResource(ctx context.Context, uri string) (*protocol.ResourceReadResult, error) {
	params := ReadResourceRequest{URI: uri}

	var result ReadResourceResponse
	if err := c.call(ctx, "resources/read", params, &result); err != nil {
		return nil, err
	}

	out := &protocol.ResourceReadResult{
		Contents: make([]protocol.ResourceContents, len(result.Contents)),
	}
	for i, content := range result.Contents {
		out.Contents[i] = content.toProtocol()
	}
	return out, nil
}

// ServerInfo returns the snapshot captured by Initialize, or nil before it.
func (c *Client) ServerInfo() *protocol.ServerInfo {
	c.infoMu.RLock()
	defer c.infoMu.RUnlock()
	return c.info
}

// DrainLogs returns the stderr lines accumulated since the previous drain
// and clears the buffer.
func (c *Client) DrainLogs() []string {
	c.logMu.Lock()
	defer c.logMu.Unlock()

	logs := c.logs
	c.logs = nil
	return logs
}

// Notifications exposes server-initiated messages. The channel closes when
// the server connection ends.
func (c *Client) Notifications() <-chan protocol.Notification {
	return c.notifications
}

// Shutdown fails any in-flight calls and kills the server process.
func (c *Client) Shutdown() error {
	c.closeOnce.Do(func() {
		c.calls.closeAll()
		c.closeErr = c.transport.kill()
		logging.Debug().Msg("MCP client shut down")
	})
	return c.closeErr
}

// call performs one request/response round trip. The completion slot is
// registered before the request is written; the wait is bounded by
// callTimeout on top of any caller deadline.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	id, ch, err := c.calls.register()
	if err != nil {
		return err
	}

	req := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}

	line, err := json.Marshal(req)
	if err != nil {
		c.calls.drop(id)
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	if err := c.transport.writeLine(line); err != nil {
		c.calls.drop(id)
		return fmt.Errorf("sending %s request: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	select {
	case resp := <-ch:
		if resp == nil {
			return ErrConnectionClosed
		}
		if resp.Error != nil {
			return &RPCError{
				Code:    resp.Error.Code,
				Message: resp.Error.Message,
				Data:    resp.Error.Data,
			}
		}
		if result != nil && resp.Result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("decoding %s response: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.calls.drop(id)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("request %s timed out: %w", method, ctx.Err())
		}
		return ctx.Err()
	}
}

// notify sends a notification; no id, no response.
func (c *Client) notify(method string, params any) error {
	req := JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	}

	line, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding %s notification: %w", method, err)
	}
	return c.transport.writeLine(line)
}

// readLoop routes each stdout line until the stream ends, then fails all
// in-flight calls so their waiters return immediately.
func (c *Client) readLoop() {
	for {
		line, err := c.transport.readLine()
		if err != nil {
			c.calls.closeAll()
			close(c.notifications)
			logging.Debug().Err(err).Msg("MCP stdout closed")
			return
		}
		c.dispatch(line)
	}
}

// dispatch classifies one line: a response for a pending call, a
// server-initiated message for the inbound channel, or noise to skip.
func (c *Client) dispatch(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	var msg JSONRPCMessage
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		logging.Debug().Err(err).Msg("skipping unparsable server line")
		return
	}

	if id, ok := msg.numericID(); ok && msg.Method == "" {
		resp := &JSONRPCResponse{
			JSONRPC: msg.JSONRPC,
			ID:      id,
			Result:  msg.Result,
			Error:   msg.Error,
		}
		if !c.calls.resolve(id, resp) {
			logging.Debug().Int64("id", id).Msg("discarding response with no pending request")
		}
		return
	}

	if msg.Method != "" {
		select {
		case c.notifications <- protocol.Notification{Method: msg.Method, Params: msg.Params}:
		default:
			logging.Debug().Str("method", msg.Method).Msg("inbound buffer full, dropping message")
		}
		return
	}

	logging.Debug().Msg("skipping unrecognized server message")
}

// logLoop collects stderr lines until the stream ends.
func (c *Client) logLoop() {
	for {
		line, err := c.transport.readErrLine()
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		c.logMu.Lock()
		c.logs = append(c.logs, line)
		c.logMu.Unlock()
	}
}
