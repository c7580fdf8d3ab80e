// Package echotool provides an MCP server with simple diagnostic tools.
package echotool

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server with the echotool tool set.
func NewServer() *server.MCPServer {
	s := server.NewMCPServer(
		"echotool",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(true),
		server.WithResourceCapabilities(false, true),
	)

	// Define the echo tool that returns its input verbatim
	echoTool := mcp.NewTool("echo",
		mcp.WithDescription("Echoes the provided message back to the caller"),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Message to echo back"),
		),
	)

	// Define the add tool that sums two numbers
	addTool := mcp.NewTool("add",
		mcp.WithDescription("Adds two numbers and returns the sum"),
		mcp.WithNumber("a",
			mcp.Required(),
			mcp.Description("First operand"),
		),
		mcp.WithNumber("b",
			mcp.Required(),
			mcp.Description("Second operand"),
		),
	)

	// Define the sleep_ms tool that delays its response
	sleepTool := mcp.NewTool("sleep_ms",
		mcp.WithDescription("Sleeps for the given number of milliseconds before responding"),
		mcp.WithNumber("ms",
			mcp.Required(),
			mcp.Description("Milliseconds to sleep"),
		),
	)

	// Define the fail tool that always reports a tool error
	failTool := mcp.NewTool("fail",
		mcp.WithDescription("Always fails with the provided reason"),
		mcp.WithString("reason",
			mcp.Description("Reason to include in the error"),
		),
	)

	// Add the tools with their handlers
	s.AddTool(echoTool, echoHandler)
	s.AddTool(addTool, addHandler)
	s.AddTool(sleepTool, sleepHandler)
	s.AddTool(failTool, failHandler)

	// Define the greeting prompt
	greetingPrompt := mcp.NewPrompt("greeting",
		mcp.WithPromptDescription("Produces a short greeting for the given name"),
		mcp.WithArgument("name",
			mcp.ArgumentDescription("Name of the person to greet"),
			mcp.RequiredArgument(),
		),
	)
	s.AddPrompt(greetingPrompt, greetingHandler)

	// Define the usage resource
	usageResource := mcp.NewResource("echotool://docs/usage", "usage",
		mcp.WithResourceDescription("Usage notes for the echotool server"),
		mcp.WithMIMEType("text/plain"),
	)
	s.AddResource(usageResource, usageHandler)

	return s
}

// echoHandler handles the echo tool call.
func echoHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	message, ok := args["message"].(string)
	if !ok {
		return mcp.NewToolResultError("message argument is required"), nil
	}

	return mcp.NewToolResultText(message), nil
}

// addHandler handles the add tool call.
func addHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	a, err := toFloat64(args["a"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid a: %v", err)), nil
	}
	b, err := toFloat64(args["b"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid b: %v", err)), nil
	}

	return mcp.NewToolResultText(formatFloat(a + b)), nil
}

// sleepHandler handles the sleep_ms tool call.
func sleepHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	ms, err := toFloat64(args["ms"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid ms: %v", err)), nil
	}

	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return mcp.NewToolResultText(fmt.Sprintf("slept %s ms", formatFloat(ms))), nil
}

// failHandler handles the fail tool call.
func failHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	reason, ok := args["reason"].(string)
	if !ok || reason == "" {
		reason = "requested failure"
	}

	return mcp.NewToolResultError(reason), nil
}

// greetingHandler handles the greeting prompt.
func greetingHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Arguments["name"]
	if name == "" {
		name = "stranger"
	}

	return mcp.NewGetPromptResult(
		"A short greeting",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(fmt.Sprintf("Hello, %s!", name))),
		},
	), nil
}

// usageHandler handles reads of the usage resource.
func usageHandler(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     "echotool exposes echo, add, sleep_ms and fail tools for protocol testing.",
		},
	}, nil
}

// toFloat64 converts an interface{} to a float64.
func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

// formatFloat formats a float64 as a string, removing trailing zeros.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
