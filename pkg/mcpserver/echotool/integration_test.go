package echotool

import (
	"context"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEchotoolServer_MCPClient tests the echotool server using the
// modelcontextprotocol go-sdk client, verifying end-to-end MCP communication.
func TestEchotoolServer_MCPClient(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Create the echotool MCP server
	mcpServer := NewServer()
	stdioServer := server.NewStdioServer(mcpServer)

	// Create pipes for bidirectional communication
	// serverReader <- clientWriter (client sends to server)
	// clientReader <- serverWriter (server sends to client)
	serverReader, clientWriter := io.Pipe()
	clientReader, serverWriter := io.Pipe()

	// Start the server in a goroutine
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- stdioServer.Listen(ctx, serverReader, serverWriter)
	}()

	// Create the MCP client
	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	// Use IOTransport with our pipes
	transport := &sdkmcp.IOTransport{
		Reader: clientReader,
		Writer: clientWriter,
	}

	// Connect the client to the server
	session, err := client.Connect(ctx, transport, nil)
	require.NoError(t, err, "failed to connect client to server")
	defer session.Close()

	// List tools and verify all four are registered
	listResult, err := session.ListTools(ctx, nil)
	require.NoError(t, err, "failed to list tools")

	toolNames := make(map[string]bool, len(listResult.Tools))
	for _, tool := range listResult.Tools {
		toolNames[tool.Name] = true
	}
	for _, want := range []string{"echo", "add", "sleep_ms", "fail"} {
		assert.True(t, toolNames[want], "%s tool should be registered", want)
	}

	t.Run("echo returns message", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name: "echo",
			Arguments: map[string]any{
				"message": "ping",
			},
		})
		require.NoError(t, err)
		require.False(t, result.IsError)
		require.NotEmpty(t, result.Content)

		textContent, ok := result.Content[0].(*sdkmcp.TextContent)
		require.True(t, ok, "content should be TextContent")
		assert.Equal(t, "ping", textContent.Text)
	})

	t.Run("add sums operands", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name: "add",
			Arguments: map[string]any{
				"a": 1.25,
				"b": 2.75,
			},
		})
		require.NoError(t, err)
		require.False(t, result.IsError)
		require.NotEmpty(t, result.Content)

		textContent, ok := result.Content[0].(*sdkmcp.TextContent)
		require.True(t, ok)
		assert.Equal(t, "4", textContent.Text)
	})

	t.Run("fail reports tool error", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name: "fail",
			Arguments: map[string]any{
				"reason": "deliberate",
			},
		})
		require.NoError(t, err)
		require.True(t, result.IsError, "fail tool should set IsError")
		require.NotEmpty(t, result.Content)

		textContent, ok := result.Content[0].(*sdkmcp.TextContent)
		require.True(t, ok)
		assert.Equal(t, "deliberate", textContent.Text)
	})

	t.Run("greeting prompt", func(t *testing.T) {
		prompts, err := session.ListPrompts(ctx, nil)
		require.NoError(t, err)
		require.Len(t, prompts.Prompts, 1)
		assert.Equal(t, "greeting", prompts.Prompts[0].Name)

		result, err := session.GetPrompt(ctx, &sdkmcp.GetPromptParams{
			Name: "greeting",
			Arguments: map[string]string{
				"name": "tester",
			},
		})
		require.NoError(t, err)
		require.Len(t, result.Messages, 1)
		assert.EqualValues(t, "user", result.Messages[0].Role)

		textContent, ok := result.Messages[0].Content.(*sdkmcp.TextContent)
		require.True(t, ok)
		assert.Equal(t, "Hello, tester!", textContent.Text)
	})

	t.Run("usage resource", func(t *testing.T) {
		resources, err := session.ListResources(ctx, nil)
		require.NoError(t, err)
		require.Len(t, resources.Resources, 1)
		assert.Equal(t, "echotool://docs/usage", resources.Resources[0].URI)

		result, err := session.ReadResource(ctx, &sdkmcp.ReadResourceParams{
			URI: "echotool://docs/usage",
		})
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, "echo")
	})

	// Clean up
	cancel()
	clientWriter.Close()
	serverWriter.Close()
}

// TestEchotoolServer_SSE tests the echotool server using SSE transport
// with the modelcontextprotocol go-sdk client.
func TestEchotoolServer_SSE(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Find an available port
	port := getFreePort(t)
	addr := fmt.Sprintf("localhost:%d", port)
	sseURL := fmt.Sprintf("http://%s/sse", addr)

	// Create the echotool MCP server
	mcpServer := NewServer()

	// Create SSE server from mcp-go
	sseServer := server.NewSSEServer(mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://%s", addr)),
	)

	// Start SSE server in background
	go func() {
		if err := sseServer.Start(addr); err != nil {
			t.Logf("SSE server error: %v", err)
		}
	}()

	// Wait for server to be ready
	waitForServer(t, addr, 5*time.Second)

	// Ensure server is shut down at the end
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		sseServer.Shutdown(shutdownCtx)
	}()

	// Create the MCP client using SSEClientTransport
	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client-sse",
		Version: "1.0.0",
	}, nil)

	transport := &sdkmcp.SSEClientTransport{
		Endpoint: sseURL,
	}

	// Connect the client to the server
	session, err := client.Connect(ctx, transport, nil)
	require.NoError(t, err, "failed to connect client to SSE server")
	defer session.Close()

	// List tools and verify the echo tool exists
	listResult, err := session.ListTools(ctx, nil)
	require.NoError(t, err, "failed to list tools")
	require.NotEmpty(t, listResult.Tools, "expected at least one tool")

	var echoFound bool
	for _, tool := range listResult.Tools {
		if tool.Name == "echo" {
			echoFound = true
			break
		}
	}
	require.True(t, echoFound, "echo tool should be registered")

	// Round trip a call over SSE
	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name: "echo",
		Arguments: map[string]any{
			"message": "over sse",
		},
	})
	require.NoError(t, err, "failed to call echo tool")
	require.False(t, result.IsError)
	require.NotEmpty(t, result.Content)

	textContent, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "content should be TextContent")
	assert.Equal(t, "over sse", textContent.Text)
}

// getFreePort returns an available TCP port.
func getFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

// waitForServer waits until the server is accepting connections.
func waitForServer(t *testing.T, addr string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}
