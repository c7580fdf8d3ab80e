package utcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolscope-io/toolscope/internal/protocol"
)

func testManual() *Manual {
	return &Manual{
		ManualVersion: "1.0.0",
		UTCPVersion:   "0.2.2",
		Info: ManualInfo{
			Title:   "local-tools",
			Version: "1.2.3",
		},
		Tools: []Tool{
			{
				Name:        "say_hello",
				Description: "Prints a greeting",
				Inputs:      json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}}}`),
				Outputs:     json.RawMessage(`{"type":"object"}`),
				CallTemplate: CallTemplate{
					Type:     TemplateTypeCLI,
					Commands: []string{"echo hello {name}"},
				},
			},
			{
				Name:    "list_tmp",
				Inputs:  json.RawMessage(`{}`),
				Outputs: json.RawMessage(`{}`),
				CallTemplate: CallTemplate{
					Type:     TemplateTypeCLI,
					Commands: []string{"ls /tmp"},
				},
			},
		},
	}
}

func TestClient_ServerInfoFromManual(t *testing.T) {
	client := NewClientFromManual(testManual())

	info := client.ServerInfo()
	require.NotNil(t, info)
	assert.Equal(t, "local-tools", info.Name)
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, protocol.ProtocolTypeUTCP, info.ProtocolType)
	assert.Contains(t, info.Capabilities, "2 tools")
}

func TestClient_InitializeReturnsInfo(t *testing.T) {
	client := NewClientFromManual(testManual())

	info, err := client.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, client.ServerInfo(), info)
}

func TestClient_ListTools(t *testing.T) {
	client := NewClientFromManual(testManual())

	tools, err := client.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "say_hello", tools[0].Name)
	assert.Equal(t, "Prints a greeting", tools[0].Description)
	assert.JSONEq(t,
		`{"type":"object","properties":{"name":{"type":"string"}}}`,
		string(tools[0].InputSchema))
	assert.Equal(t, "list_tmp", tools[1].Name)
}

func TestClient_ListToolsStable(t *testing.T) {
	client := NewClientFromManual(testManual())

	first, err := client.ListTools(context.Background())
	require.NoError(t, err)
	second, err := client.ListTools(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClient_CallTool(t *testing.T) {
	client := NewClientFromManual(testManual())

	result, err := client.CallTool(context.Background(), "say_hello", map[string]any{"name": "utcp"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "hello utcp\n", result.Content[0].Text)
}

func TestClient_CallToolUnknown(t *testing.T) {
	client := NewClientFromManual(testManual())

	_, err := client.CallTool(context.Background(), "no_such_tool_at_all", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `tool "no_such_tool_at_all" not found`)
	assert.NotContains(t, err.Error(), "did you mean", "nothing is close to this name")
}

func TestClient_CallToolSuggestsCloseName(t *testing.T) {
	client := NewClientFromManual(testManual())

	_, err := client.CallTool(context.Background(), "say_helo", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "say_hello"`)
}

func TestClient_PromptsUnsupported(t *testing.T) {
	client := NewClientFromManual(testManual())

	prompts, err := client.ListPrompts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, prompts)
	assert.Empty(t, prompts)

	_, err = client.GetPrompt(context.Background(), "anything", nil)
	assert.ErrorIs(t, err, protocol.ErrUnsupported)
}

func TestClient_ResourcesUnsupported(t *testing.T) {
	client := NewClientFromManual(testManual())

	resources, err := client.ListResources(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, resources)
	assert.Empty(t, resources)

	_, err = client.ReadResource(context.Background(), "file:///x")
	assert.ErrorIs(t, err, protocol.ErrUnsupported)
}

func TestClient_DrainLogs(t *testing.T) {
	client := NewClientFromManual(testManual())

	_, err := client.Initialize(context.Background())
	require.NoError(t, err)
	_, err = client.CallTool(context.Background(), "say_hello", map[string]any{"name": "x"})
	require.NoError(t, err)

	logs := client.DrainLogs()
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[0], "UTCP client initialized")

	joined := ""
	for _, line := range logs {
		joined += line + "\n"
	}
	assert.Contains(t, joined, "Calling tool: say_hello")
	assert.Contains(t, joined, "execution completed")

	assert.Empty(t, client.DrainLogs(), "drain clears the buffer")

	require.NoError(t, client.Shutdown())
	logs = client.DrainLogs()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "shut down")
}

func TestClient_ShutdownIsIdempotent(t *testing.T) {
	client := NewClientFromManual(testManual())

	require.NoError(t, client.Shutdown())
	require.NoError(t, client.Shutdown())
}

func TestNewClient_LoadsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.json")
	require.NoError(t, os.WriteFile(path, []byte(baseManual), 0o644))

	client, err := NewClient(path)
	require.NoError(t, err)
	assert.Equal(t, "weather-api", client.ServerInfo().Name)
	assert.Len(t, client.Manual().Tools, 2)
}

func TestNewClient_InvalidManualFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"manual_version":"1"}`), 0o644))

	_, err := NewClient(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field")
}
