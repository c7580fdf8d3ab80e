package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TempDir creates a temporary directory
type TempDir struct {
	Path string
}

// NewTempDir creates a temp directory
func NewTempDir() (*TempDir, error) {
	path, err := os.MkdirTemp("", "toolscope-test-*")
	if err != nil {
		return nil, err
	}
	return &TempDir{Path: path}, nil
}

// CreateFile writes a file inside the directory and returns its path.
func (d *TempDir) CreateFile(name, content string) (string, error) {
	path := filepath.Join(d.Path, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Cleanup removes the temp directory
func (d *TempDir) Cleanup() {
	os.RemoveAll(d.Path)
}

// CLIManualJSON renders a UTCP manual whose tools are echo commands, one
// per name. It drives the declarative backend without external services.
func CLIManualJSON(title, version string, toolNames ...string) string {
	tools := make([]string, len(toolNames))
	for i, name := range toolNames {
		tools[i] = fmt.Sprintf(`    {
      "name": %q,
      "description": "Prints a greeting from %s",
      "inputs": {"type": "object", "properties": {}},
      "outputs": {"type": "object"},
      "tool_call_template": {
        "call_template_type": "cli",
        "commands": ["echo hello from %s"]
      }
    }`, name, name, name)
	}
	return fmt.Sprintf(`{
  "manual_version": "1.0.0",
  "utcp_version": "1.0.1",
  "info": {"title": %q, "version": %q},
  "tools": [
%s
  ]
}`, title, version, strings.Join(tools, ",\n"))
}
