package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
)

var toolsMatch string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List available tools",
	Long: `List the tools the connected server exposes.

Examples:
  toolscope --utcp manual.json tools
  toolscope tools -- ./my-server --stdio
  toolscope --utcp manual.json tools --match 'get_*'`,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().StringVar(&toolsMatch, "match", "", "Only list tools whose name matches a wildcard pattern")
}

func runTools(cmd *cobra.Command, args []string) error {
	_, serverArgs := splitServerArgs(cmd, args)

	ctx := context.Background()
	client, cleanup, err := connect(ctx, serverArgs)
	if err != nil {
		return err
	}
	defer cleanup()

	tools, err := client.ListTools(ctx)
	if err != nil {
		return err
	}

	if toolsMatch != "" {
		matched := tools[:0]
		for _, tool := range tools {
			if matchWildcard(toolsMatch, tool.Name) {
				matched = append(matched, tool)
			}
		}
		tools = matched
	}

	if len(tools) == 0 {
		fmt.Println("No tools found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, tool := range tools {
		fmt.Fprintf(w, "%s\t%s\n", tool.Name, firstLine(tool.Description))
	}
	w.Flush()

	fmt.Printf("\n%d tools\n", len(tools))
	return nil
}

// matchWildcard checks if a string matches a wildcard pattern.
// For simple patterns (* at start/end), uses string matching.
// For complex patterns (containing **), uses doublestar.
func matchWildcard(pattern, s string) bool {
	// Global wildcard matches everything
	if pattern == "*" {
		return true
	}

	// For patterns with **, use doublestar
	if strings.Contains(pattern, "**") {
		matched, _ := doublestar.Match(pattern, s)
		return matched
	}

	// Simple suffix wildcard (prefix*)
	if strings.HasSuffix(pattern, "*") && !strings.HasPrefix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(s, prefix)
	}

	// Simple prefix wildcard (*suffix)
	if strings.HasPrefix(pattern, "*") && !strings.HasSuffix(pattern, "*") {
		suffix := strings.TrimPrefix(pattern, "*")
		return strings.HasSuffix(s, suffix)
	}

	// For patterns with * in the middle or multiple *, use doublestar
	if strings.Contains(pattern, "*") {
		matched, _ := doublestar.Match(pattern, s)
		return matched
	}

	// Exact match
	return pattern == s
}

// firstLine truncates multi-line descriptions for table output.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
