package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/toolscope-io/toolscope/internal/protocol"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List available prompts",
	Long: `List the prompts the connected server exposes. Required arguments
are marked with *.

Examples:
  toolscope prompts -- ./my-server --stdio`,
	RunE: runPrompts,
}

func runPrompts(cmd *cobra.Command, args []string) error {
	_, serverArgs := splitServerArgs(cmd, args)

	ctx := context.Background()
	client, cleanup, err := connect(ctx, serverArgs)
	if err != nil {
		return err
	}
	defer cleanup()

	prompts, err := client.ListPrompts(ctx)
	if err != nil {
		return err
	}

	if len(prompts) == 0 {
		fmt.Println("No prompts found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tARGUMENTS\tDESCRIPTION")
	for _, prompt := range prompts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", prompt.Name, formatPromptArgs(prompt.Arguments), firstLine(prompt.Description))
	}
	w.Flush()

	fmt.Printf("\n%d prompts\n", len(prompts))
	return nil
}

func formatPromptArgs(args []protocol.PromptArgument) string {
	if len(args) == 0 {
		return "-"
	}
	names := make([]string, len(args))
	for i, arg := range args {
		names[i] = arg.Name
		if arg.Required {
			names[i] += "*"
		}
	}
	return strings.Join(names, ", ")
}
