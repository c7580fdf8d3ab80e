package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List available resources",
	Long: `List the resources the connected server exposes.

Examples:
  toolscope resources -- ./my-server --stdio`,
	RunE: runResources,
}

func runResources(cmd *cobra.Command, args []string) error {
	_, serverArgs := splitServerArgs(cmd, args)

	ctx := context.Background()
	client, cleanup, err := connect(ctx, serverArgs)
	if err != nil {
		return err
	}
	defer cleanup()

	resources, err := client.ListResources(ctx)
	if err != nil {
		return err
	}

	if len(resources) == 0 {
		fmt.Println("No resources found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URI\tTYPE\tNAME")
	for _, res := range resources {
		mimeType := res.MimeType
		if mimeType == "" {
			mimeType = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", res.URI, mimeType, res.Name)
	}
	w.Flush()

	fmt.Printf("\n%d resources\n", len(resources))
	return nil
}
