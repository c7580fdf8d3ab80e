package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resourceCmd = &cobra.Command{
	Use:   "resource URI",
	Short: "Read a resource",
	Long: `Read a resource by URI and print its contents. Binary contents are
summarized rather than dumped.

Examples:
  toolscope resource 'file:///etc/hosts' -- ./my-server --stdio`,
	RunE: runResource,
}

func runResource(cmd *cobra.Command, args []string) error {
	cmdArgs, serverArgs := splitServerArgs(cmd, args)
	if len(cmdArgs) != 1 {
		return fmt.Errorf("resource takes exactly one URI")
	}
	uri := cmdArgs[0]

	ctx := context.Background()
	client, cleanup, err := connect(ctx, serverArgs)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := client.ReadResource(ctx, uri)
	if err != nil {
		return err
	}

	for _, contents := range result.Contents {
		if contents.Blob != "" {
			fmt.Printf("[binary %s, %d bytes base64]\n", contents.MimeType, len(contents.Blob))
			continue
		}
		fmt.Println(contents.Text)
	}
	return nil
}
