package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var promptArgs string

var promptCmd = &cobra.Command{
	Use:   "prompt NAME",
	Short: "Fetch a prompt",
	Long: `Fetch a named prompt and print its rendered messages.

Prompt arguments are passed as a JSON object of strings.

Examples:
  toolscope prompt greeting --args '{"name":"Go"}' -- ./my-server --stdio`,
	RunE: runPrompt,
}

func init() {
	promptCmd.Flags().StringVar(&promptArgs, "args", "", "Prompt arguments as a JSON object of strings")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cmdArgs, serverArgs := splitServerArgs(cmd, args)
	if len(cmdArgs) != 1 {
		return fmt.Errorf("prompt takes exactly one prompt name")
	}
	name := cmdArgs[0]

	arguments := map[string]string{}
	if promptArgs != "" {
		if err := json.Unmarshal([]byte(promptArgs), &arguments); err != nil {
			return fmt.Errorf("parsing --args: %w", err)
		}
	}

	ctx := context.Background()
	client, cleanup, err := connect(ctx, serverArgs)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := client.GetPrompt(ctx, name, arguments)
	if err != nil {
		return err
	}

	if result.Description != "" {
		fmt.Printf("%s\n\n", result.Description)
	}
	for _, msg := range result.Messages {
		fmt.Printf("%s: %s\n", msg.Role, msg.Content)
	}
	return nil
}
