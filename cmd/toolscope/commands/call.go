package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	callArgs     string
	callShowLogs bool
)

var callCmd = &cobra.Command{
	Use:   "call NAME",
	Short: "Invoke a tool",
	Long: `Invoke a named tool and print the content it returns.

Tool arguments are passed as a JSON object. The command exits non-zero
when the tool reports an error result.

Examples:
  toolscope --utcp manual.json call get_weather --args '{"city":"Oslo"}'
  toolscope call echo --args '{"message":"hi"}' -- ./my-server --stdio`,
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callArgs, "args", "", "Tool arguments as a JSON object")
	callCmd.Flags().BoolVar(&callShowLogs, "show-logs", false, "Print server log output after the call")
}

func runCall(cmd *cobra.Command, args []string) error {
	cmdArgs, serverArgs := splitServerArgs(cmd, args)
	if len(cmdArgs) != 1 {
		return fmt.Errorf("call takes exactly one tool name")
	}
	name := cmdArgs[0]

	toolArgs := map[string]any{}
	if callArgs != "" {
		if err := json.Unmarshal([]byte(callArgs), &toolArgs); err != nil {
			return fmt.Errorf("parsing --args: %w", err)
		}
	}

	ctx := context.Background()
	client, cleanup, err := connect(ctx, serverArgs)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := client.CallTool(ctx, name, toolArgs)
	if err != nil {
		return err
	}

	for _, item := range result.Content {
		printContentItem(item)
	}

	if callShowLogs {
		printServerLogs(client)
	}

	if result.IsError {
		return fmt.Errorf("tool %s reported an error", name)
	}
	return nil
}
