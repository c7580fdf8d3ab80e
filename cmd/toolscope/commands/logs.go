package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolscope-io/toolscope/internal/logging"
)

var (
	logsWait   time.Duration
	logsExport string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Collect server log output",
	Long: `Connect, wait for the server to produce log output, and print what
arrived. MCP servers log on stderr; the UTCP backend records its own
execution notes.

Examples:
  toolscope logs --wait 5s -- ./my-server --stdio
  toolscope --utcp manual.json logs --export /tmp`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().DurationVar(&logsWait, "wait", 2*time.Second, "How long to wait for output")
	logsCmd.Flags().StringVar(&logsExport, "export", "", "Directory to write a JSON log export into")
}

func runLogs(cmd *cobra.Command, args []string) error {
	_, serverArgs := splitServerArgs(cmd, args)

	ctx := context.Background()
	client, cleanup, err := connect(ctx, serverArgs)
	if err != nil {
		return err
	}
	defer cleanup()

	time.Sleep(logsWait)

	logs := drainServerLogs(client)
	for _, line := range logs {
		fmt.Println(line)
	}
	if len(logs) == 0 {
		fmt.Fprintln(os.Stderr, "no server output")
	}

	if logsExport != "" {
		path := filepath.Join(logsExport, logging.ExportFilename())
		if err := captureBuffer.Export(path, Version, logs); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "exported to %s\n", path)
	}
	return nil
}
