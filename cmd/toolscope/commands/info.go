package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show server information",
	Long: `Connect to the server and print the information captured during the
handshake.

Examples:
  toolscope --utcp manual.json info
  toolscope info -- ./my-server --stdio`,
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	_, serverArgs := splitServerArgs(cmd, args)

	ctx := context.Background()
	client, cleanup, err := connect(ctx, serverArgs)
	if err != nil {
		return err
	}
	defer cleanup()

	info := client.ServerInfo()
	fmt.Printf("Name:         %s\n", info.Name)
	fmt.Printf("Version:      %s\n", info.Version)
	fmt.Printf("Protocol:     %s\n", info.ProtocolType)
	fmt.Printf("Capabilities: %s\n", strings.Join(info.Capabilities, ", "))
	return nil
}
