// Package commands provides the CLI commands for toolscope.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/toolscope-io/toolscope/internal/event"
	"github.com/toolscope-io/toolscope/internal/logging"
	"github.com/toolscope-io/toolscope/internal/mcp"
	"github.com/toolscope-io/toolscope/internal/protocol"
	"github.com/toolscope-io/toolscope/internal/utcp"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	utcpManual         string
	debugMode          bool
	logLevel           string
	envFile            string
	printNotifications bool
)

// captureBuffer records everything the logger emits so `logs --export` can
// include the client's own entries alongside the server output.
var captureBuffer = logging.NewBuffer()

var rootCmd = &cobra.Command{
	Use:   "toolscope",
	Short: "Toolscope - capability server inspector",
	Long: `Toolscope inspects capability servers from the command line.

Two backends are supported. Pass --utcp with a manual file to execute
declarative HTTP and CLI tools, or give a server command after -- to
spawn an MCP server and talk JSON-RPC over its stdio:

  toolscope --utcp manual.json tools
  toolscope tools -- ./my-server --stdio`,
	Version:           Version,
	PersistentPreRunE: setup,
	// If no subcommand, show help
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&utcpManual, "utcp", "", "Path to a UTCP manual (selects the declarative backend)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from a file before connecting")
	rootCmd.PersistentFlags().BoolVar(&printNotifications, "print-notifications", false, "Print server notifications as they arrive")

	// Version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("toolscope %s (%s)\n", Version, BuildTime))

	// Add subcommands
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(resourceCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(watchCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads the env file and initializes logging before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	level := logging.ParseLevel(logLevel)
	if debugMode {
		level = logging.DebugLevel
	}

	logging.Init(logging.Config{
		Level:   level,
		Output:  os.Stderr,
		Pretty:  true,
		Capture: captureBuffer,
	})
	return nil
}

// splitServerArgs separates a subcommand's own arguments from the server
// command given after "--".
func splitServerArgs(cmd *cobra.Command, args []string) (cmdArgs, serverArgs []string) {
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		return args[:at], args[at:]
	}
	return args, nil
}

// newBackend builds the client the global flags select: --utcp for the
// declarative backend, a command after -- for the RPC backend. Exactly one
// of the two must be given.
func newBackend(serverArgs []string) (protocol.Client, error) {
	switch {
	case utcpManual != "" && len(serverArgs) > 0:
		return nil, fmt.Errorf("--utcp and a server command are mutually exclusive")
	case utcpManual != "":
		return utcp.NewClient(utcpManual)
	case len(serverArgs) > 0:
		return mcp.NewClient(serverArgs[0], serverArgs[1:]...)
	default:
		return nil, fmt.Errorf("no backend selected: pass --utcp PATH or a server command after --")
	}
}

// connect builds the selected backend and runs its handshake. The returned
// cleanup stops notification streaming and shuts the client down; callers
// defer it.
func connect(ctx context.Context, serverArgs []string) (protocol.Client, func(), error) {
	client, err := newBackend(serverArgs)
	if err != nil {
		return nil, nil, err
	}

	stopStreaming := func() {}
	if printNotifications {
		stopStreaming = streamNotifications(client)
	}

	if _, err := client.Initialize(ctx); err != nil {
		stopStreaming()
		client.Shutdown()
		return nil, nil, err
	}

	cleanup := func() {
		stopStreaming()
		if err := client.Shutdown(); err != nil {
			logging.Warn().Err(err).Msg("client shutdown failed")
		}
	}
	return client, cleanup, nil
}

// streamNotifications forwards inbound server notifications onto the event
// bus and prints them to stderr as they arrive. The UTCP backend has no
// inbound channel, so for it this is a no-op.
func streamNotifications(client protocol.Client) func() {
	src, ok := client.(*mcp.Client)
	if !ok {
		return func() {}
	}

	unsubscribe := event.Subscribe(event.ServerNotification, func(e event.Event) {
		data, ok := e.Data.(event.NotificationData)
		if !ok {
			return
		}
		if len(data.Params) > 0 {
			fmt.Fprintf(os.Stderr, "notification %s %s\n", data.Method, data.Params)
		} else {
			fmt.Fprintf(os.Stderr, "notification %s\n", data.Method)
		}
	})

	// The pump exits when the client shuts down and the channel closes.
	go func() {
		for note := range src.Notifications() {
			event.PublishSync(event.Event{
				Type: event.ServerNotification,
				Data: event.NotificationData{Method: note.Method, Params: note.Params},
			})
		}
	}()

	return unsubscribe
}

// drainServerLogs empties the client's buffered server output, publishing
// each line on the event bus, and returns the drained lines.
func drainServerLogs(client protocol.Client) []string {
	logs := client.DrainLogs()
	for _, line := range logs {
		event.Publish(event.Event{
			Type: event.ServerLog,
			Data: event.ServerLogData{Line: line},
		})
	}
	return logs
}

// printServerLogs drains the client's buffered server output to stderr.
func printServerLogs(client protocol.Client) {
	logs := drainServerLogs(client)
	if len(logs) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "server logs:")
	for _, line := range logs {
		fmt.Fprintf(os.Stderr, "  %s\n", line)
	}
}

// printContentItem renders one result content item to stdout. Non-text
// items are summarized rather than dumped.
func printContentItem(item protocol.ContentItem) {
	switch item.Type {
	case protocol.ContentTypeText:
		fmt.Println(item.Text)
	case protocol.ContentTypeImage:
		fmt.Printf("[image %s, %d bytes base64]\n", item.MimeType, len(item.Data))
	case protocol.ContentTypeResource:
		if item.Resource != nil {
			fmt.Printf("[embedded resource %s]\n", item.Resource.URI)
		}
	default:
		fmt.Printf("[%s content]\n", item.Type)
	}
}
