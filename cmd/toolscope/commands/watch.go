package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/toolscope-io/toolscope/internal/event"
	"github.com/toolscope-io/toolscope/internal/logging"
	"github.com/toolscope-io/toolscope/internal/protocol"
	"github.com/toolscope-io/toolscope/internal/utcp"
)

// debounceInterval coalesces the burst of filesystem events an editor save
// produces into one reload.
const debounceInterval = 200 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a UTCP manual for changes",
	Long: `Watch a UTCP manual file and reload it whenever it changes. Each
reload prints the tools that were added or removed and a patch of the
full listing. Runs until interrupted.

Only the declarative backend can be watched.

Examples:
  toolscope --utcp manual.json watch`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	_, serverArgs := splitServerArgs(cmd, args)
	if len(serverArgs) > 0 {
		return fmt.Errorf("watch only supports the --utcp backend")
	}
	if utcpManual == "" {
		return fmt.Errorf("watch needs --utcp PATH")
	}

	path, err := filepath.Abs(utcpManual)
	if err != nil {
		return err
	}

	watcher, err := newManualWatcher(path)
	if err != nil {
		return err
	}

	fmt.Printf("watching %s (%d tools)\n", path, len(watcher.Tools()))
	watcher.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("stopping manual watcher")
	return watcher.Stop()
}

// manualWatcher reloads a UTCP manual when its file changes and reports
// tool-listing differences between reloads.
type manualWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	client  *utcp.Client
	listing string
	tools   []string
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	mu      sync.Mutex
}

// newManualWatcher loads the manual at path and begins tracking its parent
// directory. The initial load must succeed; later reload failures keep the
// previous manual active.
func newManualWatcher(path string) (*manualWatcher, error) {
	client, err := utcp.NewClient(path)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	if _, err := client.Initialize(ctx); err != nil {
		return nil, err
	}
	tools, err := client.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors that replace the file on
	// save would otherwise drop the watch.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	listing, names := renderToolListing(tools)
	logging.Info().Str("path", path).Int("tools", len(names)).Msg("manual watcher initialized")

	return &manualWatcher{
		watcher: w,
		path:    path,
		client:  client,
		listing: listing,
		tools:   names,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start begins watching for manual changes.
func (w *manualWatcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *manualWatcher) run() {
	defer close(w.doneCh)

	var pending <-chan time.Time
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending = time.After(debounceInterval)
			}
		case <-pending:
			pending = nil
			w.handleChange()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error().Err(err).Msg("manual watcher error")
		}
	}
}

func (w *manualWatcher) handleChange() {
	logging.Info().Str("path", w.path).Msg("manual changed")
	event.Publish(event.Event{
		Type: event.ManualChanged,
		Data: event.ManualChangedData{Path: w.path},
	})

	client, err := w.reload()
	if err != nil {
		logging.Error().Err(err).Msg("manual reload failed")
		fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
		return
	}

	ctx := context.Background()
	if _, err := client.Initialize(ctx); err != nil {
		logging.Error().Err(err).Msg("manual reload failed")
		return
	}
	tools, err := client.ListTools(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("manual reload failed")
		return
	}

	newListing, newNames := renderToolListing(tools)

	w.mu.Lock()
	oldListing, oldNames := w.listing, w.tools
	old := w.client
	w.client = client
	w.listing = newListing
	w.tools = newNames
	w.mu.Unlock()

	if err := old.Shutdown(); err != nil {
		logging.Warn().Err(err).Msg("previous client shutdown failed")
	}

	fmt.Printf("manual reloaded: %d tools\n", len(newNames))
	added, removed := diffNames(oldNames, newNames)
	for _, name := range added {
		fmt.Printf("  + %s\n", name)
	}
	for _, name := range removed {
		fmt.Printf("  - %s\n", name)
	}
	if patch := listingDiff(oldListing, newListing); patch != "" {
		fmt.Print(patch)
	}

	if len(added) > 0 || len(removed) > 0 {
		event.Publish(event.Event{
			Type: event.ToolListChanged,
			Data: event.ToolListChangedData{Added: added, Removed: removed},
		})
	}
}

// reload re-reads the manual, retrying briefly because editors often write
// in two steps and the first read can catch a half-written file.
func (w *manualWatcher) reload() (*utcp.Client, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 5 * time.Second

	var client *utcp.Client
	err := backoff.Retry(func() error {
		c, err := utcp.NewClient(w.path)
		if err != nil {
			return err
		}
		client = c
		return nil
	}, b)
	return client, err
}

// Tools returns the tool names from the most recent successful load.
func (w *manualWatcher) Tools() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tools
}

// Stop stops the watcher and shuts the active client down.
func (w *manualWatcher) Stop() error {
	w.mu.Lock()
	started := w.started
	client := w.client
	w.mu.Unlock()

	select {
	case <-w.stopCh:
		// Already stopped
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}

	if client != nil {
		client.Shutdown()
	}
	return w.watcher.Close()
}

// renderToolListing produces the stable text form of a tool list that watch
// mode diffs across reloads, plus the sorted tool names.
func renderToolListing(tools []protocol.Tool) (string, []string) {
	sorted := make([]protocol.Tool, len(tools))
	copy(sorted, tools)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	names := make([]string, len(sorted))
	var b strings.Builder
	for i, tool := range sorted {
		names[i] = tool.Name
		fmt.Fprintf(&b, "%s\t%s\n", tool.Name, firstLine(tool.Description))
	}
	return b.String(), names
}

// listingDiff returns the patch text between two rendered listings, or ""
// when they are identical.
func listingDiff(before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	patches := dmp.PatchMake(before, diffs)
	return dmp.PatchToText(patches)
}

// diffNames reports which names appear in only one of the two lists.
func diffNames(before, after []string) (added, removed []string) {
	had := make(map[string]bool, len(before))
	for _, name := range before {
		had[name] = true
	}
	have := make(map[string]bool, len(after))
	for _, name := range after {
		have[name] = true
		if !had[name] {
			added = append(added, name)
		}
	}
	for _, name := range before {
		if !have[name] {
			removed = append(removed, name)
		}
	}
	return added, removed
}
