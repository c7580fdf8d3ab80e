package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
)

// ExportDocument is the on-disk shape of a log export: the debug entries
// this process captured plus whatever the server wrote to its own log
// stream.
type ExportDocument struct {
	Metadata   ExportMetadata `json:"metadata"`
	ServerLogs []string       `json:"server_logs"`
	DebugLogs  []Entry        `json:"debug_logs"`
}

// ExportMetadata describes one export.
type ExportMetadata struct {
	ExportTimestamp    string `json:"export_timestamp"`
	ApplicationVersion string `json:"application_version"`
	ServerLogCount     int    `json:"server_log_count"`
	DebugLogCount      int    `json:"debug_log_count"`
}

// ExportFilename returns a fresh collision-free export file name.
func ExportFilename() string {
	return fmt.Sprintf("toolscope_logs_%s.json", ulid.Make().String())
}

// Export writes the captured debug entries plus the given server log lines
// to path as one JSON document.
func (b *Buffer) Export(path, appVersion string, serverLogs []string) error {
	entries := b.Entries()

	doc := ExportDocument{
		Metadata: ExportMetadata{
			ExportTimestamp:    time.Now().UTC().Format(time.RFC3339),
			ApplicationVersion: appVersion,
			ServerLogCount:     len(serverLogs),
			DebugLogCount:      len(entries),
		},
		ServerLogs: serverLogs,
		DebugLogs:  entries,
	}
	if doc.ServerLogs == nil {
		doc.ServerLogs = []string{}
	}
	if doc.DebugLogs == nil {
		doc.DebugLogs = []Entry{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding log export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing log export: %w", err)
	}
	return nil
}
