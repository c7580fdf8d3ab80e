package cli_test

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/toolscope-io/toolscope/citest/testutil"
)

// runCLI executes the toolscope binary and returns stdout, stderr, and the
// run error.
func runCLI(args ...string) (string, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, toolscopeBin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

var _ = Describe("MCP backend", func() {
	It("should list the server's tools", func() {
		stdout, _, err := runCLI("tools", "--", echotoolBin)
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("echo"))
		Expect(stdout).To(ContainSubstring("add"))
		Expect(stdout).To(ContainSubstring("4 tools"))
	})

	It("should filter tools with --match", func() {
		stdout, _, err := runCLI("tools", "--match", "s*", "--", echotoolBin)
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("sleep_ms"))
		Expect(stdout).NotTo(ContainSubstring("add"))
	})

	It("should call a tool and print its text", func() {
		stdout, _, err := runCLI("call", "echo", "--args", `{"message":"e2e ping"}`, "--", echotoolBin)
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("e2e ping"))
	})

	It("should exit non-zero when a tool reports an error", func() {
		stdout, _, err := runCLI("call", "fail", "--args", `{"reason":"broken on purpose"}`, "--", echotoolBin)
		Expect(err).To(HaveOccurred())
		Expect(stdout).To(ContainSubstring("broken on purpose"))
	})

	It("should fetch a prompt", func() {
		stdout, _, err := runCLI("prompt", "greeting", "--args", `{"name":"CLI"}`, "--", echotoolBin)
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("Hello, CLI!"))
	})

	It("should list and read resources", func() {
		stdout, _, err := runCLI("resources", "--", echotoolBin)
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("echotool://docs/usage"))

		stdout, _, err = runCLI("resource", "echotool://docs/usage", "--", echotoolBin)
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("echotool"))
	})

	It("should report server info", func() {
		stdout, _, err := runCLI("info", "--", echotoolBin)
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("echotool"))
		Expect(stdout).To(ContainSubstring("MCP"))
	})

	It("should collect server stderr with logs", func() {
		stdout, _, err := runCLI("logs", "--wait", "1s", "--", echotoolBin)
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("echotool-mcp"))
	})

	It("should export collected logs as JSON", func() {
		tempDir, err := testutil.NewTempDir()
		Expect(err).NotTo(HaveOccurred())
		defer tempDir.Cleanup()

		_, stderr, err := runCLI("logs", "--wait", "1s", "--export", tempDir.Path, "--", echotoolBin)
		Expect(err).NotTo(HaveOccurred())
		Expect(stderr).To(ContainSubstring("exported to"))

		entries, err := filepath.Glob(filepath.Join(tempDir.Path, "toolscope_logs_*.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})

	It("should fail cleanly when the server command does not exist", func() {
		_, stderr, err := runCLI("tools", "--", filepath.Join(binDir, "no-such-server"))
		Expect(err).To(HaveOccurred())
		Expect(stderr).To(ContainSubstring("spawning"))
	})
})

var _ = Describe("UTCP backend", func() {
	var tempDir *testutil.TempDir
	var manualPath string

	BeforeEach(func() {
		var err error
		tempDir, err = testutil.NewTempDir()
		Expect(err).NotTo(HaveOccurred())

		manualPath, err = tempDir.CreateFile("manual.json",
			testutil.CLIManualJSON("local-tools", "1.0.0", "say_hi", "show_date"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if tempDir != nil {
			tempDir.Cleanup()
		}
	})

	It("should list manual tools", func() {
		stdout, _, err := runCLI("--utcp", manualPath, "tools")
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("say_hi"))
		Expect(stdout).To(ContainSubstring("show_date"))
		Expect(stdout).To(ContainSubstring("2 tools"))
	})

	It("should execute a CLI tool", func() {
		stdout, _, err := runCLI("--utcp", manualPath, "call", "say_hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("hello from say_hi"))
	})

	It("should report manual info", func() {
		stdout, _, err := runCLI("--utcp", manualPath, "info")
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("local-tools"))
		Expect(stdout).To(ContainSubstring("UTCP"))
	})

	It("should reject combining both backends", func() {
		_, stderr, err := runCLI("--utcp", manualPath, "tools", "--", echotoolBin)
		Expect(err).To(HaveOccurred())
		Expect(stderr).To(ContainSubstring("mutually exclusive"))
	})

	It("should require a backend", func() {
		_, stderr, err := runCLI("tools")
		Expect(err).To(HaveOccurred())
		Expect(stderr).To(ContainSubstring("no backend selected"))
	})
})
