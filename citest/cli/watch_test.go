package cli_test

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/toolscope-io/toolscope/citest/testutil"
)

// syncBuffer collects process output written from another goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// waitForOutput polls the buffer until substr appears or the timeout runs
// out.
func waitForOutput(buf *syncBuffer, substr string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), substr) {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

// interruptAndWait sends SIGINT and waits for a clean exit.
func interruptAndWait(cmd *exec.Cmd) {
	Expect(cmd.Process.Signal(os.Interrupt)).To(Succeed())

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		Expect(err).NotTo(HaveOccurred())
	case <-time.After(10 * time.Second):
		cmd.Process.Kill()
		Fail("watch did not exit after interrupt")
	}
}

var _ = Describe("watch mode", func() {
	var tempDir *testutil.TempDir

	BeforeEach(func() {
		var err error
		tempDir, err = testutil.NewTempDir()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if tempDir != nil {
			tempDir.Cleanup()
		}
	})

	startWatch := func(manualPath string) (*exec.Cmd, *syncBuffer) {
		cmd := exec.Command(toolscopeBin, "--utcp", manualPath, "watch")
		output := &syncBuffer{}
		cmd.Stdout = output
		cmd.Stderr = output
		Expect(cmd.Start()).To(Succeed())
		Expect(waitForOutput(output, "watching", 10*time.Second)).To(BeTrue(), output.String())
		return cmd, output
	}

	It("should report tools added by a manual edit", func() {
		manualPath, err := tempDir.CreateFile("manual.json",
			testutil.CLIManualJSON("watched", "1.0.0", "say_hi"))
		Expect(err).NotTo(HaveOccurred())

		cmd, output := startWatch(manualPath)
		defer cmd.Process.Kill()

		err = os.WriteFile(manualPath,
			[]byte(testutil.CLIManualJSON("watched", "1.0.1", "say_hi", "show_date")), 0644)
		Expect(err).NotTo(HaveOccurred())

		Expect(waitForOutput(output, "manual reloaded", 15*time.Second)).To(BeTrue(), output.String())
		Expect(output.String()).To(ContainSubstring("+ show_date"))
		Expect(output.String()).NotTo(ContainSubstring("- say_hi"))

		interruptAndWait(cmd)
	})

	It("should report removed tools", func() {
		manualPath, err := tempDir.CreateFile("manual.json",
			testutil.CLIManualJSON("watched", "1.0.0", "say_hi", "show_date"))
		Expect(err).NotTo(HaveOccurred())

		cmd, output := startWatch(manualPath)
		defer cmd.Process.Kill()

		err = os.WriteFile(manualPath,
			[]byte(testutil.CLIManualJSON("watched", "1.0.1", "say_hi")), 0644)
		Expect(err).NotTo(HaveOccurred())

		Expect(waitForOutput(output, "- show_date", 15*time.Second)).To(BeTrue(), output.String())

		interruptAndWait(cmd)
	})

	It("should keep running when a reload fails", func() {
		manualPath, err := tempDir.CreateFile("manual.json",
			testutil.CLIManualJSON("watched", "1.0.0", "say_hi"))
		Expect(err).NotTo(HaveOccurred())

		cmd, output := startWatch(manualPath)
		defer cmd.Process.Kill()

		err = os.WriteFile(manualPath, []byte("{ not json"), 0644)
		Expect(err).NotTo(HaveOccurred())

		Expect(waitForOutput(output, "reload failed", 20*time.Second)).To(BeTrue(), output.String())

		interruptAndWait(cmd)
	})

	It("should reject the MCP backend", func() {
		_, stderr, err := runCLI("watch", "--", echotoolBin)
		Expect(err).To(HaveOccurred())
		Expect(stderr).To(ContainSubstring("--utcp"))
	})
})
