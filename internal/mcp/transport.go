package mcp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// lineTransport owns the spawned server process and its three pipes. Writes
// are whole newline-terminated lines; stdout and stderr are read one line at
// a time by independent callers.
type lineTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	stderr *bufio.Reader

	writeMu  sync.Mutex
	killOnce sync.Once
}

// startTransport spawns the server process with the parent's environment
// plus any extra variables.
func startTransport(command string, args []string, env map[string]string) (*lineTransport, error) {
	if command == "" {
		return nil, fmt.Errorf("empty command")
	}

	cmd := exec.Command(command, args...)

	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &lineTransport{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		stderr: bufio.NewReader(stderr),
	}, nil
}

// newPipeTransport builds a transport over raw streams with no process
// behind it. Used by tests.
func newPipeTransport(stdin io.WriteCloser, stdout, stderr io.Reader) *lineTransport {
	return &lineTransport{
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		stderr: bufio.NewReader(stderr),
	}
}

// writeLine sends one newline-terminated line as a single write. The mutex
// keeps concurrent requests from interleaving partial lines.
func (t *lineTransport) writeLine(line []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if _, err := t.stdin.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}

// readLine blocks until one stdout line is available.
func (t *lineTransport) readLine() (string, error) {
	return t.stdout.ReadString('\n')
}

// readErrLine blocks until one stderr line is available.
func (t *lineTransport) readErrLine() (string, error) {
	return t.stderr.ReadString('\n')
}

// kill terminates and reaps the server process. Idempotent; a process that
// already exited is not an error.
func (t *lineTransport) kill() error {
	var err error
	t.killOnce.Do(func() {
		t.stdin.Close()
		if t.cmd == nil || t.cmd.Process == nil {
			return
		}
		if killErr := t.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			err = killErr
		}
		t.cmd.Wait()
	})
	return err
}
