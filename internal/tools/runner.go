package tools

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"podscribe/internal/services"
)

// Command describes one external tool invocation.
type Command struct {
	// Argv is the full command line; Argv[0] is the binary.
	Argv []string
	// Dir is the working directory for the process. Empty inherits the daemon's.
	Dir string
	// Stdin is forwarded to the process when non-nil.
	Stdin io.Reader
}

// Runner abstracts tool execution for testability. Implementations stream
// stdout and stderr line by line to the supplied callbacks and block until the
// process exits or ctx is cancelled.
type Runner interface {
	Run(ctx context.Context, command Command, onStdout, onStderr func(line string)) error
}

// NewRunner returns the exec-backed Runner used outside tests.
func NewRunner() Runner {
	return execRunner{}
}

type execRunner struct{}

// Transcript payloads arrive on stdout as a single line far beyond bufio's
// default token size.
const maxLineBytes = 16 << 20

func (execRunner) Run(ctx context.Context, command Command, onStdout, onStderr func(string)) error {
	if len(command.Argv) == 0 || strings.TrimSpace(command.Argv[0]) == "" {
		return fmt.Errorf("%w: empty command", services.ErrLaunchFailure)
	}
	name := command.Argv[0]

	cmd := exec.CommandContext(ctx, name, command.Argv[1:]...) //nolint:gosec
	cmd.Dir = command.Dir
	cmd.Stdin = command.Stdin

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %v", services.ErrLaunchFailure, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: stderr pipe: %v", services.ErrLaunchFailure, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %v", services.ErrLaunchFailure, name, err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			if forward != nil {
				forward(scanner.Text())
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout, onStdout)
	go scan(stderr, onStderr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("%w: read %s output: %v", services.ErrToolFailure, name, scanErr)
	}

	if err := cmd.Wait(); err != nil {
		// The watchdog cancels ctx on timeout or stall; report that instead of
		// the kill signal so callers can attribute the termination.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %s exited with status %d", services.ErrToolFailure, name, exitErr.ExitCode())
		}
		return fmt.Errorf("%w: wait %s: %v", services.ErrToolFailure, name, err)
	}
	return nil
}
