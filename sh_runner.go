package taskrun

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

// Shell runs command lines through /bin/sh and prints an audit line for
// each of them to its output writer before running it.
type Shell struct {
	shell       string
	shellArgs   []string
	workDir     string
	environment []string
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	out         io.Writer
	httpClient  *http.Client
	retry       RetryPolicy
	logger      Logger
}

func NewShell(opts ...ShellOption) *Shell {
	s := &Shell{
		shell:      "/bin/sh",
		shellArgs:  []string{"-c"},
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		out:        os.Stdout,
		httpClient: http.DefaultClient,
		retry:      DefaultRetryPolicy,
		logger:     newStdLoggerProvider().GetLogger("taskrun:shell"),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Output returns the audit and message sink.
func (s *Shell) Output() io.Writer {
	return s.out
}

// Emit prints operands separated by spaces, followed by a newline.
func (s *Shell) Emit(args ...any) {
	fmt.Fprintln(s.out, args...)
}

// Emitf prints a formatted line.
func (s *Shell) Emitf(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

// SetLogger satisfies LoggerAware.
func (s *Shell) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Run executes line and fails with a *CommandError on a non-zero exit.
func (s *Shell) Run(ctx context.Context, line string) error {
	s.Emit(">", line)
	return s.run(ctx, line, "")
}

// RunIgnore executes line and discards any failure.
func (s *Shell) RunIgnore(ctx context.Context, line string) {
	s.Emit(">", line)
	if err := s.run(ctx, line, ""); err != nil {
		s.logger.Debug("ignored command failure", "command", line, "error", err)
	}
}

// RunInDir executes line with dir as working directory and fails with a
// *CommandError on a non-zero exit.
func (s *Shell) RunInDir(ctx context.Context, line, dir string) error {
	s.Emitf("%s > %s", dir, line)
	return s.run(ctx, line, dir)
}

// Spawn starts line in the background and returns without waiting for it.
// Only a failure to start the process is reported.
func (s *Shell) Spawn(line, dir string) error {
	s.Emit(">", line)

	cmd := exec.Command(s.shell, append(append([]string{}, s.shellArgs...), line)...)
	s.prepare(cmd, dir)

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, errors.CategoryExternal, "failed to start background command").
			WithTextCode("SHELL_SPAWN_FAILED").
			WithMetadata(map[string]any{
				"command": line,
				"dir":     dir,
			})
	}

	s.logger.Debug("background command started", "command", line, "dir", dir, "pid", cmd.Process.Pid)

	// reap only, the exit status is never inspected
	go func() {
		_ = cmd.Wait()
	}()

	return nil
}

// RunScript executes a script file through the shell with the given arguments.
func (s *Shell) RunScript(ctx context.Context, path string, args ...string) error {
	s.Emit(">", strings.TrimSpace(path+" "+joinArgs(args)))

	cmd := exec.CommandContext(ctx, s.shell, append([]string{path}, args...)...)
	s.prepare(cmd, "")
	return s.wait(cmd, path, "")
}

func (s *Shell) run(ctx context.Context, line, dir string) error {
	cmd := exec.CommandContext(ctx, s.shell, append(append([]string{}, s.shellArgs...), line)...)
	s.prepare(cmd, dir)
	return s.wait(cmd, line, dir)
}

func (s *Shell) prepare(cmd *exec.Cmd, dir string) {
	switch {
	case dir != "":
		cmd.Dir = dir
	case s.workDir != "":
		cmd.Dir = s.workDir
	}

	cmd.Env = os.Environ()
	if s.environment != nil {
		cmd.Env = append(cmd.Env, s.environment...)
	}

	cmd.Stdin = s.stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
}

func (s *Shell) wait(cmd *exec.Cmd, line, dir string) error {
	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err == nil {
		s.logger.Debug("command completed", "command", line, "dir", cmd.Dir, "duration", duration)
		return nil
	}

	cmdErr := &CommandError{Command: line, Dir: dir, ExitCode: -1, Err: err}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}

	s.logger.Debug("command failed",
		"command", line,
		"dir", cmd.Dir,
		"exit_code", cmdErr.ExitCode,
		"duration", duration,
		"error", err,
	)

	return cmdErr
}
