package taskrun

import (
	"io"
	"net/http"
)

type ShellOption func(*Shell)

// WithShellShell sets the shell executable and arguments
func WithShellShell(shell string, args ...string) ShellOption {
	return func(s *Shell) {
		if shell != "" {
			s.shell = shell
			s.shellArgs = args
		}
	}
}

// WithShellWorkingDirectory sets the default working directory for commands
func WithShellWorkingDirectory(dir string) ShellOption {
	return func(s *Shell) {
		if dir != "" {
			s.workDir = dir
		}
	}
}

// WithShellEnvironment sets additional environment variables
func WithShellEnvironment(env []string) ShellOption {
	return func(s *Shell) {
		if env != nil {
			s.environment = env
		}
	}
}

// WithShellOutput sets the writer for audit lines and task messages
func WithShellOutput(w io.Writer) ShellOption {
	return func(s *Shell) {
		if w != nil {
			s.out = w
		}
	}
}

// WithShellStdio overrides the standard streams handed to subprocesses.
// Nil values keep the current stream.
func WithShellStdio(stdin io.Reader, stdout, stderr io.Writer) ShellOption {
	return func(s *Shell) {
		if stdin != nil {
			s.stdin = stdin
		}
		if stdout != nil {
			s.stdout = stdout
		}
		if stderr != nil {
			s.stderr = stderr
		}
	}
}

// WithShellHTTPClient sets the client used by FetchOnce
func WithShellHTTPClient(client *http.Client) ShellOption {
	return func(s *Shell) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithShellRetryPolicy sets how FetchOnce retries failed transfers
func WithShellRetryPolicy(policy RetryPolicy) ShellOption {
	return func(s *Shell) {
		s.retry = policy
	}
}

func WithShellLogger(logger Logger) ShellOption {
	return func(s *Shell) {
		if logger != nil {
			s.SetLogger(logger)
		}
	}
}
