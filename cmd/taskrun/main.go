package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	taskrun "github.com/goliatone/go-taskrun"
	"github.com/goliatone/go-taskrun/presets/maven"
	"github.com/goliatone/go-logger/glog"
)

type baseLoggerProvider struct {
	root *glog.BaseLogger
}

func (p baseLoggerProvider) GetLogger(name string) glog.Logger {
	return p.root.GetLogger(name)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr, os.Getenv)
	cancel()
	os.Exit(code)
}

// run wires the dispatcher from the environment, handles one command line
// and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	program := "taskrun"
	if len(args) > 0 {
		program = filepath.Base(args[0])
		args = args[1:]
	}

	preset := maven.New(
		maven.WithVersion(getenv("SAXON_VERSION")),
		maven.WithVersionFile(getenv("TASKRUN_VERSION_FILE"), getenv("TASKRUN_VERSION_PATTERN")),
	)

	creators := []taskrun.TaskCreator{
		taskrun.NewTaskFileCreator(envOr(getenv, "TASKRUN_FILE", taskrun.DefaultTaskFile)),
	}
	if dir := envOr(getenv, "TASKRUN_SCRIPTS", taskrun.DefaultScriptsDir); taskrun.FileExists(dir) {
		creators = append(creators, taskrun.NewScriptTaskCreator(taskrun.NewFileSystemSourceProvider(dir)))
	}

	dispatcher := taskrun.NewDispatcher(
		taskrun.WithProgramName(program),
		taskrun.WithOutput(stdout),
		taskrun.WithLoggerProvider(loggerProvider(getenv, stderr)),
		taskrun.WithErrorHandler(func(task taskrun.Task, err error) {
			fmt.Fprintln(stderr, "taskrun: skipping tasks:", err)
		}),
		taskrun.WithTasks(preset.Tasks()...),
		taskrun.WithTaskCreator(creators...),
	)

	if err := dispatcher.Load(ctx); err != nil {
		fmt.Fprintln(stderr, "taskrun:", err)
		return 1
	}

	err := dispatcher.Run(ctx, args)
	if err != nil && !taskrun.IsTaskNotFound(err) {
		fmt.Fprintln(stderr, "taskrun:", err)
	}
	return taskrun.ExitCode(err)
}

func loggerProvider(getenv func(string) string, stderr io.Writer) taskrun.LoggerProvider {
	if getenv("TASKRUN_DEBUG") != "" {
		lgr := glog.NewLogger(
			glog.WithLoggerTypePretty(),
			glog.WithLevel(glog.Trace),
			glog.WithName("taskrun"),
		)
		return taskrun.GoLoggerProvider(baseLoggerProvider{root: lgr})
	}

	if name := getenv("TASKRUN_LOG_LEVEL"); name != "" {
		level, ok := taskrun.ParseLogLevel(name)
		if !ok {
			fmt.Fprintf(stderr, "taskrun: unknown log level %q, using %s\n", name, level)
		}
		return taskrun.NewStdLoggerProvider(
			taskrun.WithStdLoggerWriter(stderr),
			taskrun.WithStdLoggerMinLevel(level),
		)
	}

	return taskrun.NewStdLoggerProvider()
}

func envOr(getenv func(string) string, key, fallback string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return fallback
}
