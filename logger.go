package taskrun

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Logger defines the leveled logging contract used by the dispatcher, the
// shell helpers and tasks.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider produces named loggers.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// FieldsLogger allows attaching persistent key/value pairs to a logger.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}

// LoggerAware components can accept a logger instance.
type LoggerAware interface {
	SetLogger(logger Logger)
}

// LoggerProviderAware components can accept a logger provider.
type LoggerProviderAware interface {
	SetLoggerProvider(provider LoggerProvider)
}

// LogLevel is the minimum severity the std logger emits.
type LogLevel int

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[LogLevel]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLogLevel maps a level name such as "debug" or "WARN" to a LogLevel.
func ParseLogLevel(name string) (LogLevel, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "WARNING" {
		name = "WARN"
	}
	for level, levelName := range levelNames {
		if levelName == name {
			return level, true
		}
	}
	return LevelInfo, false
}

// StdLoggerOption customises the std logger provider.
type StdLoggerOption func(*stdLoggerProvider)

// WithStdLoggerWriter sets the destination for log lines.
func WithStdLoggerWriter(w io.Writer) StdLoggerOption {
	return func(p *stdLoggerProvider) {
		if w != nil {
			p.writer = w
		}
	}
}

// WithStdLoggerMinLevel changes the minimum level emitted.
func WithStdLoggerMinLevel(level LogLevel) StdLoggerOption {
	return func(p *stdLoggerProvider) {
		p.minLevel = level
	}
}

// WithStdLoggerTimestampFunc overrides the time source used for log entries.
func WithStdLoggerTimestampFunc(fn func() time.Time) StdLoggerOption {
	return func(p *stdLoggerProvider) {
		if fn != nil {
			p.now = fn
		}
	}
}

// NewStdLoggerProvider returns a logger provider that writes key=value log
// lines to the supplied writer. It discards output unless a writer is set.
// Task output and audit lines never go through it.
func NewStdLoggerProvider(opts ...StdLoggerOption) LoggerProvider {
	return newStdLoggerProvider(opts...)
}

type stdLoggerProvider struct {
	mu       sync.Mutex
	writer   io.Writer
	minLevel LogLevel
	now      func() time.Time
}

func newStdLoggerProvider(opts ...StdLoggerOption) *stdLoggerProvider {
	provider := &stdLoggerProvider{
		writer:   io.Discard,
		minLevel: LevelInfo,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}
	return provider
}

func (p *stdLoggerProvider) GetLogger(name string) Logger {
	return &stdLogger{provider: p, name: name}
}

type stdLogger struct {
	provider *stdLoggerProvider
	name     string
	fields   []string
	ctx      context.Context
}

func (l *stdLogger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args) }
func (l *stdLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }
func (l *stdLogger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args) }
func (l *stdLogger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args) }
func (l *stdLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }
func (l *stdLogger) Fatal(msg string, args ...any) { l.log(LevelFatal, msg, args) }

func (l *stdLogger) WithContext(ctx context.Context) Logger {
	clone := *l
	clone.ctx = ctx
	return &clone
}

// WithFields returns a child logger that prefixes every line with fields,
// sorted by key.
func (l *stdLogger) WithFields(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	clone := *l
	clone.fields = append([]string(nil), l.fields...)
	for _, key := range keys {
		clone.fields = append(clone.fields, fmt.Sprintf("%s=%v", key, fields[key]))
	}
	return &clone
}

func (l *stdLogger) log(level LogLevel, msg string, args []any) {
	if l == nil || l.provider == nil {
		return
	}

	pairs := append([]string(nil), l.fields...)
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, fmt.Sprintf("%v=%v", args[i], args[i+1]))
	}
	if len(args)%2 == 1 {
		// dangling value, keep it visible
		pairs = append(pairs, fmt.Sprintf("extra_arg=%v", args[len(args)-1]))
	}

	l.provider.write(level, l.name, msg, pairs)
}

func (p *stdLoggerProvider) write(level LogLevel, name, msg string, pairs []string) {
	if p.writer == nil || level < p.minLevel {
		return
	}

	parts := []string{p.now().Format(time.RFC3339Nano), level.String()}
	if name != "" {
		parts = append(parts, "["+name+"]")
	}
	if msg != "" {
		parts = append(parts, msg)
	}
	parts = append(parts, pairs...)

	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.writer, strings.Join(parts, " "))
}
