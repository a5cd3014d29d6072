package taskrun

import (
	"context"
	"sort"

	"github.com/goliatone/go-logger/glog"
)

// GoLoggerProvider exposes a go-logger provider as a taskrun LoggerProvider.
func GoLoggerProvider(provider glog.LoggerProvider) LoggerProvider {
	if provider == nil {
		return nil
	}
	return glogProvider{provider: provider}
}

// GoLogger exposes a go-logger Logger as a taskrun Logger.
func GoLogger(logger glog.Logger) Logger {
	if logger == nil {
		return nil
	}
	return &glogLogger{Logger: logger}
}

type glogProvider struct {
	provider glog.LoggerProvider
}

func (p glogProvider) GetLogger(name string) Logger {
	return GoLogger(p.provider.GetLogger(name))
}

// glogLogger embeds glog.Logger so the level methods are promoted as is.
type glogLogger struct {
	glog.Logger
}

func (g *glogLogger) WithContext(ctx context.Context) Logger {
	return &glogLogger{Logger: g.Logger.WithContext(ctx)}
}

// WithFields uses the With method of the underlying logger when it has
// one, otherwise fields are dropped.
func (g *glogLogger) WithFields(fields map[string]any) Logger {
	if len(fields) == 0 {
		return g
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]any, 0, len(fields)*2)
	for _, key := range keys {
		pairs = append(pairs, key, fields[key])
	}

	switch l := g.Logger.(type) {
	case interface{ With(args ...any) glog.Logger }:
		return &glogLogger{Logger: l.With(pairs...)}
	case interface{ With(args ...any) *glog.BaseLogger }:
		return &glogLogger{Logger: l.With(pairs...)}
	}

	return g
}
