package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// Options describes the sinks installed by Init. Each sink filters records
// with its own threshold.
type Options struct {
	// AppName and PID are attached to every record written to the file and
	// journal sinks.
	AppName string
	PID     int

	Console ConsoleSink
	File    FileSink
	Journal JournalSink
}

// ConsoleSink writes human readable records to Writer (stderr when nil).
type ConsoleSink struct {
	Enabled bool
	Level   LogLevel
	Writer  io.Writer
}

// FileSink appends records to Path, creating parent directories on demand.
type FileSink struct {
	Enabled bool
	Level   LogLevel
	Path    string
}

// JournalSink forwards records to the systemd journal. It is silently
// skipped when no journal socket is available.
type JournalSink struct {
	Enabled    bool
	Level      LogLevel
	Identifier string
}

func (o Options) handlers() ([]slog.Handler, []io.Closer, error) {
	var handlers []slog.Handler
	var files []io.Closer

	if o.Console.Enabled {
		w := o.Console.Writer
		if w == nil {
			w = os.Stderr
		}
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:       o.Console.Level.SlogLevel(),
			ReplaceAttr: replaceLevelName,
		}))
	}

	if o.File.Enabled && o.File.Path != "" {
		if err := os.MkdirAll(filepath.Dir(o.File.Path), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory for %s: %w", o.File.Path, err)
		}
		f, err := os.OpenFile(o.File.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", o.File.Path, err)
		}
		files = append(files, f)
		var h slog.Handler = slog.NewTextHandler(f, &slog.HandlerOptions{
			Level:       o.File.Level.SlogLevel(),
			ReplaceAttr: replaceLevelName,
		})
		handlers = append(handlers, h.WithAttrs(o.identityAttrs()))
	}

	if o.Journal.Enabled && journal.Enabled() {
		ident := o.Journal.Identifier
		if ident == "" {
			ident = o.AppName
		}
		h := &journalHandler{level: o.Journal.Level.SlogLevel(), identifier: ident}
		handlers = append(handlers, h.WithAttrs(o.identityAttrs()))
	}

	return handlers, files, nil
}

func (o Options) identityAttrs() []slog.Attr {
	var attrs []slog.Attr
	if o.AppName != "" {
		attrs = append(attrs, slog.String("app", o.AppName))
	}
	if o.PID != 0 {
		attrs = append(attrs, slog.Int("pid", o.PID))
	}
	return attrs
}

// fanoutHandler dispatches every record to each handler that accepts its level.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) *fanoutHandler {
	return &fanoutHandler{handlers: handlers}
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return newFanoutHandler(next...)
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return newFanoutHandler(next...)
}

type journalHandler struct {
	level      slog.Level
	identifier string
	attrs      []slog.Attr
}

func (j *journalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= j.level
}

func (j *journalHandler) Handle(_ context.Context, r slog.Record) error {
	vars := map[string]string{}
	if j.identifier != "" {
		vars["SYSLOG_IDENTIFIER"] = j.identifier
	}
	for _, a := range j.attrs {
		vars[journalKey(a.Key)] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		vars[journalKey(a.Key)] = a.Value.String()
		return true
	})
	return journal.Send(r.Message, journalPriority(r.Level), vars)
}

func (j *journalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(j.attrs)+len(attrs))
	merged = append(merged, j.attrs...)
	merged = append(merged, attrs...)
	return &journalHandler{level: j.level, identifier: j.identifier, attrs: merged}
}

// WithGroup is a no-op: journal fields are flat.
func (j *journalHandler) WithGroup(string) slog.Handler {
	return j
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slogLevelCritical:
		return journal.PriCrit
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// journalKey maps an attribute key onto the journal field alphabet.
func journalKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(key) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), "_")
	if out == "" {
		return "FIELD"
	}
	return out
}
