package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler used for output.
type Format string

const (
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
	// FormatText writes logfmt-style key=value lines.
	FormatText Format = "text"
	// FormatConsole is accepted as an alias of FormatText.
	FormatConsole Format = "console"
)

// Redacted replaces the value of sensitive attributes.
const Redacted = "[redacted]"

// sensitiveKeys are attribute keys whose values never reach the output.
var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"authorization": true,
	"password":      true,
	"token":         true,
}

// Options configures New.
type Options struct {
	Level     string
	Format    string
	AddSource bool

	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// New builds a slog.Logger whose handler copies run and request fields from
// the context of every *Context call into the record.
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	format, err := ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	ho := &slog.HandlerOptions{
		Level:       level,
		AddSource:   opts.AddSource,
		ReplaceAttr: redact,
	}

	var base slog.Handler
	if format == FormatJSON {
		base = slog.NewJSONHandler(w, ho)
	} else {
		base = slog.NewTextHandler(w, ho)
	}
	return slog.New(&contextHandler{next: base}), nil
}

// ParseLevel accepts debug, info, warn(ing) and error in any case. An empty
// string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
}

// ParseFormat accepts json, text and console in any case. An empty string
// means json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatText, FormatConsole:
		return f, nil
	}
	return FormatJSON, fmt.Errorf("invalid log format %q", s)
}

func redact(groups []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// contextHandler injects the fields stored by WithRunID and friends. A field
// already bound with Logger.With or passed on the call is not repeated.
type contextHandler struct {
	next  slog.Handler
	bound map[string]bool
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := Fields(ctx)
	if len(fields) == 0 {
		return h.next.Handle(ctx, r)
	}

	seen := make(map[string]bool, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		seen[a.Key] = true
		return true
	})

	out := r.Clone()
	for _, f := range fields {
		if !seen[f.Key] && !h.bound[f.Key] {
			out.AddAttrs(f)
		}
	}
	return h.next.Handle(ctx, out)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make(map[string]bool, len(h.bound)+len(attrs))
	for k := range h.bound {
		bound[k] = true
	}
	for _, a := range attrs {
		bound[a.Key] = true
	}
	return &contextHandler{next: h.next.WithAttrs(attrs), bound: bound}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), bound: h.bound}
}
