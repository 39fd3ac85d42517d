package clog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// requestColumns lead the line in this order when present.
var requestColumns = []string{"proto", "method", "procedure", "status"}

type TextHandlerConfig struct {
	Color bool
	Level *slog.Level
}

type TextHandlerOption func(*TextHandlerConfig)

func WithColor(c bool) TextHandlerOption {
	return func(cfg *TextHandlerConfig) { cfg.Color = c }
}

func WithLevel(level slog.Level) TextHandlerOption {
	return func(cfg *TextHandlerConfig) { cfg.Level = &level }
}

type palette struct {
	levels  map[slog.Level]*color.Color
	message *color.Color
	err     *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		levels: map[slog.Level]*color.Color{
			slog.LevelDebug: color.New(color.FgCyan),
			slog.LevelInfo:  color.New(color.FgBlue),
			slog.LevelWarn:  color.New(color.FgYellow),
			slog.LevelError: color.New(color.FgRed),
		},
		message: color.New(color.FgGreen),
		err:     color.New(color.FgRed),
	}
	for _, c := range append(slices.Collect(maps.Values(p.levels)), p.message, p.err) {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *palette) level(l slog.Level) string {
	if c, ok := p.levels[l]; ok {
		return c.Sprint(l.String())
	}
	return l.String()
}

// HTTPTextHandler is a human-oriented handler for local runs: request columns
// and the message on one line, remaining attributes indented below it.
type HTTPTextHandler struct {
	mu      *sync.Mutex
	w       io.Writer
	minimum slog.Level
	colors  *palette
	attrs   []slog.Attr
	prefix  string
}

func NewHTTPTextHandler(w io.Writer, opts ...TextHandlerOption) *HTTPTextHandler {
	cfg := TextHandlerConfig{Color: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	minimum := slog.LevelInfo
	if cfg.Level != nil {
		minimum = *cfg.Level
	}
	return &HTTPTextHandler{
		mu:      &sync.Mutex{},
		w:       w,
		minimum: minimum,
		colors:  newPalette(cfg.Color),
	}
}

func (h *HTTPTextHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.minimum
}

func (h *HTTPTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = slices.Clone(h.attrs)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		nh.attrs = append(nh.attrs, a)
	}
	return &nh
}

func (h *HTTPTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

func (h *HTTPTextHandler) Handle(_ context.Context, record slog.Record) error {
	kv := make(map[string]slog.Value, len(h.attrs)+record.NumAttrs())
	for _, a := range h.attrs {
		kv[a.Key] = a.Value.Resolve()
	}
	record.Attrs(func(a slog.Attr) bool {
		kv[h.prefix+a.Key] = a.Value.Resolve()
		return true
	})

	var b strings.Builder
	b.WriteString(record.Time.Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(h.colors.level(record.Level))
	for _, key := range requestColumns {
		if v, ok := kv[key]; ok {
			b.WriteByte(' ')
			b.WriteString(v.String())
			delete(kv, key)
		}
	}
	b.WriteByte(' ')
	b.WriteString(h.colors.message.Sprint(record.Message))
	if v, ok := kv[ErrorAttributeKey]; ok {
		delete(kv, ErrorAttributeKey)
		b.WriteByte(' ')
		b.WriteString(h.colors.err.Sprint(v.String()))
	}
	b.WriteByte('\n')
	for _, k := range slices.Sorted(maps.Keys(kv)) {
		fmt.Fprintf(&b, "    %s=%s\n", k, kv[k])
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := io.WriteString(h.w, b.String()); err != nil {
		return fmt.Errorf("can't write log line: %w", err)
	}
	return nil
}
