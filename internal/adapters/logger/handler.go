package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/cheetah/internal/ui/output"
	"go.trai.ch/cheetah/internal/ui/style"
)

// levelStyle is the icon and color a record of a given severity is printed with.
type levelStyle struct {
	icon  string
	color termenv.Color
}

func styleFor(level slog.Level) levelStyle {
	switch {
	case level >= slog.LevelError:
		return levelStyle{icon: style.Cross, color: termenv.RGBColor(string(style.Red))}
	case level >= slog.LevelWarn:
		return levelStyle{icon: style.Warning, color: termenv.RGBColor(string(style.Yellow))}
	case level < slog.LevelInfo:
		return levelStyle{icon: style.Dot, color: termenv.RGBColor(string(style.Iris))}
	default:
		return levelStyle{color: termenv.RGBColor(string(style.Slate))}
	}
}

// PrettyHandler is a slog.Handler that writes one colored line per record:
// an optional level icon, the message and key=value attributes.
type PrettyHandler struct {
	out   *termenv.Output
	level slog.Leveler

	// prefix qualifies attribute keys added after WithGroup.
	prefix string
	// fields holds attributes from WithAttrs, already rendered.
	fields []string
}

// NewPrettyHandler creates a PrettyHandler writing to w, or stderr when w is nil.
// The level in opts is consulted on every record, so a *slog.LevelVar can be
// changed after construction.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		out:   output.New(w),
		level: level,
	}
}

// Enabled implements slog.Handler.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	ls := styleFor(r.Level)

	var line strings.Builder
	if ls.icon != "" {
		line.WriteString(ls.icon + " ")
	}
	line.WriteString(r.Message)

	for _, field := range h.fields {
		line.WriteString(" " + field)
	}
	r.Attrs(func(attr slog.Attr) bool {
		line.WriteString(" " + h.render(attr))
		return true
	})

	styled := h.out.String(line.String()).Foreground(ls.color)
	_, err := h.out.WriteString(styled.String() + "\n")
	return err
}

// WithAttrs implements slog.Handler.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, attr := range attrs {
		next.fields = append(next.fields, h.render(attr))
	}
	return next
}

// WithGroup implements slog.Handler.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.prefix = h.prefix + name + "."
	return next
}

func (h *PrettyHandler) clone() *PrettyHandler {
	return &PrettyHandler{
		out:    h.out,
		level:  h.level,
		prefix: h.prefix,
		fields: slices.Clip(h.fields),
	}
}

func (h *PrettyHandler) render(attr slog.Attr) string {
	return h.prefix + attr.Key + "=" + attr.Value.String()
}
