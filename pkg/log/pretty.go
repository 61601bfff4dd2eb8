package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleKey   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleTime  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleMsg   = lipgloss.NewStyle().Bold(true)
	styleDebug = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	styleInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	styleError = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// prettyHandler writes one line per record: time, padded level, message and
// key=value attributes.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	layout string
	color  bool
	attrs  []slog.Attr
	group  string
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, layout string, color bool) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w, layout: layout, color: color}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if h.layout != "" && !r.Time.IsZero() {
		buf.WriteString(h.render(styleTime, r.Time.Format(h.layout)))
		buf.WriteByte(' ')
	}
	buf.WriteString(h.level(r.Level))
	buf.WriteByte(' ')
	buf.WriteString(h.render(styleMsg, r.Message))

	for _, a := range h.attrs {
		h.writeAttr(buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(buf, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], h.qualify(attrs)...)
	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	c := *h
	if c.group != "" {
		c.group += "." + name
	} else {
		c.group = name
	}
	return &c
}

func (h *prettyHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
	}
	return out
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, g := range a.Value.Group() {
			h.writeAttr(buf, slog.Attr{Key: a.Key + "." + g.Key, Value: g.Value})
		}
		return
	}
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	buf.WriteByte(' ')
	buf.WriteString(h.render(styleKey, key+"="))
	fmt.Fprintf(buf, "%v", a.Value.Any())
}

func (h *prettyHandler) level(l slog.Level) string {
	var style lipgloss.Style
	label := "DEBUG"
	switch {
	case l >= slog.LevelError:
		style, label = styleError, "ERROR"
	case l >= slog.LevelWarn:
		style, label = styleWarn, "WARN "
	case l >= slog.LevelInfo:
		style, label = styleInfo, "INFO "
	default:
		style = styleDebug
	}
	return h.render(style, label)
}

func (h *prettyHandler) render(style lipgloss.Style, s string) string {
	if !h.color {
		return s
	}
	return style.Render(s)
}
