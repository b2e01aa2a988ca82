package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders one line per record for terminals:
//
//	15:04:05 INFO  workflow: step complete [0 create_tank] (step_complete) outputs=1
//
// component, step scope and event type are lifted out of the field list.
type consoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	fields []field
	prefix string
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, level slog.Leveler) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	line := consoleLine{level: record.Level, msg: strings.TrimSpace(record.Message), at: record.Time}
	for _, f := range h.fields {
		line.add(f)
	}
	record.Attrs(func(attr slog.Attr) bool {
		for _, f := range flatten(h.prefix, attr) {
			line.add(f)
		}
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, attr := range attrs {
		next.fields = append(next.fields, flatten(h.prefix, attr)...)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func flatten(prefix string, attr slog.Attr) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return nil
	}
	if attr.Value.Kind() != slog.KindGroup {
		return []field{{key: prefix + attr.Key, value: attr.Value}}
	}
	if attr.Key != "" {
		prefix += attr.Key + "."
	}
	var out []field
	for _, member := range attr.Value.Group() {
		out = append(out, flatten(prefix, member)...)
	}
	return out
}

type consoleLine struct {
	at        time.Time
	level     slog.Level
	msg       string
	component string
	event     string
	action    string
	step      *int64
	fields    []field
}

func (l *consoleLine) add(f field) {
	switch {
	case f.key == FieldComponent && l.component == "":
		l.component = f.value.String()
	case f.key == FieldEventType && l.event == "":
		l.event = f.value.String()
	case f.key == FieldAction && l.action == "":
		l.action = f.value.String()
	case f.key == FieldStepIndex && l.step == nil && f.value.Kind() == slog.KindInt64:
		idx := f.value.Int64()
		l.step = &idx
	default:
		l.fields = append(l.fields, f)
	}
}

func (l consoleLine) String() string {
	at := l.at
	if at.IsZero() {
		at = time.Now()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s ", at.Local().Format(time.TimeOnly), levelLabel(l.level))
	if l.component != "" {
		b.WriteString(l.component)
		b.WriteString(": ")
	}
	if l.msg == "" {
		b.WriteString("(no message)")
	} else {
		b.WriteString(l.msg)
	}
	switch {
	case l.step != nil:
		fmt.Fprintf(&b, " [%d %s]", *l.step, l.action)
	case l.action != "":
		fmt.Fprintf(&b, " [%s]", l.action)
	}
	if l.event != "" {
		fmt.Fprintf(&b, " (%s)", l.event)
	}
	for _, f := range l.fields {
		fmt.Fprintf(&b, " %s=%s", f.key, formatValue(f.value))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
