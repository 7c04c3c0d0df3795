package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// LevelCritical sits above slog.LevelError.
const LevelCritical = slog.Level(12)

// levelNotSet lets every record through.
const levelNotSet = slog.Level(-8)

// Record attributes that change the console label instead of being printed.
const (
	attrFrameworkError = "framework_error"
	attrAnalysisInfo   = "analysis_info"
)

// ParseLogLevel accepts CRITICAL, ERROR, WARN, WARNING, INFO, DEBUG and
// NOTSET in any case.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL":
		return LevelCritical, nil
	case "ERROR":
		return slog.LevelError, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "NOTSET":
		return levelNotSet, nil
	}
	return 0, fmt.Errorf("invalid log level %q: must be one of CRITICAL, ERROR, WARN, INFO, DEBUG, NOTSET", s)
}

func levelName(l slog.Level) string {
	switch {
	case l >= LevelCritical:
		return "CRITICAL"
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances. Unknown
// levels fall back to ERROR; the CLI rejects them before we get here.
// silent raises the level to at least ERROR.
func newLogger(levelStr, formatStr string, silent bool, outW io.Writer) *slog.Logger {
	level, err := ParseLogLevel(levelStr)
	if err != nil {
		level = slog.LevelError
	}
	if silent && level < slog.LevelError {
		level = slog.LevelError
	}

	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if len(groups) == 0 && a.Key == slog.LevelKey {
					if l, ok := a.Value.Any().(slog.Level); ok {
						a.Value = slog.StringValue(levelName(l))
					}
				}
				return a
			},
		}))
	}
	return slog.New(newConsoleHandler(outW, level))
}

// consoleHandler prints `[ LEVEL ]  message key=value ...`. Attributes are
// rendered by a slog.TextHandler whose built-in keys are dropped.
type consoleHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	buf   *bytes.Buffer
	attrs slog.Handler
}

func newConsoleHandler(w io.Writer, level slog.Leveler) *consoleHandler {
	buf := &bytes.Buffer{}
	return &consoleHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
		buf:   buf,
		attrs: slog.NewTextHandler(buf, &slog.HandlerOptions{
			Level: levelNotSet,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if len(groups) > 0 {
					return a
				}
				switch a.Key {
				case slog.TimeKey, slog.LevelKey, slog.MessageKey:
					return slog.Attr{}
				}
				return a
			},
		}),
	}
}

func (h *consoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *consoleHandler) Handle(ctx context.Context, r slog.Record) error {
	label := levelName(r.Level)
	rest := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		switch {
		case a.Key == attrFrameworkError && a.Value.Kind() == slog.KindBool:
			if a.Value.Bool() {
				label = "FRAMEWORK ERROR"
			}
		case a.Key == attrAnalysisInfo && a.Value.Kind() == slog.KindBool:
			if a.Value.Bool() {
				label = "ANALYSIS INFO"
			}
		default:
			rest.AddAttrs(a)
		}
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf.Reset()
	if err := h.attrs.Handle(ctx, rest); err != nil {
		return err
	}
	line := fmt.Sprintf("[ %s ]  %s", label, r.Message)
	if extra := strings.TrimSpace(h.buf.String()); extra != "" {
		line += " " + extra
	}
	_, err := io.WriteString(h.w, line+"\n")
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = h.attrs.WithAttrs(attrs)
	return &c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.attrs = h.attrs.WithGroup(name)
	return &c
}
