package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var zerologLevels = map[Level]zerolog.Level{
	DebugLevel: zerolog.DebugLevel,
	InfoLevel:  zerolog.InfoLevel,
	WarnLevel:  zerolog.WarnLevel,
	ErrorLevel: zerolog.ErrorLevel,
}

// ParseLevel accepts debug, info, warn or error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	WithPrefix(prefix string) Logger
	Writer() io.WriteCloser
}

type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Strs(key string, values []string) Field {
	return Field{Key: key, Value: values}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

func Err(err error) Field {
	return Field{Key: zerolog.ErrorFieldName, Value: err}
}

type logger struct {
	zlog zerolog.Logger
}

// New logs to stderr so stdout stays clean for resolve output. Terminals get
// the console format, anything else gets one JSON object per line.
func New(level Level) Logger {
	var out io.Writer = os.Stderr
	if isatty.IsTerminal(os.Stderr.Fd()) {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return NewWithWriter(out, level)
}

func NewWithWriter(out io.Writer, level Level) Logger {
	zl := zerolog.New(out).Level(zerologLevels[level]).With().Timestamp().Logger()
	return &logger{zlog: zl}
}

func (l *logger) With(fields ...Field) Logger {
	ctx := l.zlog.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &logger{zlog: ctx.Logger()}
}

// WithPrefix tags every entry with the target or stage it belongs to.
func (l *logger) WithPrefix(prefix string) Logger {
	return &logger{zlog: l.zlog.With().Str("target", prefix).Logger()}
}

func (l *logger) Debug(msg string, fields ...Field) {
	withFields(l.zlog.Debug(), fields).Msg(msg)
}

func (l *logger) Info(msg string, fields ...Field) {
	withFields(l.zlog.Info(), fields).Msg(msg)
}

func (l *logger) Warn(msg string, fields ...Field) {
	withFields(l.zlog.Warn(), fields).Msg(msg)
}

func (l *logger) Error(msg string, fields ...Field) {
	withFields(l.zlog.Error(), fields).Msg(msg)
}

func withFields(event *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			event.Str(f.Key, v)
		case []string:
			event.Strs(f.Key, v)
		case int:
			event.Int(f.Key, v)
		case int64:
			event.Int64(f.Key, v)
		case bool:
			event.Bool(f.Key, v)
		case time.Duration:
			event.Dur(f.Key, v)
		case error:
			if v != nil {
				event.Err(v)
			}
		default:
			event.Interface(f.Key, v)
		}
	}
	return event
}

func (l *logger) Writer() io.WriteCloser {
	return &lineWriter{log: l}
}

// lineWriter turns command output into one info entry per line. A trailing
// partial line is held until the next newline or Close.
type lineWriter struct {
	log     *logger
	mu      sync.Mutex
	pending []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		w.emit(w.pending[:i])
		w.pending = w.pending[i+1:]
	}
	return len(p), nil
}

func (w *lineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.emit(w.pending)
	w.pending = nil
	return nil
}

func (w *lineWriter) emit(line []byte) {
	text := strings.TrimRight(string(line), "\r")
	if strings.TrimSpace(text) != "" {
		w.log.Info(text)
	}
}
