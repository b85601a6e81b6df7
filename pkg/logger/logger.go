package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with typed fields.
type Logger struct {
	zl zerolog.Logger
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: timeFormat}
	}

	zl := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()

	return &Logger{zl: zl}, nil
}

// NewWriter builds a JSON logger on w at debug level. Used by tests and the CLI.
func NewWriter(w io.Writer) *Logger {
	return &Logger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying fields on every event.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = f.addToContext(ctx)
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.emit(l.zl.Error(), msg, fields) }

func (l *Logger) emit(event *zerolog.Event, msg string, fields []Field) {
	if event == nil {
		return
	}
	for _, f := range fields {
		f.AddTo(event)
	}
	event.Msg(msg)
}

// Field is a typed structured-logging attribute.
type Field struct {
	key   string
	kind  fieldKind
	str   string
	num   int64
	float float64
	any   interface{}
	err   error
}

type fieldKind uint8

const (
	kindString fieldKind = iota
	kindInt
	kindFloat
	kindBool
	kindError
	kindAny
)

// AddTo writes the field onto event.
func (f Field) AddTo(event *zerolog.Event) {
	switch f.kind {
	case kindString:
		event.Str(f.key, f.str)
	case kindInt:
		event.Int64(f.key, f.num)
	case kindFloat:
		event.Float64(f.key, f.float)
	case kindBool:
		event.Bool(f.key, f.num == 1)
	case kindError:
		event.Err(f.err)
	default:
		event.Interface(f.key, f.any)
	}
}

func (f Field) addToContext(ctx zerolog.Context) zerolog.Context {
	switch f.kind {
	case kindString:
		return ctx.Str(f.key, f.str)
	case kindInt:
		return ctx.Int64(f.key, f.num)
	case kindFloat:
		return ctx.Float64(f.key, f.float)
	case kindBool:
		return ctx.Bool(f.key, f.num == 1)
	case kindError:
		return ctx.Err(f.err)
	default:
		return ctx.Interface(f.key, f.any)
	}
}

// --- Field constructors ---

func String(key, value string) Field { return Field{key: key, kind: kindString, str: value} }

func Strings(key string, value []string) Field { return String(key, strings.Join(value, ", ")) }

func Int(key string, value int) Field { return Field{key: key, kind: kindInt, num: int64(value)} }

func Int64(key string, value int64) Field { return Field{key: key, kind: kindInt, num: value} }

func Float64(key string, value float64) Field {
	return Field{key: key, kind: kindFloat, float: value}
}

func Bool(key string, value bool) Field {
	f := Field{key: key, kind: kindBool}
	if value {
		f.num = 1
	}
	return f
}

func Error(err error) Field { return Field{key: "error", kind: kindError, err: err} }

func Any(key string, value interface{}) Field { return Field{key: key, kind: kindAny, any: value} }

// Duration logs milliseconds.
func Duration(key string, value time.Duration) Field {
	return Int64(key, int64(value/time.Millisecond))
}
