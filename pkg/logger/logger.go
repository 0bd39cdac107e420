// Package logger provides structured logging for Nebula Progression Hub.
// It supports log levels, structured fields, and child loggers with bound
// context. No external dependencies - uses only standard library.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general operational information.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown strings map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Err creates an "error" field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Logger writes structured JSON log entries.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	bound  []Field
	name   string
	format string // "json" or "text"
}

// Options configures a Logger.
type Options struct {
	// Output is the destination writer (default: os.Stdout).
	Output io.Writer

	// Level is the minimum level to emit (default: LevelInfo).
	Level Level

	// Name identifies the component emitting logs.
	Name string

	// Format selects "json" (default) or "text" output.
	Format string
}

// New creates a Logger with the given options.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	format := opts.Format
	if format != "text" {
		format = "json"
	}
	return &Logger{
		out:    out,
		level:  opts.Level,
		name:   opts.Name,
		format: format,
	}
}

// Default returns an info-level JSON logger writing to stdout.
func Default() *Logger {
	return New(Options{})
}

// With returns a child logger with additional bound fields.
func (l *Logger) With(fields ...Field) *Logger {
	bound := make([]Field, 0, len(l.bound)+len(fields))
	bound = append(bound, l.bound...)
	bound = append(bound, fields...)
	return &Logger{
		out:    l.out,
		level:  l.level,
		bound:  bound,
		name:   l.name,
		format: l.format,
	}
}

// Named returns a child logger with the given component name.
func (l *Logger) Named(name string) *Logger {
	child := l.With()
	child.name = name
	return child
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields)
}

func (l *Logger) log(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}

	entry := make(map[string]any, len(l.bound)+len(fields)+4)
	entry["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg
	if l.name != "" {
		entry["logger"] = l.name
	}
	for _, f := range l.bound {
		entry[f.Key] = f.Value
	}
	for _, f := range fields {
		entry[f.Key] = f.Value
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.format == "text" {
		fmt.Fprintf(l.out, "%s %-5s %s", entry["ts"], level.String(), msg)
		for _, f := range l.bound {
			fmt.Fprintf(l.out, " %s=%v", f.Key, f.Value)
		}
		for _, f := range fields {
			fmt.Fprintf(l.out, " %s=%v", f.Key, f.Value)
		}
		fmt.Fprintln(l.out)
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.out, `{"level":"ERROR","msg":"log marshal failed: %v"}`+"\n", err)
		return
	}
	l.out.Write(append(data, '\n'))
}
