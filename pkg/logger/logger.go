/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Level represents the severity level of log messages
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a flag value onto a Level. Unknown values fall back to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Config holds the logger configuration
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
	DryRun    bool
	// Output receives console lines. Defaults to os.Stderr.
	Output io.Writer
}

// Entry is a single buffered log record. Entries are kept for the
// lifetime of the run and written out by Flush.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

// Summary is the persisted form of one run's log.
type Summary struct {
	RunID        string    `json:"runId"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	DurationMs   int64     `json:"durationMs"`
	TotalEntries int       `json:"totalEntries"`
	ErrorCount   int       `json:"errorCount"`
	WarningCount int       `json:"warningCount"`
	Stats        any       `json:"stats,omitempty"`
	Entries      []Entry   `json:"entries"`
}

// Logger is a per-run logger. It prints to the console and keeps every
// entry at DebugLevel or above in memory regardless of the console level.
type Logger struct {
	config  Config
	logger  *log.Logger
	runID   string
	started time.Time
	entries []Entry
	now     func() time.Time
}

// New creates a logger for a single run
func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		config:  config,
		logger:  log.New(out, "", 0),
		runID:   uuid.NewString(),
		started: time.Now(),
		now:     time.Now,
	}
}

// Discard returns a logger that prints nothing but still buffers entries.
func Discard() *Logger {
	return New(Config{Level: ErrorLevel + 1, Output: io.Discard})
}

// RunID returns the identifier stamped on this run's summary
func (l *Logger) RunID() string {
	return l.runID
}

// Log writes a log message
func (l *Logger) Log(level Level, message string, fields ...Field) {
	entry := Entry{
		Timestamp: l.now(),
		Level:     level.String(),
		Message:   message,
	}
	if len(fields) > 0 {
		entry.Data = make(map[string]any, len(fields))
		for _, field := range fields {
			entry.Data[field.Key] = field.Value
		}
	}

	if level >= DebugLevel {
		l.entries = append(l.entries, entry)
	}

	if level < l.config.Level {
		return
	}

	var output string
	if l.config.JSON {
		jsonBytes, _ := json.Marshal(entry)
		output = string(jsonBytes)
	} else {
		output = l.formatPretty(entry)
	}

	l.logger.Print(output)
}

// formatPretty formats the log entry in a human-readable way
func (l *Logger) formatPretty(entry Entry) string {
	var builder strings.Builder

	builder.WriteString(entry.Timestamp.Format("2006-01-02 15:04:05"))

	level := entry.Level
	if l.config.UseColor {
		switch entry.Level {
		case "TRACE":
			level = "\033[37mTRACE\033[0m"
		case "DEBUG":
			level = "\033[36mDEBUG\033[0m"
		case "INFO":
			level = "\033[32mINFO\033[0m"
		case "WARN":
			level = "\033[33mWARN\033[0m"
		case "ERROR":
			level = "\033[31mERROR\033[0m"
		}
	}

	builder.WriteString(fmt.Sprintf(" [%s]", level))

	if l.config.Component != "" {
		builder.WriteString(fmt.Sprintf(" %s:", l.config.Component))
	}

	if l.config.DryRun {
		if l.config.UseColor {
			builder.WriteString(" \033[35m[DRY-RUN]\033[0m")
		} else {
			builder.WriteString(" [DRY-RUN]")
		}
	}

	builder.WriteString(fmt.Sprintf(" %s", entry.Message))

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		builder.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(fmt.Sprintf("%s=%v", k, entry.Data[k]))
		}
		builder.WriteString("}")
	}

	return builder.String()
}

func (l *Logger) Trace(message string, fields ...Field) { l.Log(TraceLevel, message, fields...) }
func (l *Logger) Debug(message string, fields ...Field) { l.Log(DebugLevel, message, fields...) }
func (l *Logger) Info(message string, fields ...Field)  { l.Log(InfoLevel, message, fields...) }
func (l *Logger) Warn(message string, fields ...Field)  { l.Log(WarnLevel, message, fields...) }
func (l *Logger) Error(message string, fields ...Field) { l.Log(ErrorLevel, message, fields...) }

// Success logs an info entry tagged as a successful outcome
func (l *Logger) Success(message string, fields ...Field) {
	l.Log(InfoLevel, message, append(fields, String("status", "success"))...)
}

// Entries returns a copy of the buffered entries
func (l *Logger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Count returns the number of buffered entries at the given level
func (l *Logger) Count(level Level) int {
	name := level.String()
	n := 0
	for _, e := range l.entries {
		if e.Level == name {
			n++
		}
	}
	return n
}

// Summary builds the persisted run summary
func (l *Logger) Summary(end time.Time, stats any) Summary {
	return Summary{
		RunID:        l.runID,
		StartTime:    l.started,
		EndTime:      end,
		DurationMs:   end.Sub(l.started).Milliseconds(),
		TotalEntries: len(l.entries),
		ErrorCount:   l.Count(ErrorLevel),
		WarningCount: l.Count(WarnLevel),
		Stats:        stats,
		Entries:      l.Entries(),
	}
}

// Flush writes the run summary as JSON to path, creating parent directories.
func (l *Logger) Flush(path string, stats any) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(l.Summary(l.now(), stats), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode log summary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write log summary: %w", err)
	}
	return nil
}

// Field represents a structured field in a log entry
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Any creates a field holding an arbitrary value
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}
