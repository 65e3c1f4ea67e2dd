// Package logger is the printf-style logging interface neoprene's packages
// write through, backed by logrus on stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// DebugEnv enables debug output when set to any non-empty value.
const DebugEnv = "NEOPRENE_DEBUG"

// Logger takes fmt.Printf-style messages at four levels.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// base is the shared logrus instance every envLogger writes through.
var base = newBase(os.Stderr)

// verbose forces debug output regardless of the environment (--verbose).
var verbose atomic.Bool

func newBase(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
	return l
}

// SetOutput redirects all environment loggers to w.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// SetVerbose turns debug output on or off for all environment loggers.
func SetVerbose(v bool) {
	verbose.Store(v)
}

func debugEnabled() bool {
	return verbose.Load() || os.Getenv(DebugEnv) != ""
}

// envLogger writes through the shared logrus instance. Debug lines are
// dropped unless NEOPRENE_DEBUG is set or verbose is on.
type envLogger struct {
	prefix string
	entry  *logrus.Entry
}

// NewEnvLogger returns a Logger tagging each line with prefix, such as
// "[drush]" or "[mysql]".
func NewEnvLogger(prefix string) Logger {
	return &envLogger{prefix: prefix, entry: logrus.NewEntry(base)}
}

func (l *envLogger) line(format string, args []any) string {
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		msg = l.prefix + " " + msg
	}
	return msg
}

func (l *envLogger) Debug(format string, args ...any) {
	if debugEnabled() {
		l.entry.Debug(l.line(format, args))
	}
}

func (l *envLogger) Info(format string, args ...any)  { l.entry.Info(l.line(format, args)) }
func (l *envLogger) Warn(format string, args ...any)  { l.entry.Warn(l.line(format, args)) }
func (l *envLogger) Error(format string, args ...any) { l.entry.Error(l.line(format, args)) }

type noopLogger struct{}

// Noop discards everything.
func Noop() Logger { return noopLogger{} }

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// OrNoop returns l, or Noop when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return Noop()
	}
	return l
}

// LogMessage is one line captured by a BufferLogger.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger records messages in memory for tests to assert on.
type BufferLogger struct {
	Messages []LogMessage
}

func NewBufferLogger() *BufferLogger {
	return &BufferLogger{}
}

func (l *BufferLogger) record(level, format string, args []any) {
	l.Messages = append(l.Messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...any) { l.record("debug", format, args) }
func (l *BufferLogger) Info(format string, args ...any)  { l.record("info", format, args) }
func (l *BufferLogger) Warn(format string, args ...any)  { l.record("warn", format, args) }
func (l *BufferLogger) Error(format string, args ...any) { l.record("error", format, args) }

// HasLevel reports whether anything was logged at level.
func (l *BufferLogger) HasLevel(level string) bool {
	for _, m := range l.Messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Clear forgets every captured message.
func (l *BufferLogger) Clear() {
	l.Messages = nil
}
