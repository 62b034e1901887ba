// ABOUTME: Structured logger construction and adapters
// ABOUTME: Logs go to stderr so stdout stays free for command output and MCP stdio

package logging

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the named level ("debug", "info",
// "warn", "error"). An unknown or empty level means info.
func New(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "location",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// Time logs the duration of an operation when the returned func runs.
// Pass the address of the named error result so failures are logged too:
//
//	defer logging.Time(logger, "influx.write")(&err)
func Time(l *log.Logger, op string) func(errp *error) {
	start := time.Now()
	return func(errp *error) {
		dur := time.Since(start)
		if errp != nil && *errp != nil {
			l.Warn("store op failed", "op", op, "dur", dur, "err", *errp)
			return
		}
		l.Debug("store op", "op", op, "dur", dur)
	}
}

// BadgerLogger adapts a logger to badger's logging interface. Badger is
// chatty at info level, so its info messages are demoted to debug.
type BadgerLogger struct {
	l *log.Logger
}

// Badger wraps l for use as badger.Options.Logger.
func Badger(l *log.Logger) *BadgerLogger {
	return &BadgerLogger{l: OrDiscard(l).WithPrefix("badger")}
}

func (b *BadgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Errorf(strings.TrimSpace(format), args...)
}

func (b *BadgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warnf(strings.TrimSpace(format), args...)
}

func (b *BadgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debugf(strings.TrimSpace(format), args...)
}

func (b *BadgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debugf(strings.TrimSpace(format), args...)
}
