// Package log provides the structured logger used across the module. It is
// a thin wrapper over zerolog with leveled formatted and key-value call
// styles, writing human-friendly console output.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// Log levels, as accepted by Init.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const logTestWriterName = "logtest"

var (
	log zerolog.Logger

	level string

	// panicOnInvalidChars is used by tests to surface log arguments that
	// carry non-printable bytes, which usually means %s was used on raw
	// binary data instead of %x.
	panicOnInvalidChars = os.Getenv("LOG_PANIC_ON_INVALIDCHARS") == "true"

	// logTestWriter sinks the output when Init is called with
	// logTestWriterName as the output target.
	logTestWriter io.Writer = io.Discard
)

func init() {
	// A sane default so packages can log before Init runs.
	Init(LogLevelInfo, "stderr", nil)
}

// Init sets the log level and output destination. Valid outputs are
// "stdout", "stderr" or a file path. If errorOutput is not nil, error
// messages are duplicated to it as well.
func Init(logLevel, output string, errorOutput io.Writer) {
	var out io.Writer
	switch output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot open log output %q: %v", output, err))
		}
		out = f
	}
	out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339Nano}
	if errorOutput != nil {
		out = zerolog.MultiLevelWriter(out, errorLevelWriter{errorOutput})
	}
	log = zerolog.New(out).With().Timestamp().Logger().Level(toZerologLevel(logLevel))
	level = logLevel
	Debugf("logger construction succeeded at level %s with output %s", logLevel, output)
}

// Level returns the current log level, as passed to Init.
func Level() string { return level }

// Logger returns the underlying zerolog logger.
func Logger() *zerolog.Logger { return &log }

func toZerologLevel(l string) zerolog.Level {
	switch strings.ToLower(l) {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type errorLevelWriter struct{ w io.Writer }

func (lw errorLevelWriter) Write(p []byte) (int, error) { return lw.w.Write(p) }

func (lw errorLevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < zerolog.ErrorLevel {
		return len(p), nil
	}
	return lw.w.Write(p)
}

func checkInvalidChars(s string) {
	if !panicOnInvalidChars {
		return
	}
	if !utf8.ValidString(s) {
		panic(fmt.Sprintf("log message with invalid chars: %q", s))
	}
}

func logf(ev *zerolog.Event, template string, args ...any) {
	msg := fmt.Sprintf(template, args...)
	checkInvalidChars(msg)
	ev.Msg(msg)
}

func logw(ev *zerolog.Event, msg string, keysAndValues ...any) {
	checkInvalidChars(msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		ev.Interface(key, keysAndValues[i+1])
	}
	ev.Msg(msg)
}

func Debugf(template string, args ...any) { logf(log.Debug(), template, args...) }
func Infof(template string, args ...any)  { logf(log.Info(), template, args...) }
func Warnf(template string, args ...any)  { logf(log.Warn(), template, args...) }
func Errorf(template string, args ...any) { logf(log.Error(), template, args...) }

func Debug(args ...any) { log.Debug().Msg(fmt.Sprint(args...)) }
func Info(args ...any)  { log.Info().Msg(fmt.Sprint(args...)) }
func Warn(args ...any)  { log.Warn().Msg(fmt.Sprint(args...)) }
func Error(args ...any) { log.Error().Msg(fmt.Sprint(args...)) }

// Fatalf logs a formatted error message and exits the process.
func Fatalf(template string, args ...any) {
	logf(log.Fatal(), template, args...)
}

func Debugw(msg string, keysAndValues ...any) { logw(log.Debug(), msg, keysAndValues...) }
func Infow(msg string, keysAndValues ...any)  { logw(log.Info(), msg, keysAndValues...) }
func Warnw(msg string, keysAndValues ...any)  { logw(log.Warn(), msg, keysAndValues...) }
func Errorw(err error, msg string) {
	log.Error().Err(err).Msg(msg)
}
