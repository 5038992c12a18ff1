package telemetry

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout, false)
)

// Init configures the process logger. Dev-like environments get a console
// writer; everything else emits one JSON object per line.
func Init(env string) {
	pretty := env == "dev" || env == "local"
	SetOutput(os.Stdout, pretty)
}

// SetOutput redirects log output. Tests use it to capture lines.
func SetOutput(w io.Writer, pretty bool) {
	l := newLogger(w, pretty)
	mu.Lock()
	logger = l
	mu.Unlock()
}

func newLogger(w io.Writer, pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.DurationFieldInteger = true
	out := w
	if pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05 MST"}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	write(zerolog.InfoLevel, msg, fields)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	write(zerolog.WarnLevel, msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	write(zerolog.ErrorLevel, msg, fields)
}

func write(level zerolog.Level, msg string, fields map[string]any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	evt := l.WithLevel(level)
	for k, v := range fields {
		if err, ok := v.(error); ok {
			evt = evt.AnErr(k, err)
			continue
		}
		evt = evt.Interface(k, v)
	}
	evt.Msg(msg)
}
