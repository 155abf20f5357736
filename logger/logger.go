// Package logger holds the process logger shared by the engine packages.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var DefaultLogger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "2006-01-02 15:04:05",
	Prefix:          "suvo",
	Level:           log.WarnLevel,
})

var (
	mu         sync.Mutex
	components []*log.Logger
)

// Init applies the configured level. Unknown levels fall back to warn.
func Init(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.WarnLevel
	}
	each(func(l *log.Logger) {
		l.SetLevel(lvl)
		l.SetReportCaller(lvl == log.DebugLevel)
	})
}

// Silence discards all log output. Used by tests and by the replay mode.
func Silence() {
	SetOutput(io.Discard)
}

// SetOutput redirects every logger handed out by this package.
func SetOutput(w io.Writer) {
	each(func(l *log.Logger) {
		l.SetOutput(w)
	})
}

// Component returns a child logger tagged with the component name. Child
// loggers copy their settings, so they are tracked and updated by Init and
// SetOutput.
func Component(name string) *log.Logger {
	l := DefaultLogger.With("component", name)
	mu.Lock()
	components = append(components, l)
	mu.Unlock()
	return l
}

func each(fn func(*log.Logger)) {
	mu.Lock()
	defer mu.Unlock()
	fn(DefaultLogger)
	for _, l := range components {
		fn(l)
	}
}
