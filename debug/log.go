// Package debug is the category logger used across the module. It is silent
// until Enable is called, so the tick loop pays almost nothing for it.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	mu      sync.Mutex
	logger  *logrus.Logger
	closer  io.Closer
	enabled bool
)

// Path returns the default log location, ~/.config/go-hemisphere/debug.log
func Path() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "resolve home directory")
	}
	return filepath.Join(home, ".config", "go-hemisphere", "debug.log"), nil
}

// Enable starts debug logging to the default path
func Enable() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return EnableFile(path)
}

// EnableFile starts debug logging to path, truncating it
func EnableFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	EnableWriter(f)
	Log("debug", "logging to %s", path)
	return nil
}

// EnableWriter starts debug logging to w. A writer that is also an
// io.Closer is closed by Disable.
func EnableWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		closer.Close()
		closer = nil
	}
	if c, ok := w.(io.Closer); ok {
		closer = c
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	logger = l
	enabled = true
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		closer.Close()
		closer = nil
	}
	logger = nil
	enabled = false
}

// Enabled reports whether logging is on
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Log writes a message under a category
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled {
		return
	}
	logger.WithField("cat", category).Debugf(format, args...)
}

// Warn writes a message under a category at warning level
func Warn(category string, err error, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled {
		return
	}
	logger.WithField("cat", category).WithError(err).Warn(fmt.Sprintf(format, args...))
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
