// Package logging owns the process-wide logrus logger. The TUI draws on
// stdout, so log lines go to a rotating file instead.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the global logger. It discards output until Init runs.
var Logger = newDiscard()

var once sync.Once

func newDiscard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type Options struct {
	File  string
	Level string
	// Stderr mirrors log lines to stderr; used by the headless subcommands.
	Stderr bool
}

// Init configures Logger once. Later calls are no-ops.
func Init(opts Options) error {
	var initErr error
	once.Do(func() {
		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		Logger.SetLevel(level)
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			DisableColors:   true,
		})

		if opts.File == "" {
			if opts.Stderr {
				Logger.SetOutput(os.Stderr)
			}
			return
		}
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			initErr = err
			return
		}

		var out io.Writer = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		if opts.Stderr {
			out = io.MultiWriter(out, os.Stderr)
		}
		Logger.SetOutput(out)
		Logger.WithField("file", opts.File).Debug("logger initialized")
	})
	return initErr
}

// WithComponent tags entries with the package that produced them.
func WithComponent(name string) *logrus.Entry {
	return Logger.WithField("component", name)
}
