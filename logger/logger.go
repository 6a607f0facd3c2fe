// file: logger/logger.go

package logger

import (
	"io"
	"os"
	"strings"

	"go-bank-withdrawal/config"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide structured logger. Init must run before first use.
var Log = logrus.New()

// Init configures Log from config.AppConfig.Logging. It is safe to call before
// the configuration is loaded, in which case JSON output at info level on stderr is used.
func Init() {
	cfg := config.AppConfig.Logging

	Log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			Log.WithError(err).WithField("file", cfg.File).Warn("Could not open log file, logging to stderr only")
		} else {
			out = io.MultiWriter(os.Stderr, f)
		}
	}
	Log.SetOutput(out)
}
