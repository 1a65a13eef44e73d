// Package log builds the process logger: go-kit key/value logs on stderr, optionally
// mirrored to a rotated JSON log file.
package log

import (
	"io"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/kolide/kit/logutil"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns the process logger. When logFilePath is set, every entry is also written as
// JSON to that file, rotated by lumberjack. The returned closer releases the file.
func New(debug bool, logFilePath string) (log.Logger, io.Closer) {
	serverLogger := logutil.NewServerLogger(debug)
	if logFilePath == "" {
		return serverLogger, nopCloser{}
	}

	lj := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28,   // days
		Compress:   true, // compress rotated files
	}

	return tee(serverLogger, newFileLogger(lj, debug)), lj
}

func newFileLogger(w io.Writer, debug bool) log.Logger {
	logger := log.NewJSONLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	if debug {
		return level.NewFilter(logger, level.AllowDebug())
	}
	return level.NewFilter(logger, level.AllowInfo())
}

type teeLogger struct {
	loggers []log.Logger
}

func tee(loggers ...log.Logger) log.Logger {
	l := &teeLogger{
		loggers: make([]log.Logger, 0, len(loggers)),
	}
	for _, logger := range loggers {
		if logger == nil {
			continue
		}
		l.loggers = append(l.loggers, logger)
	}
	return l
}

// Log will log to each logger. If any of them error, the last error is returned.
func (l *teeLogger) Log(keyvals ...interface{}) error {
	var lastErr error
	for _, logger := range l.loggers {
		if err := logger.Log(keyvals...); err != nil {
			lastErr = err
		}
	}

	return lastErr
}
