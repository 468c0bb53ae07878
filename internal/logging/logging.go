// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

// Package logging provides the structured logger used throughout nodeadmin.
// It wraps charmbracelet/log so call sites never depend on the concrete
// logging library directly.
package logging // import "github.com/scmadmin/nodeadmin/internal/logging"

import (
	"fmt"
	"io"
	"os"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger. Replace it (e.g. in main) to change
// output destination, level, or formatting before any other package logs.
var L = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
	TimeFormat:      "2006-01-02T15:04:05Z07:00",
})

// SetLevel adjusts the minimum level L emits.
func SetLevel(level clog.Level) {
	L.SetLevel(level)
}

// SetOutput redirects L's output, primarily for tests that want to assert
// on log content.
func SetOutput(w io.Writer) {
	L.SetOutput(w)
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, v ...interface{}) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof logs a formatted message at info level.
func Infof(format string, v ...interface{}) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a formatted message at warn level.
func Warnf(format string, v ...interface{}) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs a formatted message at error level.
func Errorf(format string, v ...interface{}) {
	L.Error(fmt.Sprintf(format, v...))
}

// With returns a child logger carrying the given key/value pairs, useful
// for attaching a datanode ID or command name to a run of related log lines.
func With(keyvals ...interface{}) *clog.Logger {
	return L.With(keyvals...)
}
