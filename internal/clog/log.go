// Package clog sets up the leveled logger shared by every cipherlink
// package, trimmed from kryptco-kr's logging.go to a single stderr backend
// (no syslog daemon component in this build).
package clog

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/op/go-logging"
)

var stderrFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{level:.6s} %{module} ▶ %{message}%{color:reset}`,
)

var leveled logging.LeveledBackend

func init() {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, stderrFormat)
	leveled = logging.AddModuleLevel(formatted)
	leveled.SetLevel(defaultLevel(), "")
	logging.SetBackend(leveled)
}

func defaultLevel() logging.Level {
	switch os.Getenv("CIPHERLINK_LOG_LEVEL") {
	case "CRITICAL":
		return logging.CRITICAL
	case "ERROR":
		return logging.ERROR
	case "WARNING":
		return logging.WARNING
	case "DEBUG":
		return logging.DEBUG
	case "INFO":
		return logging.INFO
	default:
		return logging.NOTICE
	}
}

// Logger is a module-scoped logger. It embeds *logging.Logger so every
// go-logging method (Errorf, Warningf, Noticef, ...) is available directly,
// and adds Guard, cipherlink's own goroutine-panic-recovery helper.
type Logger struct {
	*logging.Logger
}

// MustGetLogger returns a module-scoped logger, e.g. for use as a
// package-level `var log = clog.MustGetLogger("certificate")`.
func MustGetLogger(module string) *Logger {
	return &Logger{logging.MustGetLogger(module)}
}

// Guard runs f and, if it panics, logs the panic value and stack trace
// through l instead of letting it crash the process. Used to supervise the
// protocol package's reader goroutine, which otherwise runs unobserved.
func (l *Logger) Guard(f func()) {
	defer func() {
		if x := recover(); x != nil {
			l.Error(fmt.Sprintf("run time panic: %v", x))
			l.Error(string(debug.Stack()))
		}
	}()
	f()
}
