// Package logging wraps the standard logger with per-subsystem prefixes,
// matching the bracketed-prefix convention the rest of this codebase's
// teacher lineage uses ("[AUTH-ROTATION]", "[Hub]", ...).
package logging

import (
	"fmt"
	"log"
	"os"
)

// Logger is a thin, leveled wrapper around *log.Logger. Compact mode (the
// default) writes "LEVEL [component] message"; json mode writes one JSON
// object per line. Both modes keep the standard logger's UTC date/time
// prefix, so a json-mode line is that prefix followed by the object.
type Logger struct {
	component string
	json      bool
	out       *log.Logger
}

// New creates a Logger for the named component. format is "json" or "" (compact).
func New(component string, format string) *Logger {
	return &Logger{
		component: component,
		json:      format == "json",
		out:       log.New(os.Stdout, "", log.LstdFlags|log.LUTC),
	}
}

func (l *Logger) emit(level, msg string, kv ...any) {
	if l.json {
		fields := fmt.Sprintf("%q:%q", "component", l.component)
		for i := 0; i+1 < len(kv); i += 2 {
			fields += fmt.Sprintf(",%q:%q", fmt.Sprint(kv[i]), fmt.Sprint(kv[i+1]))
		}
		l.out.Printf(`{"level":%q,"msg":%q,%s}`, level, msg, fields)
		return
	}
	line := fmt.Sprintf("%s [%s] %s", level, l.component, msg)
	for i := 0; i+1 < len(kv); i += 2 {
		line += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	l.out.Println(line)
}

func (l *Logger) Info(msg string, kv ...any)  { l.emit("INFO", msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.emit("WARN", msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.emit("ERROR", msg, kv...) }

// Fatal logs at FATAL level and exits the process, mirroring config.go's
// fail-fast posture on unrecoverable startup errors.
func (l *Logger) Fatal(msg string, kv ...any) {
	l.emit("FATAL", msg, kv...)
	os.Exit(1)
}
