package logger

import (
	"fmt"
	"io"
	"log"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// FromVerbosity maps the -v count to a threshold. The base level is WARN,
// each -v lowers it by one step.
func FromVerbosity(verbose int) Level {
	switch {
	case verbose <= 0:
		return LevelWarn
	case verbose == 1:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// Logger writes timestamped, leveled lines to a single sink. It is passed
// around as an explicit handle so components stay testable in isolation.
type Logger struct {
	out   *log.Logger
	level Level
}

func New(w io.Writer, level Level) *Logger {
	return &Logger{
		out:   log.New(w, "", 0),
		level: level,
	}
}

func (l *Logger) log(lvl Level, prefix string, format string, v ...interface{}) {
	if lvl < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, v...)
	l.out.Printf("[%s] %s - %s", timestamp, prefix, msg)
}

func (l *Logger) Debug(f string, v ...any) { l.log(LevelDebug, "DEBUG", f, v...) }
func (l *Logger) Info(f string, v ...any)  { l.log(LevelInfo, "INFO", f, v...) }
func (l *Logger) Warn(f string, v ...any)  { l.log(LevelWarn, "WARNING", f, v...) }
func (l *Logger) Error(f string, v ...any) { l.log(LevelError, "ERROR", f, v...) }
