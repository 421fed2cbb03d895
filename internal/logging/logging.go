package logging

import (
	"io"
	"log"
)

// Provides the severity logger shared by all snapkeep packages.

type Logger interface {
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// StreamLogger splits output the way the CLI expects: warnings, info and
// debug go to one stream, errors to another. Verbosity 0 passes warnings
// only, 1 adds info, 2 adds debug. Errors always pass.
type StreamLogger struct {
	verbosity int
	out       *log.Logger
	err       *log.Logger
}

func NewStreamLogger(out, errOut io.Writer, verbosity int) *StreamLogger {
	return &StreamLogger{
		verbosity: verbosity,
		out:       log.New(out, "", log.LstdFlags),
		err:       log.New(errOut, "", log.LstdFlags),
	}
}

func (l *StreamLogger) Warn(msg string, args ...any) { l.out.Printf("WARNING: "+msg, args...) }

func (l *StreamLogger) Info(msg string, args ...any) {
	if l.verbosity >= 1 {
		l.out.Printf("INFO: "+msg, args...)
	}
}

func (l *StreamLogger) Debug(msg string, args ...any) {
	if l.verbosity >= 2 {
		l.out.Printf("DEBUG: "+msg, args...)
	}
}

func (l *StreamLogger) Error(msg string, args ...any) { l.err.Printf("ERROR: "+msg, args...) }

// Discard drops every message.
var Discard Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
