package logger

import (
	"io"
	"log"
	"os"
	"sync/atomic"
)

// Logger defines the TDB logging contract.
// Implementations should support standard log levels and be safe for concurrent use.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// StdLogger wraps Go's standard logger to implement the TDB logging contract.
// Debug lines are dropped unless verbose output is enabled.
type StdLogger struct {
	logger  *log.Logger
	verbose atomic.Bool
}

// NewStdLogger creates a new StdLogger writing to stderr.
func NewStdLogger() *StdLogger {
	return NewWriterLogger(os.Stderr, log.LstdFlags)
}

// NewWriterLogger creates a StdLogger writing to w with the given log flags.
func NewWriterLogger(w io.Writer, flags int) *StdLogger {
	return &StdLogger{
		logger: log.New(w, "", flags),
	}
}

// SetVerbose turns Debug output on or off.
func (l *StdLogger) SetVerbose(on bool) {
	l.verbose.Store(on)
}

func (l *StdLogger) Info(msg string, args ...any) {
	l.logger.Printf("[INFO] "+msg, args...)
}

func (l *StdLogger) Warn(msg string, args ...any) {
	l.logger.Printf("[WARN] "+msg, args...)
}

func (l *StdLogger) Error(msg string, args ...any) {
	l.logger.Printf("[ERROR] "+msg, args...)
}

func (l *StdLogger) Debug(msg string, args ...any) {
	if !l.verbose.Load() {
		return
	}
	l.logger.Printf("[DEBUG] "+msg, args...)
}

type nop struct{}

func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}
func (nop) Debug(string, ...any) {}

// Nop discards everything.
var Nop Logger = nop{}

// Std is the StdLogger behind Default.
var Std = NewStdLogger()

// Default provides a global default logger instance using Go's standard logger.
var Default Logger = Std
