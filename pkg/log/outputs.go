package log

import (
	"io"
	"os"
	"sync"
)

// ConsoleOutput writes log entries to the console (stdout/stderr).
type ConsoleOutput struct {
	mu            sync.Mutex
	errorToStderr bool
	writer        io.Writer
	errorWriter   io.Writer
}

// Write writes the log entry to the console.
func (o *ConsoleOutput) Write(entry *Entry, formattedEntry []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	writer := o.writer
	if writer == nil {
		writer = os.Stdout
	}

	if entry.Level == ErrorLevel && o.errorToStderr {
		writer = o.errorWriter
		if writer == nil {
			writer = os.Stderr
		}
	}

	_, err := writer.Write(formattedEntry)
	return err
}

// ConsoleOutputOption is a function that configures a ConsoleOutput.
type ConsoleOutputOption func(*ConsoleOutput)

// WithErrorToStderr sends error logs to stderr.
func WithErrorToStderr() ConsoleOutputOption {
	return func(o *ConsoleOutput) {
		o.errorToStderr = true
	}
}

// WithCustomWriter configures the ConsoleOutput to use a custom writer.
func WithCustomWriter(writer io.Writer) ConsoleOutputOption {
	return func(o *ConsoleOutput) {
		o.writer = writer
	}
}

// WithCustomErrorWriter configures the ConsoleOutput to use a custom error writer.
func WithCustomErrorWriter(writer io.Writer) ConsoleOutputOption {
	return func(o *ConsoleOutput) {
		o.errorWriter = writer
	}
}

// NewConsoleOutput creates a new ConsoleOutput with the given options.
func NewConsoleOutput(options ...ConsoleOutputOption) *ConsoleOutput {
	o := &ConsoleOutput{}
	for _, option := range options {
		option(o)
	}
	return o
}
