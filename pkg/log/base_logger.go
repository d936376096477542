package log

import (
	"fmt"
	"os"
	"time"
)

// BaseLogger implements the Logger interface.
type BaseLogger struct {
	level     Level
	fields    Fields
	formatter Formatter
	outputs   []Output
	hooks     []Hook
	now       func() time.Time
}

// Debug logs a message at the debug level with fields.
func (l *BaseLogger) Debug(msg string, fields ...Field) {
	if l.level <= DebugLevel {
		l.logWithFields(DebugLevel, msg, fields)
	}
}

// Info logs a message at the info level with fields.
func (l *BaseLogger) Info(msg string, fields ...Field) {
	if l.level <= InfoLevel {
		l.logWithFields(InfoLevel, msg, fields)
	}
}

// Warn logs a message at the warn level with fields.
func (l *BaseLogger) Warn(msg string, fields ...Field) {
	if l.level <= WarnLevel {
		l.logWithFields(WarnLevel, msg, fields)
	}
}

// Error logs a message at the error level with fields.
func (l *BaseLogger) Error(msg string, fields ...Field) {
	if l.level <= ErrorLevel {
		l.logWithFields(ErrorLevel, msg, fields)
	}
}

// Debugf logs a formatted message at the debug level.
func (l *BaseLogger) Debugf(format string, args ...interface{}) {
	if l.level <= DebugLevel {
		l.logWithFields(DebugLevel, fmt.Sprintf(format, args...), nil)
	}
}

// Infof logs a formatted message at the info level.
func (l *BaseLogger) Infof(format string, args ...interface{}) {
	if l.level <= InfoLevel {
		l.logWithFields(InfoLevel, fmt.Sprintf(format, args...), nil)
	}
}

// Warnf logs a formatted message at the warn level.
func (l *BaseLogger) Warnf(format string, args ...interface{}) {
	if l.level <= WarnLevel {
		l.logWithFields(WarnLevel, fmt.Sprintf(format, args...), nil)
	}
}

// Errorf logs a formatted message at the error level.
func (l *BaseLogger) Errorf(format string, args ...interface{}) {
	if l.level <= ErrorLevel {
		l.logWithFields(ErrorLevel, fmt.Sprintf(format, args...), nil)
	}
}

// With adds fields to a copy of the logger.
func (l *BaseLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}

	newLogger := l.clone()
	for _, field := range fields {
		newLogger.fields[field.Key] = field.Value
	}
	return newLogger
}

// WithError returns a new logger with the error added as a field.
func (l *BaseLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.With(Err(err))
}

// WithComponent returns a new logger with the component field added.
func (l *BaseLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

// SetLevel sets the minimum log level.
func (l *BaseLogger) SetLevel(level Level) {
	l.level = level
}

// GetLevel returns the current minimum log level.
func (l *BaseLogger) GetLevel() Level {
	return l.level
}

func (l *BaseLogger) clone() *BaseLogger {
	newLogger := &BaseLogger{
		level:     l.level,
		formatter: l.formatter,
		outputs:   l.outputs,
		hooks:     l.hooks,
		now:       l.now,
		fields:    make(Fields, len(l.fields)),
	}
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

// logWithFields merges the logger's fields with the call's fields and writes
// the entry to all outputs.
func (l *BaseLogger) logWithFields(level Level, msg string, fields []Field) {
	entryFields := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		entryFields[k] = v
	}
	for _, field := range fields {
		entryFields[field.Key] = field.Value
	}

	entry := &Entry{
		Level:     level,
		Message:   msg,
		Fields:    entryFields,
		Timestamp: l.now(),
	}

	for _, hook := range l.hooks {
		for _, hookLevel := range hook.Levels() {
			if hookLevel == level {
				if err := hook.Fire(entry); err != nil {
					fmt.Fprintf(os.Stderr, "Error firing hook: %v\n", err)
				}
				break
			}
		}
	}

	formattedEntry, err := l.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting log entry: %v\n", err)
		return
	}

	for _, output := range l.outputs {
		if err := output.Write(entry, formattedEntry); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing to log output: %v\n", err)
		}
	}
}
