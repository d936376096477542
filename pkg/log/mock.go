package log

import (
	"fmt"
	"strings"
	"sync"
)

// TestEntry represents a captured log entry for testing
type TestEntry struct {
	Level   Level
	Message string
	Fields  Fields
}

type testRecorder struct {
	mu      sync.Mutex
	entries []TestEntry
}

// TestLogger is a Logger implementation for testing that captures logs
// without producing output. Loggers derived with With share the same capture.
type TestLogger struct {
	rec    *testRecorder
	fields Fields
	level  Level
}

// NewTestLogger creates a new TestLogger for use in unit tests
func NewTestLogger() *TestLogger {
	return &TestLogger{
		rec:    &testRecorder{},
		fields: Fields{},
		level:  DebugLevel,
	}
}

// GetEntries returns all captured log entries
func (l *TestLogger) GetEntries() []TestEntry {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()

	result := make([]TestEntry, len(l.rec.entries))
	copy(result, l.rec.entries)
	return result
}

// ClearEntries clears all captured log entries
func (l *TestLogger) ClearEntries() {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()
	l.rec.entries = nil
}

func (l *TestLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *TestLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *TestLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *TestLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

func (l *TestLogger) Debugf(format string, args ...interface{}) {
	l.log(DebugLevel, fmt.Sprintf(format, args...), nil)
}

func (l *TestLogger) Infof(format string, args ...interface{}) {
	l.log(InfoLevel, fmt.Sprintf(format, args...), nil)
}

func (l *TestLogger) Warnf(format string, args ...interface{}) {
	l.log(WarnLevel, fmt.Sprintf(format, args...), nil)
}

func (l *TestLogger) Errorf(format string, args ...interface{}) {
	l.log(ErrorLevel, fmt.Sprintf(format, args...), nil)
}

func (l *TestLogger) log(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}
	entryFields := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		entryFields[k] = v
	}
	for _, f := range fields {
		entryFields[f.Key] = f.Value
	}

	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()
	l.rec.entries = append(l.rec.entries, TestEntry{Level: level, Message: msg, Fields: entryFields})
}

// With returns a child logger that records into the same capture.
func (l *TestLogger) With(fields ...Field) Logger {
	child := &TestLogger{rec: l.rec, level: l.level, fields: make(Fields, len(l.fields)+len(fields))}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for _, f := range fields {
		child.fields[f.Key] = f.Value
	}
	return child
}

func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.With(Err(err))
}

func (l *TestLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

func (l *TestLogger) SetLevel(level Level) { l.level = level }
func (l *TestLogger) GetLevel() Level      { return l.level }

// CountMessages returns how many captured entries contain the message.
func (l *TestLogger) CountMessages(containsMessage string) int {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()

	n := 0
	for _, entry := range l.rec.entries {
		if strings.Contains(entry.Message, containsMessage) {
			n++
		}
	}
	return n
}

// AssertLogged returns true if a log entry with the given level and message was captured
func (l *TestLogger) AssertLogged(level Level, containsMessage string) bool {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()

	for _, entry := range l.rec.entries {
		if entry.Level == level && strings.Contains(entry.Message, containsMessage) {
			return true
		}
	}
	return false
}

// AssertLoggedWithField returns true if a log entry with the given level, message,
// and field key/value was captured
func (l *TestLogger) AssertLoggedWithField(level Level, containsMessage string, key string, value interface{}) bool {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()

	for _, entry := range l.rec.entries {
		if entry.Level != level || !strings.Contains(entry.Message, containsMessage) {
			continue
		}
		if v, ok := entry.Fields[key]; ok && fmt.Sprintf("%v", v) == fmt.Sprintf("%v", value) {
			return true
		}
	}
	return false
}
