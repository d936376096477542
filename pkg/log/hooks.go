package log

// RedactedValue replaces the value of every redacted field.
const RedactedValue = "[REDACTED]"

// RedactionHook redacts sensitive values from log entries.
type RedactionHook struct {
	fields []string
}

// Levels returns the levels this hook should be called for.
func (h *RedactionHook) Levels() []Level {
	return []Level{DebugLevel, InfoLevel, WarnLevel, ErrorLevel}
}

// Fire executes the hook's logic for a log entry.
func (h *RedactionHook) Fire(entry *Entry) error {
	for _, field := range h.fields {
		if _, ok := entry.Fields[field]; ok {
			entry.Fields[field] = RedactedValue
		}
	}
	return nil
}

// NewRedactionHook creates a new redaction hook.
func NewRedactionHook(fields []string) *RedactionHook {
	return &RedactionHook{fields: fields}
}
