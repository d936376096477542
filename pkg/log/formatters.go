package log

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

// DefaultTimestampFormat matches the second-resolution stamps printed by the CLI.
const DefaultTimestampFormat = "2006-01-02 15:04:05"

// JSONFormatter formats log entries as JSON.
type JSONFormatter struct {
	TimestampFormat string
}

// Format formats the entry as JSON.
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+3)

	timestampFormat := time.RFC3339
	if f.TimestampFormat != "" {
		timestampFormat = f.TimestampFormat
	}

	for k, v := range entry.Fields {
		data[k] = v
	}
	// standard keys win over fields
	data["timestamp"] = entry.Timestamp.Format(timestampFormat)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message

	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// TextFormatter formats log entries as human-readable text:
//
//	2024-01-02 15:04:05 INFO [development] Build successfully. file=app.zip
type TextFormatter struct {
	TimestampFormat  string
	DisableColors    bool
	DisableTimestamp bool
}

// NewTextFormatter creates a new TextFormatter with sensible defaults.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{TimestampFormat: DefaultTimestampFormat}
}

var (
	debugColor = color.New(color.FgBlue)
	infoColor  = color.New(color.FgCyan)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
	keyColor   = color.New(color.FgHiBlack)
)

// Format formats the entry as text.
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var b strings.Builder

	if !f.DisableTimestamp {
		timestampFormat := DefaultTimestampFormat
		if f.TimestampFormat != "" {
			timestampFormat = f.TimestampFormat
		}
		b.WriteString(entry.Timestamp.Format(timestampFormat))
		b.WriteByte(' ')
	}

	b.WriteString(f.level(entry.Level))
	b.WriteByte(' ')

	if env, ok := entry.Fields[EnvKey]; ok && env != "" {
		fmt.Fprintf(&b, "[%v] ", env)
	}
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		if k == EnvKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key := k
		if !f.DisableColors {
			key = keyColor.Sprint(k)
		}
		fmt.Fprintf(&b, " %s=%v", key, entry.Fields[k])
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func (f *TextFormatter) level(level Level) string {
	name := level.String()
	if f.DisableColors {
		return name
	}
	switch level {
	case DebugLevel:
		return debugColor.Sprint(name)
	case InfoLevel:
		return infoColor.Sprint(name)
	case WarnLevel:
		return warnColor.Sprint(name)
	case ErrorLevel:
		return errorColor.Sprint(name)
	default:
		return name
	}
}
