package log

// Field represents a structured log field with a key and value
type Field struct {
	Key   string
	Value interface{}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: ErrorKey, Value: nil}
	}
	return Field{Key: ErrorKey, Value: err.Error()}
}

// Str creates a string field
func Str(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Component creates a component field
func Component(value string) Field {
	return Field{Key: ComponentKey, Value: value}
}

// Env tags an entry with the active configuration environment.
func Env(value string) Field {
	return Field{Key: EnvKey, Value: value}
}
