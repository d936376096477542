package config

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports missing required fields or missing project
// configuration. It is the only error the store produces itself.
type ConfigurationError struct {
	Env     string
	Missing []Field
	Reason  string
}

func (e *ConfigurationError) Error() string {
	var msg string
	if len(e.Missing) > 0 {
		flags := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			flags[i] = f.Flag()
		}
		verb := "are"
		if len(e.Missing) == 1 {
			verb = "is"
		}
		msg = fmt.Sprintf("argument %s %s required.", strings.Join(flags, ", "), verb)
	} else {
		msg = e.Reason
	}

	if e.Env == "" {
		return msg
	}
	return fmt.Sprintf("[%s] %s", e.Env, msg)
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
