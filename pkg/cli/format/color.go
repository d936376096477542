// Package format renders user-facing terminal messages.
package format

import (
	"os"

	"github.com/fatih/color"
)

var (
	SuccessColor = color.New(color.FgGreen)
	ErrorColor   = color.New(color.FgRed, color.Bold)
	HintColor    = color.New(color.FgYellow, color.Italic)
)

func init() {
	if _, noColor := os.LookupEnv("NAK_NO_COLOR"); noColor {
		color.NoColor = true
	}
}

// EnableColor enables or disables colored output globally
func EnableColor(enable bool) {
	color.NoColor = !enable
}

// IsColorEnabled returns whether colored output is enabled
func IsColorEnabled() bool {
	return !color.NoColor
}

// Error formats a message as an error (bold red)
func Error(format string, a ...interface{}) string {
	return ErrorColor.Sprintf(format, a...)
}

// StatusSymbol returns a colorized status symbol
func StatusSymbol(success bool) string {
	if success {
		return SuccessColor.Sprint("✓")
	}
	return ErrorColor.Sprint("✗")
}
