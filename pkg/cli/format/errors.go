package format

import (
	"fmt"
	"io"
)

// FailureMessage renders a command failure with an optional hint line.
func FailureMessage(err error, hint string) string {
	msg := fmt.Sprintf("%s %s", StatusSymbol(false), Error("%s", err.Error()))
	if hint != "" {
		msg += "\n  " + HintColor.Sprint(hint)
	}
	return msg
}

// PrintFailure writes FailureMessage to w.
func PrintFailure(w io.Writer, err error, hint string) {
	fmt.Fprintln(w, FailureMessage(err, hint))
}
