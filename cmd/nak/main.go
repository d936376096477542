package main

import (
	"github.com/rzbill/nak/pkg/cli/cmd"
)

func main() {
	cmd.Execute()
}
