package main

import (
	"os"

	"github.com/synod-io/synod/cmd/synod/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
