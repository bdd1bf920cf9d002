package main

import (
	"os"

	"github.com/jmgilman/go/gitsource/cmd/gitsource/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
