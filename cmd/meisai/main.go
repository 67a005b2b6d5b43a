package main

import (
	"os"

	"github.com/meisai-dev/meisai/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
