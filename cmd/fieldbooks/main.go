package main

import (
	"os"

	"github.com/fieldbooks-dev/fieldbooks/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
