// Package main is the entry point for the arena CLI.
package main

import (
	"os"

	"github.com/skillsarena/arena/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
