// Package main is the entry point for the stevedore CLI.
package main

import (
	"os"

	"github.com/thoreinstein/stevedore/cmd/stevedore/commands"
)

func main() {
	os.Exit(commands.Execute())
}
