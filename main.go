package main

import (
	"github.com/vlados/unique-urls/cmd"

	// Subcommands register themselves on the root command via init().
	_ "github.com/vlados/unique-urls/cmd/cli"
	_ "github.com/vlados/unique-urls/cmd/server"
)

func main() {
	cmd.Execute()
}
