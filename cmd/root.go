package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/vlados/unique-urls/internal/config"
)

// Cfg is the global variable that will contain the loaded configuration.
// It is accessible to all Cobra commands throughout the application.
var Cfg *config.Config

// RootCmd is the base command for the CLI application.
// All other commands (run-server, generate, rebuild, doctor, migrate) are
// added as subcommands.
var RootCmd = &cobra.Command{
	Use:   "unique-urls",
	Short: "Unique, human-readable URL slugs with redirect preservation",
	Long: `unique-urls generates collision-free URL slugs for records across all
configured languages, preserves old slugs as redirects when they change,
and dispatches inbound requests to the handler stored with each URL.`,
}

// Execute is the main entry point for the Cobra application.
// It is called from main.go and handles command execution and error handling.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Load the configuration before any command executes. Subcommands
	// register themselves via their own init() functions, which keeps the
	// root package free of import cycles.
	cobra.OnInitialize(initConfig)
}

// initConfig loads the application configuration.
// This function is called at the beginning of every Cobra command execution
// thanks to cobra.OnInitialize set up above.
func initConfig() {
	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Problem loading configuration: %v. Using default values.", err)
	}
}
