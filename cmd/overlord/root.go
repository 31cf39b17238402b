package main

import (
	"fmt"
	"os"

	"github.com/aretw0/overlord"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "overlord [commands-file]",
	Short: "Overlord keeps a set of shell commands running",
	Long: `Overlord runs every command of a list with /bin/sh -c, restarts each one
whenever it exits and merges their standard output line by line.

Commands are read from the given file, from the settings file, or from stdin.
SIGINT or SIGTERM asks the children to terminate; a second one, or SIGQUIT,
kills them.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and exits with the code matching the returned error.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "overlord: %v\n", err)
	}
	os.Exit(overlord.ExitCode(err))
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Settings file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: auto, text, json")
}
