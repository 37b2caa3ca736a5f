/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taskhub",
	Short: "Task tracking API server",
	Long: `taskhub serves the task tracking REST API and its maintenance commands.

	taskhub server
	taskhub migrate up
	taskhub notify
	taskhub token inspect <token>
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
