// Package cmd contains the lockctl console commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var url string

func init() {
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the brain.")
}

var rootCmd = &cobra.Command{
	Use:           "lockctl",
	Short:         "Operator console for the lockbox brain",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the console.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "FAILED:", err)
		os.Exit(1)
	}
}
