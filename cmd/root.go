// Package cmd implements the sharkpipe CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sharkpipe/internal/log"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "sharkpipe",
	Short: "Stream decoded packets out of tshark",
	Long: `sharkpipe drives a tshark process and decodes its PDML report into a
stream of packets, one JSON object per line. It works on capture files,
network interfaces and named pipes, for both finite and endless captures.

tshark (part of the Wireshark distribution) must be installed.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			return nil
		}
		return log.Init(&log.Config{Level: logLevel})
	},
}

// Execute runs the CLI. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (trace, debug, info, warn, error)")
}

// exitWithError prints the error and exits with code 1.
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
