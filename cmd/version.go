package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sharkpipe/pkg/tshark"
)

var tsharkVersionCmd = &cobra.Command{
	Use:   "tshark-version",
	Short: "Show the version of the installed tshark executable",
	Run: func(cmd *cobra.Command, args []string) {
		info, err := tshark.Version()
		if err != nil {
			exitWithError("probing tshark", err)
		}
		fmt.Printf("tshark %s\n\n%s", info.Version(), info.Message())
	},
}

func init() {
	rootCmd.AddCommand(tsharkVersionCmd)
}
