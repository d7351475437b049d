package cmd

import (
	"github.com/spf13/cobra"

	"sharkpipe/internal/config"
)

var batchProfile config.Profile
var batchConfigFile string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run tshark to completion without decoding packets",
	Long: `Run tshark to completion, typically to filter or convert a capture
into an output file, without decoding individual packets.

Examples:
  sharkpipe batch -r in.pcap -w out.pcap -Y "udp.port == 53"`,
	Run: func(cmd *cobra.Command, args []string) {
		profile := &batchProfile
		if batchConfigFile != "" {
			loaded, err := config.Load(batchConfigFile)
			if err != nil {
				exitWithError("loading profile", err)
			}
			profile = loaded
		}
		if err := profile.Validate(); err != nil {
			exitWithError("invalid profile", err)
		}
		if err := profile.Builder().Batch(); err != nil {
			exitWithError("running tshark", err)
		}
	},
}

func init() {
	flags := batchCmd.Flags()
	flags.StringSliceVarP(&batchProfile.Input, "input", "r", nil,
		"input capture file")
	flags.StringVarP(&batchProfile.DisplayFilter, "display-filter", "Y", "",
		"display filter applied before writing")
	flags.StringVarP(&batchProfile.OutputPath, "output", "w", "",
		"capture file to write")
	flags.StringVar(&batchProfile.EnvPath, "env-path", "",
		"PATH override used to locate the tshark executable")
	flags.StringVarP(&batchConfigFile, "config", "c", "",
		"capture profile file")
	rootCmd.AddCommand(batchCmd)
}
