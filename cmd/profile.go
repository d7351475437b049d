package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sharkpipe/internal/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Show the effective capture profile",
	Long: `Load a capture profile, apply defaults and SHARKPIPE_* environment
overrides, validate it and print the result as YAML. Useful to check what a
capture run would actually use.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		profile, err := config.Load(args[0])
		if err != nil {
			exitWithError("loading profile", err)
		}
		if err := profile.Validate(); err != nil {
			exitWithError("invalid profile", err)
		}
		if err := yaml.NewEncoder(os.Stdout).Encode(profile); err != nil {
			exitWithError("rendering profile", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
}
