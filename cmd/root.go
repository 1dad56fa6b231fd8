package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skypeconnector",
	Short: "Bridge Skype conversations to a conversational backend",
	Long:  "Translates Skype Bot Framework activities into backend requests and renders backend answers as Skype messages.",
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
