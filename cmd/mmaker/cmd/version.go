package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the mmaker CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mmaker version %s\n", version)
		fmt.Fprintln(cmd.OutOrStdout(), "A simulated crypto market maker")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
