package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakshell/oak/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the oak version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "oak", version.Short())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
