package main

import (
	"fmt"

	"github.com/aretw0/roguepath"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of roguepath",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "roguepath version %s\n", roguepath.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
