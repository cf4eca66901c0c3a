package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowmesh/runtime/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print flowrun's build version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), version.GetShortVersion())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
