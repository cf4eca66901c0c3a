package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow.yaml>",
	Short: "Validate a flow definition without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadFlow(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, "flow is invalid")
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "flow is valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
