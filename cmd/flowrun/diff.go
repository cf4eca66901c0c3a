package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowmesh/runtime/flowspec"
)

var diffCmd = &cobra.Command{
	Use:   "diff <old.yaml> <new.yaml>",
	Short: "Print the structural differences between two flow definitions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldFlow, err := loadFlow(args[0])
		if err != nil {
			return err
		}
		newFlow, err := loadFlow(args[1])
		if err != nil {
			return err
		}

		changes := flowspec.Diff(oldFlow, newFlow)
		if len(changes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no differences")
			return nil
		}
		for _, c := range changes {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <flow.yaml>",
	Short: "Print a stable content hash for a flow definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := loadFlow(args[0])
		if err != nil {
			return err
		}
		sum, err := flowspec.Fingerprint(flow)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sum)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(fingerprintCmd)
}
