// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/medsft/internal/sft"
	"github.com/pdiddy/medsft/pkg/types"
)

var sftCmd = &cobra.Command{
	Use:   "sft",
	Short: "Convert acquired records into instruction-tuning pairs",
	Long: `SFT reads an acquisition JSON file, drops records whose trimmed title is
5 characters or fewer or whose trimmed abstract is 50 characters or fewer,
and writes instruction/input/output pairs in input order.`,
	RunE: runSFT,
}

func init() {
	sftCmd.Flags().String("input", "", "acquisition JSON file (required)")
	sftCmd.Flags().String("output", "", "training-pair JSON file to write (required)")

	for _, name := range []string{"input", "output"} {
		if err := sftCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(sftCmd)
}

func runSFT(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")

	summary, err := sft.Run(types.SFTConfig{InputPath: input, OutputPath: output})
	if err != nil {
		return err
	}

	success(cmd.OutOrStdout(), "SFT data ready: %d training pairs written to %s (%d of %d records dropped)",
		summary.Written, output, summary.Dropped(), summary.Read)
	return nil
}
