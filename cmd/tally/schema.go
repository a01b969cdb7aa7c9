package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unbound-force/tally/internal/report"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for the metrics report",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of the report written by tally generate. Useful for
validating output or generating client types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}
