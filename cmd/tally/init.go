package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/unbound-force/tally/internal/config"
)

// initParams holds the parsed flags for the init command.
type initParams struct {
	path   string
	stdout io.Writer
}

// runInit is the extracted, testable body of the init command.
func runInit(p initParams) error {
	if err := config.WriteStarter(p.path); err != nil {
		return err
	}
	fmt.Fprintf(p.stdout, "Wrote starter config to %s\n", p.path)
	return nil
}

func newInitCmd() *cobra.Command {
	p := initParams{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Write a commented .tally.yaml starter config to the working
directory. Existing files are never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p.stdout = cmd.OutOrStdout()
			return runInit(p)
		},
	}

	cmd.Flags().StringVarP(&p.path, "output", "o", ".tally.yaml",
		"where to write the config file")

	return cmd
}
