package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-odds/internal/bootstrap"
	"github.com/i474232898/weather-odds/internal/config"
)

func newVariablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variables",
		Short: "List the queryable variables and their canonical units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			registry, err := bootstrap.Registry(cfg)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tUNIT\tSOURCE\tCODE")
			for _, spec := range registry.Specs() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", spec.Key, spec.CanonicalUnit, spec.SourceLabel, spec.SourceCode)
			}
			return tw.Flush()
		},
	}
}
