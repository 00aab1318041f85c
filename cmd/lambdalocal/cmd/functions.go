package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFunctionsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the functions invoke can run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			catalog, err := newCatalog(context.Background(), cfg, logger)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tEVENT SOURCE\tDESCRIPTION")
			for _, name := range catalog.Names() {
				fn := catalog[name]
				fmt.Fprintf(w, "%s\t%s\t%s\n", fn.Name, fn.EventSource, fn.Description)
			}
			return w.Flush()
		},
	}
}
