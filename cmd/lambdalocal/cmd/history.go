package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"lambda-events/internal/journal"
)

type historyOptions struct {
	function string
	limit    int
	asJSON   bool
}

func newHistoryCommand(root *rootOptions) *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history [request-id]",
		Short: "Show recorded invocations",
		Long: `Show the invocations recorded in the journal, newest first.

With a request ID, print that invocation in full as JSON.

Examples:
  lambdalocal history --function echo --limit 50
  lambdalocal history 1f6c3c59-2b43-4a55-9f42-3cbdb4f2c8a1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			j, err := journal.Open(cfg.Journal.Path, logger)
			if err != nil {
				return err
			}
			defer j.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				entry, err := j.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				raw, err := json.MarshalIndent(entry, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(raw))
				return nil
			}

			entries, err := j.Recent(cmd.Context(), opts.function, opts.limit)
			if err != nil {
				return err
			}
			if opts.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RECORDED\tREQUEST ID\tFUNCTION\tSOURCE\tCOMPLETED BY\tDURATION\tERROR")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.1fms\t%s\n",
					e.RecordedAt.Local().Format(time.DateTime),
					e.RequestID,
					e.FunctionName,
					e.EventSource,
					e.CompletedBy,
					e.DurationMS,
					e.Error,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&opts.function, "function", "", "only show this function")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "maximum number of invocations")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
