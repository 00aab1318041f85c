package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lambda-events/internal/scheduler"
)

type scheduleOptions struct {
	count int
	rule  string
	event bool
	from  string
}

func newScheduleCommand(root *rootOptions) *cobra.Command {
	opts := &scheduleOptions{}

	cmd := &cobra.Command{
		Use:   "schedule <expression>",
		Short: "Preview a schedule expression",
		Long: `Print the next firing times of an EventBridge schedule expression.

Accepted forms are rate(N unit), the six-field cron(...) syntax, plain
five-field cron and descriptors such as @hourly. Times are UTC.

Examples:
  lambdalocal schedule "rate(5 minutes)"
  lambdalocal schedule "cron(0 12 ? * MON-FRI *)" --count 10
  lambdalocal schedule "rate(1 hour)" --event --rule nightly`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().IntVarP(&opts.count, "count", "n", 5, "number of firing times to print")
	cmd.Flags().StringVar(&opts.rule, "rule", "preview", "rule name used in the sample event")
	cmd.Flags().BoolVar(&opts.event, "event", false, "print the event delivered at the first firing")
	cmd.Flags().StringVar(&opts.from, "from", "", "start time in RFC 3339 (default: now)")
	return cmd
}

func runSchedule(cmd *cobra.Command, root *rootOptions, opts *scheduleOptions, expression string) error {
	cfg, logger, err := root.load(cmd)
	if err != nil {
		return err
	}

	schedule, err := scheduler.ParseExpression(expression)
	if err != nil {
		return err
	}
	if opts.count < 1 {
		return fmt.Errorf("count must be positive")
	}

	t := time.Now().UTC()
	if opts.from != "" {
		if t, err = time.Parse(time.RFC3339, opts.from); err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		t = t.UTC()
	}

	out := cmd.OutOrStdout()
	var first time.Time
	for i := 0; i < opts.count; i++ {
		t = schedule.Next(t)
		if t.IsZero() {
			break
		}
		if i == 0 {
			first = t
		}
		fmt.Fprintln(out, t.Format(time.RFC3339))
	}

	if !opts.event || first.IsZero() {
		return nil
	}

	s := scheduler.New(cfg.Function.Region, cfg.Function.AccountID, nil, logger)
	event := s.NewEvent(scheduler.Rule{Name: opts.rule, Expression: expression}, first)
	raw, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(raw))
	return nil
}
