package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lambda-events/internal/auth"
	"lambda-events/internal/config"
	"lambda-events/internal/emulator"
	"lambda-events/internal/functions"
	"lambda-events/internal/journal"
	"lambda-events/internal/logging"
	"lambda-events/internal/scheduler"
	"lambda-events/pkg/events"
	"lambda-events/pkg/lambda"
)

type serveOptions struct {
	port        string
	binaryTypes []string
	schedules   bool
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the API Gateway emulator",
		Long: `Serve an API Gateway REST API with a greedy {proxy+} resource integrated
with the echo function.

When EMULATOR_AUTHORIZER is set, requests must carry a bearer token issued by
"lambdalocal token". Configured schedules invoke the heartbeat function.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.port, "port", "p", "", "listen port (default: PORT)")
	cmd.Flags().StringSliceVar(&opts.binaryTypes, "binary-types", nil, "binary media types, e.g. image/*")
	cmd.Flags().BoolVar(&opts.schedules, "schedules", true, "run the configured schedules")
	return cmd
}

func runServe(cmd *cobra.Command, root *rootOptions, opts *serveOptions) error {
	cfg, logger, err := root.load(cmd)
	if err != nil {
		return err
	}
	if opts.port != "" {
		cfg.Emulator.Port = opts.port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var j *journal.Journal
	if cfg.Journal.Enabled {
		if j, err = journal.Open(cfg.Journal.Path, logger); err != nil {
			return err
		}
		defer j.Close()
	}

	serverOpts := emulator.Options{
		Config:      cfg,
		Handler:     functions.NewEcho(logger),
		Journal:     j,
		Logger:      logger,
		BinaryTypes: opts.binaryTypes,
	}
	if cfg.Emulator.Authorizer {
		svc, err := newAuthService(cfg)
		if err != nil {
			return err
		}
		serverOpts.Authorizer = auth.NewAuthorizer(svc, logger)
	}

	server, err := emulator.NewServer(serverOpts)
	if err != nil {
		return err
	}

	if opts.schedules && len(cfg.Schedules) > 0 {
		sched, err := startSchedules(cfg, j, logger)
		if err != nil {
			return err
		}
		defer func() { <-sched.Stop().Done() }()
	}

	return server.ListenAndServe(ctx)
}

// startSchedules registers the configured rules with the heartbeat function
// as their target.
func startSchedules(cfg *config.Config, j *journal.Journal, logger *logrus.Logger) (*scheduler.Scheduler, error) {
	heartbeat := functions.NewHeartbeat(logger, nil)
	fnCfg := functionConfig(cfg, "heartbeat", 0)

	emit := func(ctx context.Context, event events.ScheduledEvent) {
		lc := fnCfg.NewLambdaContext(uuid.NewString(), time.Now())
		opts := []lambda.InvokeOption{lambda.WithObserver(logging.Observer(logger))}
		if j != nil {
			opts = append(opts, lambda.WithObserver(j.Observer(functions.SourceEvents, event)))
		}
		lambda.Invoke(ctx, heartbeat, event, lc, opts...)
	}

	s := scheduler.New(cfg.Function.Region, cfg.Function.AccountID, emit, logger)
	for _, sc := range cfg.Schedules {
		rule := scheduler.Rule{Name: sc.Name, Expression: sc.Expression}
		if sc.Detail != "" {
			if !json.Valid([]byte(sc.Detail)) {
				return nil, fmt.Errorf("schedule %s: detail is not valid JSON", sc.Name)
			}
			rule.Detail = json.RawMessage(sc.Detail)
		}
		if err := s.Add(rule); err != nil {
			return nil, err
		}
	}

	s.Start()
	return s, nil
}
