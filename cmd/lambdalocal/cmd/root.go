package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lambda-events/internal/auth"
	"lambda-events/internal/config"
	"lambda-events/internal/customresource"
	"lambda-events/internal/functions"
	"lambda-events/internal/logging"
	"lambda-events/internal/objects"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCommand builds the lambdalocal command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "lambdalocal",
		Short: "Run and inspect Lambda functions locally",
		Long: `lambdalocal runs the sample functions against real event payloads.

It can:
- serve an API Gateway emulator in front of the echo function
- invoke any function with an event file (JSON or YAML)
- preview EventBridge schedule expressions
- issue tokens for the JWT authorizer
- show the invocation journal`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (optional, uses env vars by default)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, text) (default: json)")

	root.AddCommand(
		newServeCommand(opts),
		newInvokeCommand(opts),
		newFunctionsCommand(opts),
		newScheduleCommand(opts),
		newTokenCommand(opts),
		newHistoryCommand(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// load reads the configuration and builds the logger, applying flag overrides.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	return cfg, logging.New(cfg.Logging, cmd.ErrOrStderr()), nil
}

func newAuthService(cfg *config.Config) (*auth.AuthService, error) {
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return functions.AuthService(cfg), nil
}

// newCatalog wires every function the configuration can support.
func newCatalog(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (functions.Catalog, error) {
	deps := functions.Deps{
		Logger: logger,
		Sender: customresource.NewSender(nil, nil, logger),
	}
	if svc, err := newAuthService(cfg); err == nil {
		deps.Auth = svc
	}

	client, err := objects.NewClient(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	deps.Fetcher = objects.NewFetcher(client, 0)

	return functions.NewCatalog(deps), nil
}
