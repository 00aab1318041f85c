package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lambda-events/internal/config"
	"lambda-events/internal/journal"
	"lambda-events/internal/logging"
	"lambda-events/pkg/lambda"
)

type invokeOptions struct {
	eventPath string
	requestID string
	timeout   time.Duration
	record    bool
}

// invokeOutput is what invoke prints.
type invokeOutput struct {
	RequestID   string  `json:"requestId"`
	Function    string  `json:"function"`
	CompletedBy string  `json:"completedBy"`
	DurationMS  float64 `json:"durationMs"`
	Result      any     `json:"result,omitempty"`
	Error       string  `json:"error,omitempty"`
}

func newInvokeCommand(root *rootOptions) *cobra.Command {
	opts := &invokeOptions{}

	cmd := &cobra.Command{
		Use:   "invoke <function>",
		Short: "Invoke a function with an event",
		Long: `Invoke a function once and print the outcome as JSON.

The event is read from --event, or from stdin when the flag is omitted or "-".
Files ending in .yaml or .yml are converted to JSON first.

Examples:
  # Invoke the echo function with an API Gateway event
  lambdalocal invoke echo --event pkg/events/testdata/apigateway_proxy.json

  # Pipe an event and record the invocation
  cat event.json | lambdalocal invoke streams --record`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.eventPath, "event", "e", "", "event file (JSON or YAML), - for stdin")
	cmd.Flags().StringVar(&opts.requestID, "request-id", "", "request ID (default: random UUID)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "function timeout (default: FUNCTION_TIMEOUT)")
	cmd.Flags().BoolVar(&opts.record, "record", false, "record the invocation in the journal")
	return cmd
}

func runInvoke(cmd *cobra.Command, root *rootOptions, opts *invokeOptions, name string) error {
	cfg, logger, err := root.load(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	catalog, err := newCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	fn, err := catalog.Lookup(name)
	if err != nil {
		return err
	}

	raw, err := readEvent(cmd.InOrStdin(), opts.eventPath)
	if err != nil {
		return err
	}

	requestID := opts.requestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	lc := functionConfig(cfg, fn.Name, opts.timeout).NewLambdaContext(requestID, time.Now())

	observers := []lambda.InvokeOption{lambda.WithObserver(logging.Observer(logger))}
	if opts.record {
		j, err := journal.Open(cfg.Journal.Path, logger)
		if err != nil {
			return err
		}
		defer j.Close()
		observers = append(observers, lambda.WithObserver(j.Observer(fn.EventSource, json.RawMessage(raw))))
	}

	res, err := fn.Invoke(ctx, raw, lc, observers...)
	if err != nil {
		return err
	}

	out := invokeOutput{
		RequestID:   requestID,
		Function:    fn.Name,
		CompletedBy: string(res.Source),
		DurationMS:  float64(res.Duration.Nanoseconds()) / 1000000,
		Result:      res.Value,
	}
	if res.Err != nil {
		out.Result = nil
		out.Error = res.Err.Error()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}

	if res.Err != nil {
		return fmt.Errorf("invocation failed: %w", res.Err)
	}
	return nil
}

// functionConfig returns a copy of cfg describing the named function.
func functionConfig(cfg *config.Config, name string, timeout time.Duration) *config.Config {
	c := *cfg
	c.Function.Name = name
	c.Function.LogGroup = "/aws/lambda/" + name
	if timeout > 0 {
		c.Function.Timeout = timeout
	}
	return &c
}

// readEvent returns the event at path as JSON.
func readEvent(stdin io.Reader, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading event: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parsing YAML event: %w", err)
		}
		return json.Marshal(v)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("event is not valid JSON")
	}
	return data, nil
}
