package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"lambda-events/internal/auth"
	"lambda-events/internal/customresource"
	"lambda-events/internal/objects"
	"lambda-events/pkg/events"
	"lambda-events/pkg/lambda"
)

// Event sources recorded in the invocation journal.
const (
	SourceAPIGateway     = "aws:apigateway"
	SourceAuthorizer     = "aws:apigateway:authorizer"
	SourceCloudFormation = "aws:cloudformation"
	SourceLogs           = "aws:logs"
	SourceDynamoDB       = "aws:dynamodb"
	SourceSNS            = "aws:sns"
	SourceEvents         = "aws.events"
	SourceS3             = "aws:s3"
	SourceCognito        = "aws:cognito-idp"
	SourceCloudFront     = "aws:cloudfront"
)

// Deps are the collaborators sample functions need. Functions whose
// collaborator is nil are left out of the catalog.
type Deps struct {
	Logger    logrus.FieldLogger
	Auth      *auth.AuthService
	Sender    *customresource.Sender
	Fetcher   *objects.Fetcher
	Cognito   CognitoOptions
	Redirects map[string]string
}

// Result is the type-erased outcome of a catalog invocation.
type Result struct {
	Value    any
	Err      error
	Source   lambda.CompletionSource
	Duration time.Duration
}

// Function is a sample handler that accepts its event as raw JSON.
type Function struct {
	Name        string
	EventSource string
	Description string

	invoke func(ctx context.Context, raw []byte, lc *lambda.Context, opts []lambda.InvokeOption) (Result, error)
}

// Invoke decodes and validates raw as the function's event type and runs
// one invocation. Decoding failures are returned as the error; handler
// failures are reported in Result.Err.
func (f Function) Invoke(ctx context.Context, raw []byte, lc *lambda.Context, opts ...lambda.InvokeOption) (Result, error) {
	return f.invoke(ctx, raw, lc, opts)
}

func newFunction[E, R any](name, source, description string, h lambda.Handler[E, R]) Function {
	return Function{
		Name:        name,
		EventSource: source,
		Description: description,
		invoke: func(ctx context.Context, raw []byte, lc *lambda.Context, opts []lambda.InvokeOption) (Result, error) {
			var event E
			if err := json.Unmarshal(raw, &event); err != nil {
				return Result{}, fmt.Errorf("decoding %s event: %w", name, err)
			}
			if err := events.Validate(event); err != nil {
				return Result{}, fmt.Errorf("invalid %s event: %w", name, err)
			}

			out := lambda.Invoke(ctx, h, event, lc, opts...)
			return Result{Value: out.Result, Err: out.Err, Source: out.Source, Duration: out.Duration}, nil
		},
	}
}

// Catalog is the set of sample functions keyed by name.
type Catalog map[string]Function

// NewCatalog builds every function deps can support.
func NewCatalog(deps Deps) Catalog {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	fns := []Function{
		newFunction("echo", SourceAPIGateway, "API Gateway proxy echo", NewEcho(logger)),
		newFunction("logs", SourceLogs, "CloudWatch Logs subscription summary", NewLogsSummarizer(logger)),
		newFunction("streams", SourceDynamoDB, "DynamoDB stream summary", NewStreamSummarizer(logger)),
		newFunction("notifications", SourceSNS, "SNS notification consumer", NewNotificationHandler(logger)),
		newFunction("heartbeat", SourceEvents, "EventBridge scheduled heartbeat", NewHeartbeat(logger, nil)),
		newFunction("cognito", SourceCognito, "Cognito user pool triggers", NewCognitoTrigger(deps.Cognito, logger)),
		newFunction("edge-redirect", SourceCloudFront, "CloudFront viewer-request redirects", NewEdgeRedirect(deps.Redirects, logger)),
		newFunction("security-headers", SourceCloudFront, "CloudFront origin-response security headers", NewSecurityHeaders(logger)),
	}
	if deps.Auth != nil {
		fns = append(fns, newFunction("authorizer", SourceAuthorizer, "API Gateway JWT authorizer", auth.NewAuthorizer(deps.Auth, logger)))
	}
	if deps.Sender != nil {
		fns = append(fns, newFunction("random-string", SourceCloudFormation, "Custom::RandomString resource",
			customresource.NewHandler(RandomStringProvider{}, deps.Sender)))
	}
	if deps.Fetcher != nil {
		fns = append(fns, newFunction("objects", SourceS3, "S3 object inspector", NewObjectInspector(deps.Fetcher, logger)))
	}

	c := make(Catalog, len(fns))
	for _, f := range fns {
		c[f.Name] = f
	}
	return c
}

// Lookup returns the named function.
func (c Catalog) Lookup(name string) (Function, error) {
	f, ok := c[name]
	if !ok {
		return Function{}, fmt.Errorf("unknown function %q", name)
	}
	return f, nil
}

// Names returns the function names in order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
