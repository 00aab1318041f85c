package lambda

import (
	"context"
	"encoding/json"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
)

// Start hands h to the aws-lambda-go runtime loop. It does not return.
func Start[E, R any](h Handler[E, R], opts ...InvokeOption) {
	awslambda.Start(Wrap(h, opts...))
}

// Wrap adapts h to the func(context.Context, E) (R, error) shape the
// aws-lambda-go runtime calls.
func Wrap[E, R any](h Handler[E, R], opts ...InvokeOption) func(context.Context, E) (R, error) {
	return func(ctx context.Context, event E) (R, error) {
		out := Invoke(ctx, h, event, ContextFromRuntime(ctx), opts...)
		return out.Result, out.Err
	}
}

// ContextFromRuntime builds a Context from the metadata aws-lambda-go attaches
// to ctx and the function's environment.
func ContextFromRuntime(ctx context.Context) *Context {
	lc := &Context{
		CallbackWaitsForEmptyEventLoop: true,
		FunctionName:                   lambdacontext.FunctionName,
		FunctionVersion:                lambdacontext.FunctionVersion,
		MemoryLimitInMB:                lambdacontext.MemoryLimitInMB,
		LogGroupName:                   lambdacontext.LogGroupName,
		LogStreamName:                  lambdacontext.LogStreamName,
	}

	if deadline, ok := ctx.Deadline(); ok {
		lc.Deadline = deadline
	}

	rc, ok := lambdacontext.FromContext(ctx)
	if !ok {
		return lc
	}

	lc.AwsRequestID = rc.AwsRequestID
	lc.InvokedFunctionArn = rc.InvokedFunctionArn

	if rc.Identity.CognitoIdentityID != "" || rc.Identity.CognitoIdentityPoolID != "" {
		lc.Identity = &CognitoIdentity{
			CognitoIdentityID:     rc.Identity.CognitoIdentityID,
			CognitoIdentityPoolID: rc.Identity.CognitoIdentityPoolID,
		}
	}

	cc := rc.ClientContext
	if cc.Client.InstallationID != "" || len(cc.Env) > 0 || len(cc.Custom) > 0 {
		lc.ClientContext = &ClientContext{
			Client: ClientContextClient{
				InstallationID: cc.Client.InstallationID,
				AppTitle:       cc.Client.AppTitle,
				AppVersionCode: cc.Client.AppVersionCode,
				AppPackageName: cc.Client.AppPackageName,
			},
			Env: ClientContextEnv{
				PlatformVersion: firstOf(cc.Env, "platformVersion", "platform_version"),
				Platform:        cc.Env["platform"],
				Make:            cc.Env["make"],
				Model:           cc.Env["model"],
				Locale:          cc.Env["locale"],
			},
		}
		if len(cc.Custom) > 0 {
			if raw, err := json.Marshal(cc.Custom); err == nil {
				lc.ClientContext.Custom = raw
			}
		}
	}

	return lc
}

func firstOf(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return ""
}
