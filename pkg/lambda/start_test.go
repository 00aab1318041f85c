package lambda

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lambda-events/pkg/events"
)

func TestContextFromRuntime(t *testing.T) {
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{
		AwsRequestID:       "aws-req-1",
		InvokedFunctionArn: "arn:aws:lambda:us-east-1:123456789012:function:echo",
		Identity: lambdacontext.CognitoIdentity{
			CognitoIdentityID:     "us-east-1:abc",
			CognitoIdentityPoolID: "us-east-1:pool",
		},
		ClientContext: lambdacontext.ClientContext{
			Client: lambdacontext.ClientApplication{InstallationID: "install-1", AppTitle: "App"},
			Env:    map[string]string{"platform": "Android", "platform_version": "14"},
			Custom: map[string]string{"theme": "dark"},
		},
	})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	lc := ContextFromRuntime(ctx)
	assert.Equal(t, "aws-req-1", lc.AwsRequestID)
	assert.True(t, lc.CallbackWaitsForEmptyEventLoop)
	require.NotNil(t, lc.Identity)
	assert.Equal(t, "us-east-1:pool", lc.Identity.CognitoIdentityPoolID)
	require.NotNil(t, lc.ClientContext)
	assert.Equal(t, "install-1", lc.ClientContext.Client.InstallationID)
	assert.Equal(t, "14", lc.ClientContext.Env.PlatformVersion)
	assert.JSONEq(t, `{"theme":"dark"}`, string(lc.ClientContext.Custom))
	assert.Greater(t, lc.GetRemainingTimeInMillis(), int64(0))
}

func TestContextFromRuntimeWithoutMetadata(t *testing.T) {
	lc := ContextFromRuntime(context.Background())
	assert.Nil(t, lc.Identity)
	assert.Nil(t, lc.ClientContext)
	assert.Empty(t, lc.AwsRequestID)
}

func TestWrap(t *testing.T) {
	h := func(ctx context.Context, event events.APIGatewayEvent, lc *Context, cb ProxyCallback) (events.ProxyResult, error) {
		return events.NewProxyResult(200, lc.AwsRequestID), nil
	}

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "wrapped"})
	result, err := Wrap(ProxyHandler(h))(ctx, events.APIGatewayEvent{})
	require.NoError(t, err)
	assert.Equal(t, "wrapped", result.Body)
}

func TestContextJSONShape(t *testing.T) {
	lc := &Context{FunctionName: "f", MemoryLimitInMB: 256, AwsRequestID: "r"}
	out, err := json.Marshal(lc)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.Equal(t, "f", fields["functionName"])
	assert.Equal(t, float64(256), fields["memoryLimitInMB"])
	assert.Equal(t, "r", fields["awsRequestId"])
	assert.NotContains(t, fields, "identity")
	assert.NotContains(t, fields, "clientContext")
}

func TestProxyConversions(t *testing.T) {
	req := awsevents.APIGatewayProxyRequest{
		Resource:   "/{proxy+}",
		Path:       "/items/1",
		HTTPMethod: "GET",
		Headers:    map[string]string{"Accept": "application/json"},
		RequestContext: awsevents.APIGatewayProxyRequestContext{
			AccountID:  "123456789012",
			APIID:      "api",
			Stage:      "prod",
			RequestID:  "rid",
			HTTPMethod: "GET",
			Identity:   awsevents.APIGatewayRequestIdentity{SourceIP: "10.0.0.1", UserAgent: "curl"},
			Authorizer: map[string]interface{}{"principalId": "alice"},
		},
	}

	event := FromProxyRequest(req)
	assert.Nil(t, event.Body)
	assert.Equal(t, "10.0.0.1", event.RequestContext.Identity.SourceIP)
	assert.Nil(t, event.RequestContext.Identity.User)
	require.NotNil(t, event.RequestContext.Identity.UserAgent)
	authorizer, ok := event.RequestContext.Authorizer.Get()
	require.True(t, ok)
	assert.Equal(t, "alice", authorizer["principalId"])

	result := events.NewProxyResult(200, "{}")
	result.SetHeader("X-Count", events.NumberHeader(3))
	result.SetHeader("X-Cached", events.BoolHeader(true))

	resp := ToProxyResponse(result)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, map[string]string{"X-Count": "3", "X-Cached": "true"}, resp.Headers)
}
