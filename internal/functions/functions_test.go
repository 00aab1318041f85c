package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lambda-events/internal/objects"
	"lambda-events/pkg/events"
	"lambda-events/pkg/lambda"
)

func fixture(t *testing.T, name string, v any) {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "pkg", "events", "testdata", name))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func newContext() *lambda.Context {
	return &lambda.Context{
		FunctionName:    "sample",
		FunctionVersion: "$LATEST",
		AwsRequestID:    "req-1",
		MemoryLimitInMB: 128,
		Deadline:        time.Now().Add(time.Second),
	}
}

func invoke[E, R any](t *testing.T, h lambda.Handler[E, R], event E) lambda.Outcome[R] {
	t.Helper()
	return lambda.Invoke(context.Background(), h, event, newContext())
}

func TestEcho(t *testing.T) {
	logger, _ := test.NewNullLogger()

	var event events.APIGatewayEvent
	fixture(t, "apigateway_proxy.json", &event)
	event.QueryStringParameters = map[string]string{"status": "202"}
	event.RequestContext.Authorizer = events.Some(events.AuthResponseContext{"principalId": "user-1"})

	out := invoke(t, NewEcho(logger), event)
	require.NoError(t, out.Err)
	assert.Equal(t, 202, out.Result.StatusCode)
	assert.Equal(t, "application/json", out.Result.HeaderStrings()["Content-Type"])

	var body EchoResponse
	require.NoError(t, json.Unmarshal([]byte(out.Result.Body), &body))
	assert.Equal(t, "Hello from sample", body.Message)
	assert.Equal(t, event.HTTPMethod, body.Method)
	assert.Equal(t, "user-1", body.Principal)
	assert.Equal(t, event.RequestContext.RequestID, body.RequestID)
}

func TestEchoRejectsBadStatus(t *testing.T) {
	logger, _ := test.NewNullLogger()
	event := events.APIGatewayEvent{
		HTTPMethod:            "GET",
		Path:                  "/",
		QueryStringParameters: map[string]string{"status": "abc"},
	}

	out := invoke(t, NewEcho(logger), event)
	require.NoError(t, out.Err)
	assert.Equal(t, 400, out.Result.StatusCode)
	assert.Contains(t, out.Result.Body, "invalid status")
}

func createEvent(props map[string]any) *events.CustomResourceCreateEvent {
	return &events.CustomResourceCreateEvent{CustomResourceEventCommon: events.CustomResourceEventCommon{
		ServiceToken:       "arn:aws:lambda:us-east-1:123456789012:function:random",
		ResponseURL:        "https://example.com/response",
		StackID:            "arn:aws:cloudformation:us-east-1:123456789012:stack/s/1",
		RequestID:          "r-1",
		LogicalResourceID:  "Token",
		ResourceType:       "Custom::RandomString",
		ResourceProperties: props,
	}}
}

func TestRandomStringCreate(t *testing.T) {
	var p RandomStringProvider

	id, data, err := p.Create(context.Background(), createEvent(map[string]any{"Length": "24", "Prefix": "tok_"}))
	require.NoError(t, err)
	assert.Contains(t, id, "random-")
	value := data["Value"].(string)
	assert.Len(t, value, 28)
	assert.Equal(t, "tok_", value[:4])

	_, _, err = p.Create(context.Background(), createEvent(map[string]any{"Length": "1000"}))
	assert.Error(t, err)
}

func TestRandomStringUpdate(t *testing.T) {
	var p RandomStringProvider
	props := map[string]any{"Length": "8"}

	update := &events.CustomResourceUpdateEvent{
		CustomResourceEventCommon: createEvent(props).CustomResourceEventCommon,
		PhysicalResourceID:        "random-existing",
		OldResourceProperties:     map[string]any{"Length": "8"},
	}
	id, data, err := p.Update(context.Background(), update)
	require.NoError(t, err)
	assert.Equal(t, "random-existing", id)
	assert.Nil(t, data)

	update.OldResourceProperties = map[string]any{"Length": "12"}
	id, data, err = p.Update(context.Background(), update)
	require.NoError(t, err)
	assert.NotEqual(t, "random-existing", id)
	assert.Len(t, data["Value"], 8)
}

func TestLogsSummarizer(t *testing.T) {
	logger, hook := test.NewNullLogger()

	data, err := events.NewCloudWatchLogsEventData(events.CloudWatchLogsDecodedData{
		Owner:       "123456789012",
		LogGroup:    "/aws/lambda/orders",
		LogStream:   "2024/03/15/[$LATEST]abc",
		MessageType: events.LogsMessageTypeData,
		LogEvents: []events.CloudWatchLogsLogEvent{
			{ID: "1", Timestamp: 1, Message: "INFO started"},
			{ID: "2", Timestamp: 2, Message: "ERROR failed to charge card"},
			{ID: "3", Timestamp: 3, Message: "warn retrying"},
			{ID: "4", Timestamp: 4, Message: "plain line"},
		},
	})
	require.NoError(t, err)

	out := invoke(t, NewLogsSummarizer(logger), events.CloudWatchLogsEvent{AWSLogs: data})
	require.NoError(t, out.Err)
	assert.Equal(t, 4, out.Result.Total)
	assert.Equal(t, map[string]int{"INFO": 1, "ERROR": 1, "WARN": 1, "OTHER": 1}, out.Result.Levels)
	assert.Equal(t, []string{"2"}, out.Result.Errors)
	assert.Equal(t, "/aws/lambda/orders", hook.LastEntry().Data["log_group"])
}

func TestLogsSummarizerControlMessage(t *testing.T) {
	logger, _ := test.NewNullLogger()

	data, err := events.NewCloudWatchLogsEventData(events.CloudWatchLogsDecodedData{
		MessageType: events.LogsMessageTypeControl,
		LogEvents:   []events.CloudWatchLogsLogEvent{{ID: "1", Message: "CWL CONTROL MESSAGE"}},
	})
	require.NoError(t, err)

	out := invoke(t, NewLogsSummarizer(logger), events.CloudWatchLogsEvent{AWSLogs: data})
	require.NoError(t, out.Err)
	assert.True(t, out.Result.Control)
	assert.Zero(t, out.Result.Total)
}

func TestLogsSummarizerFixture(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var event events.CloudWatchLogsEvent
	fixture(t, "cloudwatch_logs.json", &event)

	out := invoke(t, NewLogsSummarizer(logger), event)
	require.NoError(t, out.Err)
	assert.NotEmpty(t, out.Result.LogGroup)
}

func TestLogsSummarizerBadPayload(t *testing.T) {
	logger, _ := test.NewNullLogger()
	event := events.CloudWatchLogsEvent{AWSLogs: events.CloudWatchLogsEventData{Data: "not base64!"}}

	out := invoke(t, NewLogsSummarizer(logger), event)
	assert.Error(t, out.Err)
}

func TestStreamSummarizer(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var event events.DynamoDBStreamEvent
	fixture(t, "dynamodb_stream.json", &event)

	out := invoke(t, NewStreamSummarizer(logger), event)
	require.NoError(t, out.Err)
	assert.Equal(t, map[events.DynamoDBEventName]int{
		events.DynamoDBEventName("INSERT"): 1,
		events.DynamoDBEventName("MODIFY"): 1,
		events.DynamoDBEventName("REMOVE"): 1,
	}, out.Result.Counts)
	assert.Equal(t, []string{"Id=101", "Id=101", "Id=101"}, out.Result.Keys)
}

func TestFormatKey(t *testing.T) {
	key := map[string]events.AttributeValue{
		"sk": events.BinaryValue([]byte{0xca, 0xfe}),
		"pk": events.StringValue("order#1"),
	}
	assert.Equal(t, "pk=order#1,sk=cafe", FormatKey(key))
}

func TestNotificationHandler(t *testing.T) {
	logger, hook := test.NewNullLogger()
	var event events.SNSEvent
	fixture(t, "sns.json", &event)

	second := event.Records[0]
	second.SNS.MessageID = "m-2"
	second.SNS.Message = `{"orderId":"o-1","total":12.5}`
	event.Records = append(event.Records, second)

	out := invoke(t, NewNotificationHandler(logger), event)
	require.NoError(t, out.Err)
	assert.Equal(t, []string{"95df01b4-ee98-5cb9-9903-4c221d41eb5e", "m-2"}, out.Result.Processed)
	assert.Equal(t, map[string]any{"orderId": "o-1", "total": 12.5}, out.Result.Payloads["m-2"])
	assert.NotContains(t, out.Result.Payloads, "95df01b4-ee98-5cb9-9903-4c221d41eb5e")
	assert.Len(t, hook.AllEntries(), 2)
}

func TestHeartbeat(t *testing.T) {
	logger, hook := test.NewNullLogger()
	var event events.ScheduledEvent
	fixture(t, "scheduled.json", &event)
	event.Time = "2024-03-15T10:30:00Z"
	event.Detail = json.RawMessage(`{"job":"cleanup"}`)

	now := func() time.Time { return time.Date(2024, 3, 15, 10, 30, 2, 0, time.UTC) }
	out := invoke(t, NewHeartbeat(logger, now), event)
	require.NoError(t, out.Err)
	assert.Equal(t, "arn:aws:events:us-east-1:123456789012:rule/ExampleRule", out.Result.Rule)
	assert.Equal(t, int64(2000), out.Result.LagMS)
	assert.Equal(t, map[string]any{"job": "cleanup"}, out.Result.Detail)
	assert.Equal(t, "Heartbeat", hook.LastEntry().Message)
}

func TestHeartbeatBadTime(t *testing.T) {
	logger, _ := test.NewNullLogger()
	out := invoke(t, NewHeartbeat(logger, nil), events.ScheduledEvent{Time: "yesterday"})
	assert.Error(t, out.Err)
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(body)),
		ContentType: aws.String("text/plain"),
		ETag:        aws.String(`"etag-1"`),
	}, nil
}

func TestObjectInspector(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var event events.S3CreateEvent
	fixture(t, "s3_put.json", &event)

	client := &fakeS3{objects: map[string][]byte{"example-bucket/test/key with spaces": []byte("a\nb\nc")}}
	out := invoke(t, NewObjectInspector(objects.NewFetcher(client, 0), logger), event)
	require.NoError(t, out.Err)
	require.Len(t, out.Result, 1)
	assert.Equal(t, ObjectSummary{
		Bucket:      "example-bucket",
		Key:         "test/key with spaces",
		ContentType: "text/plain",
		ETag:        "etag-1",
		Size:        5,
		Lines:       3,
	}, out.Result[0])
}

func TestObjectInspectorMissingObject(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var event events.S3CreateEvent
	fixture(t, "s3_put.json", &event)

	out := invoke(t, NewObjectInspector(objects.NewFetcher(&fakeS3{}, 0), logger), event)
	assert.ErrorContains(t, out.Err, "NoSuchKey")
}

func cognitoEvent(source events.CognitoTriggerSource) events.CognitoUserPoolEvent {
	return events.CognitoUserPoolEvent{
		Version:       "1",
		TriggerSource: source,
		Region:        "us-east-1",
		UserPoolID:    "us-east-1_EXAMPLE",
		UserName:      "alice",
		Request: events.CognitoUserPoolRequest{
			UserAttributes: map[string]string{"email": "alice@Example.com"},
		},
	}
}

func TestCognitoPreSignUp(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := NewCognitoTrigger(CognitoOptions{AutoConfirmDomains: []string{"example.com"}}, logger)

	out := invoke(t, h, cognitoEvent(events.TriggerPreSignUpSignUp))
	require.NoError(t, out.Err)
	assert.True(t, out.Result.Response.AutoConfirmUser)

	event := cognitoEvent(events.TriggerPreSignUpSignUp)
	event.Request.UserAttributes["email"] = "mallory@elsewhere.org"
	out = invoke(t, h, event)
	require.NoError(t, out.Err)
	assert.False(t, out.Result.Response.AutoConfirmUser)
}

func TestCognitoDefineAuthChallenge(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := NewCognitoTrigger(CognitoOptions{}, logger)

	custom := func(ok bool) events.CognitoChallengeResult {
		return events.CognitoChallengeResult{ChallengeName: events.ChallengeCustom, ChallengeResult: ok}
	}

	tests := []struct {
		name      string
		session   []events.CognitoChallengeResult
		challenge string
		issue     bool
		fail      bool
	}{
		{"first attempt", nil, "CUSTOM_CHALLENGE", false, false},
		{"answered", []events.CognitoChallengeResult{custom(true)}, "", true, false},
		{"retry", []events.CognitoChallengeResult{custom(false)}, "CUSTOM_CHALLENGE", false, false},
		{"exhausted", []events.CognitoChallengeResult{custom(false), custom(false), custom(false)}, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := cognitoEvent(events.TriggerDefineAuthChallengeAuthentication)
			event.Request.Session = tt.session

			out := invoke(t, h, event)
			require.NoError(t, out.Err)
			assert.Equal(t, tt.challenge, out.Result.Response.ChallengeName)
			assert.Equal(t, tt.issue, out.Result.Response.IssueTokens)
			assert.Equal(t, tt.fail, out.Result.Response.FailAuthentication)
		})
	}
}

func TestCognitoDefineAuthChallengeFixture(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var event events.CognitoUserPoolEvent
	fixture(t, "cognito_define_auth_challenge.json", &event)

	out := invoke(t, NewCognitoTrigger(CognitoOptions{}, logger), event)
	require.NoError(t, out.Err)
	assert.Equal(t, "CUSTOM_CHALLENGE", out.Result.Response.ChallengeName)
	assert.False(t, out.Result.Response.IssueTokens)
}

func TestCognitoChallengeRoundTrip(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := NewCognitoTrigger(CognitoOptions{CodeLength: 8}, logger)

	create := cognitoEvent(events.TriggerCreateAuthChallengeAuthentication)
	create.Request.ChallengeName = string(events.ChallengeCustom)
	out := invoke(t, h, create)
	require.NoError(t, out.Err)

	code := out.Result.Response.PrivateChallengeParameters["answer"]
	assert.Len(t, code, 8)
	assert.Equal(t, "CODE-1", out.Result.Response.ChallengeMetaData)
	assert.NotContains(t, out.Result.Response.PublicChallengeParameters, "answer")

	verify := cognitoEvent(events.TriggerVerifyAuthChallengeResponseAuthentication)
	verify.Request.PrivateChallengeParameters = map[string]string{"answer": code}
	verify.Request.ChallengeAnswer = map[string]string{"answer": code}
	out = invoke(t, h, verify)
	require.NoError(t, out.Err)
	assert.True(t, out.Result.Response.AnswerCorrect)

	verify.Request.ChallengeAnswer = map[string]string{"answer": "nope"}
	out = invoke(t, h, verify)
	require.NoError(t, out.Err)
	assert.False(t, out.Result.Response.AnswerCorrect)
}

func TestCognitoCustomMessage(t *testing.T) {
	logger, _ := test.NewNullLogger()
	event := cognitoEvent(events.TriggerCustomMessageForgotPassword)
	event.Request.CodeParameter = "{####}"

	out := invoke(t, NewCognitoTrigger(CognitoOptions{}, logger), event)
	require.NoError(t, out.Err)
	assert.Equal(t, "Reset your password", out.Result.Response.EmailSubject)
	assert.Contains(t, out.Result.Response.EmailMessage, "{####}")
	assert.Contains(t, out.Result.Response.SMSMessage, "{####}")
}

func TestCognitoPassThrough(t *testing.T) {
	logger, _ := test.NewNullLogger()
	event := cognitoEvent(events.TriggerTokenGenerationRefreshTokens)

	out := invoke(t, NewCognitoTrigger(CognitoOptions{}, logger), event)
	require.NoError(t, out.Err)
	assert.Equal(t, event, out.Result)
}

func TestEdgeRedirect(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := NewEdgeRedirect(map[string]string{"/picture.jpg": "https://images.example.com/picture.jpg"}, logger)

	var event events.CloudFrontRequestEvent
	fixture(t, "cloudfront_request.json", &event)

	out := invoke(t, h, event)
	require.NoError(t, out.Err)
	resp, ok := out.Result.(events.CloudFrontResponse)
	require.True(t, ok)
	assert.Equal(t, "301", resp.Status)
	assert.Equal(t, "https://images.example.com/picture.jpg", resp.Headers.Get("location"))
	assert.Equal(t, "Location", resp.Headers["location"][0].Key)

	event.Records[0].CF.Request.URI = "/docs/"
	out = invoke(t, h, event)
	require.NoError(t, out.Err)
	req, ok := out.Result.(events.CloudFrontRequest)
	require.True(t, ok)
	assert.Equal(t, "/docs/index.html", req.URI)
	assert.Equal(t, "curl/7.51.0", req.Headers.Get("User-Agent"))
}

func TestSecurityHeaders(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var event events.CloudFrontResponseEvent
	fixture(t, "cloudfront_response.json", &event)
	event.Records[0].CF.Response.Headers.Set("X-Frame-Options", "SAMEORIGIN")

	out := invoke(t, NewSecurityHeaders(logger), event)
	require.NoError(t, out.Err)
	assert.Equal(t, "nosniff", out.Result.Headers.Get("x-content-type-options"))
	assert.Equal(t, "SAMEORIGIN", out.Result.Headers.Get("x-frame-options"))
	assert.NotEmpty(t, out.Result.Headers.Get("strict-transport-security"))
}

func TestEdgeHandlersRequireRecords(t *testing.T) {
	logger, _ := test.NewNullLogger()

	out := invoke(t, NewEdgeRedirect(nil, logger), events.CloudFrontRequestEvent{})
	assert.ErrorIs(t, out.Err, errNoRecords)

	resp := invoke(t, NewSecurityHeaders(logger), events.CloudFrontResponseEvent{})
	assert.ErrorIs(t, resp.Err, errNoRecords)
}
