package emulator

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lambda-events/pkg/events"
)

const arn = "arn:aws:execute-api:us-east-1:123456789012:api123/local/GET/orders/7"

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		doc  events.PolicyDocument
		want Decision
	}{
		{"allow exact", events.NewAllowPolicy(arn), Allowed},
		{"allow wildcard", events.NewAllowPolicy("arn:aws:execute-api:us-east-1:123456789012:api123/local/*"), Allowed},
		{"allow single char", events.NewAllowPolicy("arn:aws:execute-api:us-east-1:123456789012:api123/local/GET/orders/?"), Allowed},
		{"allow other route", events.NewAllowPolicy("arn:aws:execute-api:us-east-1:123456789012:api123/local/POST/*"), NoMatch},
		{"deny", events.NewDenyPolicy("*"), ExplicitDeny},
		{"deny beats allow", events.PolicyDocument{
			Version: events.PolicyVersion,
			Statement: []events.Statement{
				{Action: events.Single(events.ActionInvoke), Effect: events.EffectAllow, Resource: events.Single("*")},
				{Action: events.Single(events.ActionInvoke), Effect: events.EffectDeny, Resource: events.List(arn)},
			},
		}, ExplicitDeny},
		{"action wildcard", events.PolicyDocument{
			Version:   events.PolicyVersion,
			Statement: []events.Statement{{Action: events.Single("execute-api:*"), Effect: events.EffectAllow, Resource: events.Single("*")}},
		}, Allowed},
		{"other action", events.PolicyDocument{
			Version:   events.PolicyVersion,
			Statement: []events.Statement{{Action: events.Single("s3:GetObject"), Effect: events.EffectAllow, Resource: events.Single("*")}},
		}, NoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.doc, arn)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateRejectsUnknownEffect(t *testing.T) {
	doc := events.PolicyDocument{
		Version:   events.PolicyVersion,
		Statement: []events.Statement{{Action: events.Single("*"), Effect: "Maybe", Resource: events.Single("*")}},
	}
	_, err := Evaluate(doc, arn)
	assert.Error(t, err)
}

func TestMethodArn(t *testing.T) {
	req := httptest.NewRequest("GET", "/orders/7", nil)
	event := NewProxyEvent(req, nil, EventOptions{AccountID: "123456789012", APIID: "api123", Stage: "local"})
	assert.Equal(t, arn, MethodArn("us-east-1", event))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "[::1]:5000"
	assert.Equal(t, "::1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}
