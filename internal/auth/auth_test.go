package auth

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lambda-events/pkg/events"
	"lambda-events/pkg/lambda"
)

const methodArn = "arn:aws:execute-api:us-east-1:123456789012:abcdef123/prod/GET/items/1"

func newService() *AuthService {
	return NewAuthService(&AuthConfig{JWTSecret: "test-secret"})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newService()

	token, err := svc.GenerateToken("user-1", "alice", []string{"admin"}, nil)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, []string{"admin"}, claims.Roles)
	assert.Equal(t, "lambda-events", claims.Issuer)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := newService()

	other := NewAuthService(&AuthConfig{JWTSecret: "other-secret"})
	foreign, err := other.GenerateToken("user-1", "", nil, nil)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.Error(t, err)

	expired := NewAuthService(&AuthConfig{JWTSecret: "test-secret", TokenDuration: -time.Minute})
	old, err := expired.GenerateToken("user-1", "", nil, nil)
	require.NoError(t, err)
	_, err = svc.ValidateToken(old)
	assert.Error(t, err)

	_, err = svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"abc", "abc", true},
		{"", "", false},
		{"Basic a b", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestParseMethodArn(t *testing.T) {
	arn, err := ParseMethodArn(methodArn)
	require.NoError(t, err)
	assert.Equal(t, "abcdef123", arn.APIID)
	assert.Equal(t, "prod", arn.Stage)
	assert.Equal(t, "GET", arn.Method)
	assert.Equal(t, "items/1", arn.Path)
	assert.Equal(t, methodArn, arn.String())

	_, err = ParseMethodArn("arn:aws:s3:::bucket")
	assert.Error(t, err)
}

func TestAuthorizerAllows(t *testing.T) {
	svc := newService()
	logger, _ := test.NewNullLogger()
	token, err := svc.GenerateToken("user-1", "alice", []string{"admin", "ops"}, []string{"GET/items/*"})
	require.NoError(t, err)

	event := events.CustomAuthorizerEvent{
		Type:               events.AuthorizerTypeToken,
		MethodArn:          methodArn,
		AuthorizationToken: "Bearer " + token,
	}
	out := lambda.Invoke(context.Background(), NewAuthorizer(svc, logger), event, &lambda.Context{})
	require.NoError(t, out.Err)

	resp := out.Result
	assert.Equal(t, "user-1", resp.PrincipalID)
	require.Len(t, resp.PolicyDocument.Statement, 1)
	stmt := resp.PolicyDocument.Statement[0]
	assert.Equal(t, events.EffectAllow, stmt.Effect)
	assert.Equal(t, []string{"arn:aws:execute-api:us-east-1:123456789012:abcdef123/prod/GET/items/*"}, stmt.Resource.Values())
	assert.Equal(t, "admin,ops", resp.Context["roles"])
	assert.NoError(t, events.Validate(resp))
}

func TestAuthorizerRequestType(t *testing.T) {
	svc := newService()
	logger, _ := test.NewNullLogger()
	token, err := svc.GenerateToken("user-2", "", nil, nil)
	require.NoError(t, err)

	event := events.CustomAuthorizerEvent{
		Type:      events.AuthorizerTypeRequest,
		MethodArn: methodArn,
		Headers:   map[string]string{"authorization": "Bearer " + token},
	}
	out := lambda.Invoke(context.Background(), NewAuthorizer(svc, logger), event, &lambda.Context{})
	require.NoError(t, out.Err)
	assert.Equal(t, []string{"arn:aws:execute-api:us-east-1:123456789012:abcdef123/prod/*/*"},
		out.Result.PolicyDocument.Statement[0].Resource.Values())
}

func TestAuthorizerRejects(t *testing.T) {
	svc := newService()
	logger, hook := test.NewNullLogger()

	missing := events.CustomAuthorizerEvent{Type: events.AuthorizerTypeToken, MethodArn: methodArn}
	out := lambda.Invoke(context.Background(), NewAuthorizer(svc, logger), missing, &lambda.Context{})
	assert.ErrorIs(t, out.Err, ErrUnauthorized)
	assert.Equal(t, "Unauthorized", out.Err.Error())

	bad := events.CustomAuthorizerEvent{Type: events.AuthorizerTypeToken, MethodArn: methodArn, AuthorizationToken: "Bearer junk"}
	out = lambda.Invoke(context.Background(), NewAuthorizer(svc, logger), bad, &lambda.Context{})
	assert.ErrorIs(t, out.Err, ErrUnauthorized)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
