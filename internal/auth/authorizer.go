package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"lambda-events/pkg/events"
	"lambda-events/pkg/lambda"
)

// MethodArn is a parsed execute-api method ARN:
// arn:aws:execute-api:{region}:{account}:{apiId}/{stage}/{method}/{path}
type MethodArn struct {
	Region    string
	AccountID string
	APIID     string
	Stage     string
	Method    string
	Path      string
}

// ParseMethodArn splits an execute-api ARN into its parts
func ParseMethodArn(arn string) (MethodArn, error) {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" || parts[2] != "execute-api" {
		return MethodArn{}, fmt.Errorf("not an execute-api ARN: %q", arn)
	}

	segments := strings.SplitN(parts[5], "/", 4)
	if len(segments) < 3 {
		return MethodArn{}, fmt.Errorf("execute-api ARN has no stage and method: %q", arn)
	}

	m := MethodArn{
		Region:    parts[3],
		AccountID: parts[4],
		APIID:     segments[0],
		Stage:     segments[1],
		Method:    segments[2],
	}
	if len(segments) == 4 {
		m.Path = segments[3]
	}
	return m, nil
}

// StagePrefix returns the ARN up to and including the stage
func (m MethodArn) StagePrefix() string {
	return fmt.Sprintf("arn:aws:execute-api:%s:%s:%s/%s", m.Region, m.AccountID, m.APIID, m.Stage)
}

func (m MethodArn) String() string {
	return m.StagePrefix() + "/" + m.Method + "/" + m.Path
}

// NewAuthorizer returns a TOKEN or REQUEST authorizer backed by svc. Valid
// tokens get an Allow policy over the routes in their claims; missing or
// invalid tokens fail with ErrUnauthorized.
func NewAuthorizer(svc *AuthService, logger logrus.FieldLogger) lambda.CustomAuthorizerHandler {
	return func(ctx context.Context, event events.CustomAuthorizerEvent, lc *lambda.Context, _ lambda.CustomAuthorizerCallback) (events.AuthResponse, error) {
		header := event.AuthorizationToken
		if event.Type == events.AuthorizerTypeRequest {
			header = lookupHeader(event.Headers, "Authorization")
		}

		token, ok := BearerToken(header)
		if !ok {
			return events.AuthResponse{}, ErrUnauthorized
		}

		claims, err := svc.ValidateToken(token)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"request_id": lc.AwsRequestID,
				"method_arn": event.MethodArn,
				"error":      err.Error(),
			}).Warn("Token validation failed")
			return events.AuthResponse{}, ErrUnauthorized
		}

		arn, err := ParseMethodArn(event.MethodArn)
		if err != nil {
			return events.AuthResponse{}, err
		}

		routes := claims.Routes
		if len(routes) == 0 {
			routes = []string{"*/*"}
		}
		resources := make([]string, 0, len(routes))
		for _, r := range routes {
			resources = append(resources, arn.StagePrefix()+"/"+strings.TrimPrefix(r, "/"))
		}

		logger.WithFields(logrus.Fields{
			"request_id":   lc.AwsRequestID,
			"principal_id": claims.Subject,
			"method_arn":   event.MethodArn,
		}).Debug("Principal authorized")

		return events.AuthResponse{
			PrincipalID:    claims.Subject,
			PolicyDocument: events.NewAllowPolicy(resources...),
			Context: events.AuthResponseContext{
				"username": claims.Username,
				"roles":    strings.Join(claims.Roles, ","),
			},
		}, nil
	}
}

func lookupHeader(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
