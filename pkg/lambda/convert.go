package lambda

import (
	awsevents "github.com/aws/aws-lambda-go/events"

	"lambda-events/pkg/events"
)

// FromProxyRequest converts an aws-lambda-go proxy request into an
// APIGatewayEvent. An empty body becomes null.
func FromProxyRequest(req awsevents.APIGatewayProxyRequest) events.APIGatewayEvent {
	rc := req.RequestContext
	id := rc.Identity

	event := events.APIGatewayEvent{
		Headers:               req.Headers,
		HTTPMethod:            req.HTTPMethod,
		IsBase64Encoded:       req.IsBase64Encoded,
		Path:                  req.Path,
		PathParameters:        req.PathParameters,
		QueryStringParameters: req.QueryStringParameters,
		StageVariables:        req.StageVariables,
		Resource:              req.Resource,
		RequestContext: events.APIGatewayEventRequestContext{
			AccountID:        rc.AccountID,
			APIID:            rc.APIID,
			HTTPMethod:       rc.HTTPMethod,
			Stage:            rc.Stage,
			RequestID:        rc.RequestID,
			RequestTimeEpoch: rc.RequestTimeEpoch,
			ResourceID:       rc.ResourceID,
			ResourcePath:     rc.ResourcePath,
			Identity: events.APIGatewayEventIdentity{
				AccessKey:                     optional(id.AccessKey),
				AccountID:                     optional(id.AccountID),
				APIKey:                        optional(id.APIKey),
				Caller:                        optional(id.Caller),
				CognitoAuthenticationProvider: optional(id.CognitoAuthenticationProvider),
				CognitoAuthenticationType:     optional(id.CognitoAuthenticationType),
				CognitoIdentityID:             optional(id.CognitoIdentityID),
				CognitoIdentityPoolID:         optional(id.CognitoIdentityPoolID),
				SourceIP:                      id.SourceIP,
				User:                          optional(id.User),
				UserAgent:                     optional(id.UserAgent),
				UserArn:                       optional(id.UserArn),
			},
		},
	}

	if req.Body != "" {
		body := req.Body
		event.Body = &body
	}
	if rc.Authorizer != nil {
		event.RequestContext.Authorizer = events.Some(events.AuthResponseContext(rc.Authorizer))
	}
	return event
}

// ToProxyResponse converts a ProxyResult into the aws-lambda-go response type,
// rendering header values as strings.
func ToProxyResponse(r events.ProxyResult) awsevents.APIGatewayProxyResponse {
	resp := awsevents.APIGatewayProxyResponse{
		StatusCode:      r.StatusCode,
		Body:            r.Body,
		IsBase64Encoded: r.IsBase64Encoded,
	}
	if len(r.Headers) > 0 {
		resp.Headers = r.HeaderStrings()
	}
	return resp
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
