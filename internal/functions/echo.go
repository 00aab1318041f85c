package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"lambda-events/internal/logging"
	"lambda-events/pkg/events"
	"lambda-events/pkg/lambda"
)

// EchoResponse is the body the echo function returns.
type EchoResponse struct {
	Message   string            `json:"message"`
	Method    string            `json:"method"`
	Path      string            `json:"path"`
	Query     map[string]string `json:"query,omitempty"`
	Principal string            `json:"principal,omitempty"`
	RequestID string            `json:"requestId"`
	Body      string            `json:"body,omitempty"`
	Remaining int64             `json:"remainingMs"`
}

// NewEcho returns a proxy handler that describes the request it received.
// A "status" query parameter overrides the response status.
func NewEcho(logger logrus.FieldLogger) lambda.ProxyHandler {
	return func(ctx context.Context, event events.APIGatewayEvent, lc *lambda.Context, _ lambda.ProxyCallback) (events.ProxyResult, error) {
		status := http.StatusOK
		if s, ok := event.QueryStringParameters["status"]; ok {
			n, err := strconv.Atoi(s)
			if err != nil || n < 100 || n > 599 {
				return errorResult(http.StatusBadRequest, fmt.Sprintf("invalid status %q", s)), nil
			}
			status = n
		}

		body, err := event.DecodedBody()
		if err != nil {
			return errorResult(http.StatusBadRequest, "body is not valid base64"), nil
		}

		resp := EchoResponse{
			Message:   "Hello from " + lc.FunctionName,
			Method:    event.HTTPMethod,
			Path:      event.Path,
			Query:     event.QueryStringParameters,
			RequestID: event.RequestContext.RequestID,
			Body:      string(body),
			Remaining: lc.GetRemainingTimeInMillis(),
		}
		if authorizer, ok := event.RequestContext.Authorizer.Get(); ok {
			if p, ok := authorizer["principalId"].(string); ok {
				resp.Principal = p
			}
		}

		logging.ForInvocation(logger, lc).WithFields(logrus.Fields{
			"method": event.HTTPMethod,
			"path":   event.Path,
		}).Debug("Echoing request")

		return jsonResult(status, resp)
	}
}

func jsonResult(status int, v any) (events.ProxyResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return events.ProxyResult{}, fmt.Errorf("failed to encode response: %w", err)
	}
	result := events.NewProxyResult(status, string(raw))
	result.SetHeader("Content-Type", events.StringHeader("application/json"))
	result.SetHeader("Content-Length", events.NumberHeader(float64(len(raw))))
	return result, nil
}

func errorResult(status int, message string) events.ProxyResult {
	result, _ := jsonResult(status, map[string]string{"message": message})
	return result
}
