package functions

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"lambda-events/internal/logging"
	"lambda-events/pkg/events"
	"lambda-events/pkg/lambda"
)

var errNoRecords = errors.New("event has no records")

var securityHeaders = []struct{ name, value string }{
	{"Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "same-origin"},
}

// NewEdgeRedirect returns a viewer-request handler that redirects requests
// for the keys of redirects with a 301, and lets everything else through.
// Directory URIs are rewritten to their index.html. The result is either the
// (possibly rewritten) request or a generated response.
func NewEdgeRedirect(redirects map[string]string, logger logrus.FieldLogger) lambda.Handler[events.CloudFrontRequestEvent, any] {
	return func(ctx context.Context, event events.CloudFrontRequestEvent, lc *lambda.Context, _ lambda.Callback[any]) (any, error) {
		if len(event.Records) == 0 {
			return nil, errNoRecords
		}
		request := event.Records[0].CF.Request

		if target, ok := redirects[request.URI]; ok {
			logging.ForInvocation(logger, lc).WithFields(logrus.Fields{
				"uri":    request.URI,
				"target": target,
			}).Info("Redirecting")

			headers := events.CloudFrontHeaders{}
			headers.Set("Location", target)
			return events.CloudFrontResponse{
				Status:            "301",
				StatusDescription: http.StatusText(http.StatusMovedPermanently),
				Headers:           headers,
			}, nil
		}

		if strings.HasSuffix(request.URI, "/") {
			request.URI += "index.html"
		}
		return request, nil
	}
}

// NewSecurityHeaders returns an origin-response handler that adds security
// headers the origin did not set.
func NewSecurityHeaders(logger logrus.FieldLogger) lambda.Handler[events.CloudFrontResponseEvent, events.CloudFrontResponse] {
	return func(ctx context.Context, event events.CloudFrontResponseEvent, lc *lambda.Context, _ lambda.Callback[events.CloudFrontResponse]) (events.CloudFrontResponse, error) {
		if len(event.Records) == 0 {
			return events.CloudFrontResponse{}, errNoRecords
		}
		response := event.Records[0].CF.Response
		if response.Headers == nil {
			response.Headers = events.CloudFrontHeaders{}
		}

		added := 0
		for _, h := range securityHeaders {
			if response.Headers.Get(h.name) == "" {
				response.Headers.Set(h.name, h.value)
				added++
			}
		}

		logging.ForInvocation(logger, lc).WithField("added", added).Debug("Security headers applied")
		return response, nil
	}
}
