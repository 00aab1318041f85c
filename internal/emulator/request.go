package emulator

import (
	"encoding/base64"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"lambda-events/pkg/events"
)

// ProxyResource is the greedy resource every request is routed through.
const ProxyResource = "/{proxy+}"

// EventOptions describe the API the emulated requests arrive on.
type EventOptions struct {
	AccountID      string
	APIID          string
	Stage          string
	StageVariables map[string]string
	BinaryTypes    []glob.Glob
}

// CompileBinaryTypes compiles binary media type patterns such as "image/*".
func CompileBinaryTypes(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// NewProxyEvent converts an HTTP request into the proxy integration event API
// Gateway would deliver. Multi-valued headers and query parameters keep their
// last value; empty collections and bodies are null.
func NewProxyEvent(r *http.Request, body []byte, opts EventOptions) events.APIGatewayEvent {
	now := time.Now()
	path := r.URL.Path
	if path == "" {
		path = "/"
	}

	headers := lastValues(r.Header)
	if r.Host != "" {
		if headers == nil {
			headers = make(map[string]string, 1)
		}
		headers["Host"] = r.Host
	}

	event := events.APIGatewayEvent{
		Headers:               headers,
		HTTPMethod:            r.Method,
		Path:                  path,
		QueryStringParameters: lastValues(r.URL.Query()),
		StageVariables:        nonEmpty(opts.StageVariables),
		Resource:              ProxyResource,
		RequestContext: events.APIGatewayEventRequestContext{
			AccountID:        opts.AccountID,
			APIID:            opts.APIID,
			HTTPMethod:       r.Method,
			Stage:            opts.Stage,
			RequestID:        uuid.New().String(),
			RequestTimeEpoch: now.UnixMilli(),
			ResourceID:       "proxy",
			ResourcePath:     ProxyResource,
			Identity: events.APIGatewayEventIdentity{
				SourceIP:  clientIP(r),
				UserAgent: optional(r.UserAgent()),
			},
		},
	}

	if proxy := strings.TrimPrefix(path, "/"); proxy != "" {
		event.PathParameters = map[string]string{"proxy": proxy}
	}

	if len(body) > 0 {
		var encoded string
		if isBinary(r.Header.Get("Content-Type"), opts.BinaryTypes) {
			encoded = base64.StdEncoding.EncodeToString(body)
			event.IsBase64Encoded = true
		} else {
			encoded = string(body)
		}
		event.Body = &encoded
	}

	return event
}

// MethodArn returns the execute-api ARN an authorizer sees for event.
func MethodArn(region string, event events.APIGatewayEvent) string {
	rc := event.RequestContext
	return "arn:aws:execute-api:" + region + ":" + rc.AccountID + ":" + rc.APIID + "/" +
		rc.Stage + "/" + event.HTTPMethod + "/" + strings.TrimPrefix(event.Path, "/")
}

func isBinary(contentType string, types []glob.Glob) bool {
	if contentType == "" || len(types) == 0 {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	for _, g := range types {
		if g.Match(mediaType) {
			return true
		}
	}
	return false
}

func lastValues(values map[string][]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[len(v)-1]
		}
	}
	return out
}

func nonEmpty(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
