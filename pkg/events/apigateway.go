package events

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// APIGatewayEventIdentity is the caller identity attached to a proxy request.
// Every field except SourceIP may be null.
type APIGatewayEventIdentity struct {
	AccessKey                     *string `json:"accessKey"`
	AccountID                     *string `json:"accountId"`
	APIKey                        *string `json:"apiKey"`
	Caller                        *string `json:"caller"`
	CognitoAuthenticationProvider *string `json:"cognitoAuthenticationProvider"`
	CognitoAuthenticationType     *string `json:"cognitoAuthenticationType"`
	CognitoIdentityID             *string `json:"cognitoIdentityId"`
	CognitoIdentityPoolID         *string `json:"cognitoIdentityPoolId"`
	SourceIP                      string  `json:"sourceIp"`
	User                          *string `json:"user"`
	UserAgent                     *string `json:"userAgent"`
	UserArn                       *string `json:"userArn"`
}

// APIGatewayEventRequestContext is the request metadata API Gateway adds to a
// proxy request.
type APIGatewayEventRequestContext struct {
	AccountID        string                        `json:"accountId" validate:"required"`
	APIID            string                        `json:"apiId" validate:"required"`
	Authorizer       Nullable[AuthResponseContext] `json:"authorizer,omitzero"`
	HTTPMethod       string                        `json:"httpMethod" validate:"required"`
	Identity         APIGatewayEventIdentity       `json:"identity"`
	Stage            string                        `json:"stage" validate:"required"`
	RequestID        string                        `json:"requestId" validate:"required"`
	RequestTimeEpoch int64                         `json:"requestTimeEpoch"`
	ResourceID       string                        `json:"resourceId"`
	ResourcePath     string                        `json:"resourcePath"`
}

// APIGatewayEvent is the Lambda proxy integration request.
type APIGatewayEvent struct {
	Body                  *string                       `json:"body"`
	Headers               map[string]string             `json:"headers"`
	HTTPMethod            string                        `json:"httpMethod" validate:"required"`
	IsBase64Encoded       bool                          `json:"isBase64Encoded"`
	Path                  string                        `json:"path" validate:"required"`
	PathParameters        map[string]string             `json:"pathParameters"`
	QueryStringParameters map[string]string             `json:"queryStringParameters"`
	StageVariables        map[string]string             `json:"stageVariables"`
	RequestContext        APIGatewayEventRequestContext `json:"requestContext"`
	Resource              string                        `json:"resource"`
}

// Header returns the value of the named header, matching case-insensitively.
func (e *APIGatewayEvent) Header(name string) string {
	if v, ok := e.Headers[name]; ok {
		return v
	}
	for k, v := range e.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// DecodedBody returns the request body, base64-decoding it when the event says so.
// A null body yields nil.
func (e *APIGatewayEvent) DecodedBody() ([]byte, error) {
	if e.Body == nil {
		return nil, nil
	}
	if !e.IsBase64Encoded {
		return []byte(*e.Body), nil
	}
	data, err := base64.StdEncoding.DecodeString(*e.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 body: %w", err)
	}
	return data, nil
}

// ProxyResult is the response a proxy integration handler returns.
type ProxyResult struct {
	StatusCode      int                    `json:"statusCode" validate:"min=100,max=599"`
	Headers         map[string]HeaderValue `json:"headers,omitempty"`
	Body            string                 `json:"body"`
	IsBase64Encoded bool                   `json:"isBase64Encoded,omitempty"`
}

// NewProxyResult returns a result with the given status and body.
func NewProxyResult(statusCode int, body string) ProxyResult {
	return ProxyResult{StatusCode: statusCode, Body: body}
}

// SetHeader sets a response header, allocating the header map if needed.
func (r *ProxyResult) SetHeader(name string, value HeaderValue) {
	if r.Headers == nil {
		r.Headers = make(map[string]HeaderValue)
	}
	r.Headers[name] = value
}

// HeaderStrings renders every header value the way API Gateway writes it on
// the HTTP response.
func (r *ProxyResult) HeaderStrings() map[string]string {
	out := make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		out[k] = v.String()
	}
	return out
}

// DecodedBody returns the response body, base64-decoding it when flagged.
func (r *ProxyResult) DecodedBody() ([]byte, error) {
	if !r.IsBase64Encoded {
		return []byte(r.Body), nil
	}
	data, err := base64.StdEncoding.DecodeString(r.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 body: %w", err)
	}
	return data, nil
}

// HeaderKind identifies which of the three allowed JSON types a header holds.
type HeaderKind int

const (
	HeaderKindString HeaderKind = iota
	HeaderKindNumber
	HeaderKindBool
)

// HeaderValue is a proxy result header value: a boolean, a number or a string.
// Numbers keep their literal text so large integers survive a round trip.
type HeaderValue struct {
	kind HeaderKind
	str  string
	b    bool
}

func StringHeader(s string) HeaderValue { return HeaderValue{kind: HeaderKindString, str: s} }

func NumberHeader(n float64) HeaderValue {
	return HeaderValue{kind: HeaderKindNumber, str: strconv.FormatFloat(n, 'f', -1, 64)}
}

// NumberLiteralHeader holds n exactly as written.
func NumberLiteralHeader(n json.Number) HeaderValue {
	return HeaderValue{kind: HeaderKindNumber, str: n.String()}
}

func BoolHeader(b bool) HeaderValue { return HeaderValue{kind: HeaderKindBool, b: b} }

func (h HeaderValue) Kind() HeaderKind { return h.kind }

// Number returns the literal of a numeric header.
func (h HeaderValue) Number() (json.Number, bool) {
	return json.Number(h.str), h.kind == HeaderKindNumber
}

// String renders the value as it appears on the wire.
func (h HeaderValue) String() string {
	if h.kind == HeaderKindBool {
		return strconv.FormatBool(h.b)
	}
	return h.str
}

func (h HeaderValue) MarshalJSON() ([]byte, error) {
	switch h.kind {
	case HeaderKindNumber:
		return json.Marshal(json.Number(h.str))
	case HeaderKindBool:
		return json.Marshal(h.b)
	default:
		return json.Marshal(h.str)
	}
}

func (h *HeaderValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidHeaderValue
	}

	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = StringHeader(s)
	case c == 't' || c == 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidHeaderValue, data)
		}
		*h = BoolHeader(b)
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidHeaderValue, data)
		}
		*h = NumberLiteralHeader(n)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidHeaderValue, data)
	}
	return nil
}
