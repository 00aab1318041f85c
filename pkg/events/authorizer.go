package events

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Authorizer types API Gateway sends in CustomAuthorizerEvent.Type.
const (
	AuthorizerTypeToken   = "TOKEN"
	AuthorizerTypeRequest = "REQUEST"
)

// Policy document constants.
const (
	PolicyVersion = "2012-10-17"
	EffectAllow   = "Allow"
	EffectDeny    = "Deny"
	ActionInvoke  = "execute-api:Invoke"
)

// CustomAuthorizerEvent is the input of an API Gateway Lambda authorizer.
// TOKEN authorizers receive AuthorizationToken; REQUEST authorizers receive the
// request headers, parameters and context.
type CustomAuthorizerEvent struct {
	Type                  string                         `json:"type" validate:"required"`
	MethodArn             string                         `json:"methodArn" validate:"required"`
	AuthorizationToken    string                         `json:"authorizationToken,omitempty"`
	Headers               map[string]string              `json:"headers,omitempty"`
	PathParameters        Nullable[map[string]string]    `json:"pathParameters,omitzero"`
	QueryStringParameters Nullable[map[string]string]    `json:"queryStringParameters,omitzero"`
	RequestContext        *APIGatewayEventRequestContext `json:"requestContext,omitempty"`
}

// AuthResponseContext is the open key/value map an authorizer passes to the
// integration. API Gateway only forwards string, number and boolean values.
type AuthResponseContext map[string]any

// AuthResponse is the output of an API Gateway Lambda authorizer.
type AuthResponse struct {
	PrincipalID    string              `json:"principalId" validate:"required"`
	PolicyDocument PolicyDocument      `json:"policyDocument"`
	Context        AuthResponseContext `json:"context,omitempty"`
}

// PolicyDocument is an IAM policy returned by an authorizer.
type PolicyDocument struct {
	Version   string      `json:"Version" validate:"required"`
	Statement []Statement `json:"Statement" validate:"min=1,dive"`
}

// Statement is one policy statement. Action and Resource accept either a
// single value or a list of values.
type Statement struct {
	Action   StringOrSlice `json:"Action" validate:"min=1"`
	Effect   string        `json:"Effect" validate:"required"`
	Resource StringOrSlice `json:"Resource" validate:"min=1"`
}

// NewAllowPolicy returns a policy allowing execute-api:Invoke on resources.
func NewAllowPolicy(resources ...string) PolicyDocument {
	return newInvokePolicy(EffectAllow, resources)
}

// NewDenyPolicy returns a policy denying execute-api:Invoke on resources.
func NewDenyPolicy(resources ...string) PolicyDocument {
	return newInvokePolicy(EffectDeny, resources)
}

func newInvokePolicy(effect string, resources []string) PolicyDocument {
	resource := Single("")
	switch len(resources) {
	case 0:
	case 1:
		resource = Single(resources[0])
	default:
		resource = List(resources...)
	}

	return PolicyDocument{
		Version: PolicyVersion,
		Statement: []Statement{{
			Action:   Single(ActionInvoke),
			Effect:   effect,
			Resource: resource,
		}},
	}
}

// StringOrSlice is a policy field that is either a single string or a list of
// strings. It remembers which form it was built or decoded from.
type StringOrSlice struct {
	values []string
	list   bool
}

// Single returns a StringOrSlice encoded as a plain string.
func Single(value string) StringOrSlice {
	return StringOrSlice{values: []string{value}}
}

// List returns a StringOrSlice encoded as a JSON array.
func List(values ...string) StringOrSlice {
	return StringOrSlice{values: append([]string{}, values...), list: true}
}

// Values returns the contained strings.
func (s StringOrSlice) Values() []string {
	return s.values
}

// IsList reports whether the value is encoded as an array.
func (s StringOrSlice) IsList() bool {
	return s.list
}

func (s StringOrSlice) MarshalJSON() ([]byte, error) {
	if s.list {
		if s.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(s.values)
	}
	if len(s.values) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(s.values[0])
}

func (s *StringOrSlice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidStringOrSlice
	}

	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = Single(v)
	case '[':
		var v []string
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidStringOrSlice, err)
		}
		*s = StringOrSlice{values: v, list: true}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidStringOrSlice, data)
	}
	return nil
}
