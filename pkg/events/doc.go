// Package events describes the JSON documents exchanged between the AWS Lambda
// invocation system and a handler: the inbound payloads of each event source and
// the outbound results a handler returns.
//
// Field names, casing, optionality and literal-value sets follow the platform's
// wire format. Optional fields use omitempty or omitzero, required nullable
// fields are pointers or maps that encode as null when unset, and fields that
// may be both absent and null use Nullable.
package events
