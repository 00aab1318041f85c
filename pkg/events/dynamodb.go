package events

import (
	"encoding/json"
)

// AttributeType names the member of an AttributeValue that is set.
type AttributeType string

const (
	AttributeTypeBinary    AttributeType = "B"
	AttributeTypeBinarySet AttributeType = "BS"
	AttributeTypeBoolean   AttributeType = "BOOL"
	AttributeTypeList      AttributeType = "L"
	AttributeTypeMap       AttributeType = "M"
	AttributeTypeNumber    AttributeType = "N"
	AttributeTypeNumberSet AttributeType = "NS"
	AttributeTypeNull      AttributeType = "NULL"
	AttributeTypeString    AttributeType = "S"
	AttributeTypeStringSet AttributeType = "SS"
)

// AttributeValue is a DynamoDB attribute as it appears in a stream record.
// Exactly one member is normally set. Binary members are base64 on the wire.
type AttributeValue struct {
	B    []byte                    `json:"B,omitempty"`
	BS   [][]byte                  `json:"BS,omitempty"`
	BOOL *bool                     `json:"BOOL,omitempty"`
	L    []AttributeValue          `json:"L,omitempty"`
	M    map[string]AttributeValue `json:"M,omitempty"`
	N    *string                   `json:"N,omitempty"`
	NS   []string                  `json:"NS,omitempty"`
	NULL *bool                     `json:"NULL,omitempty"`
	S    *string                   `json:"S,omitempty"`
	SS   []string                  `json:"SS,omitempty"`
}

func StringValue(s string) AttributeValue { return AttributeValue{S: &s} }

func NumberValue(n string) AttributeValue { return AttributeValue{N: &n} }

func BoolValue(b bool) AttributeValue { return AttributeValue{BOOL: &b} }

func BinaryValue(b []byte) AttributeValue { return AttributeValue{B: b} }

func NullValue() AttributeValue {
	t := true
	return AttributeValue{NULL: &t}
}

func ListValue(items ...AttributeValue) AttributeValue {
	return AttributeValue{L: append([]AttributeValue{}, items...)}
}

func MapValue(m map[string]AttributeValue) AttributeValue {
	if m == nil {
		m = map[string]AttributeValue{}
	}
	return AttributeValue{M: m}
}

func StringSetValue(ss ...string) AttributeValue { return AttributeValue{SS: ss} }

func NumberSetValue(ns ...string) AttributeValue { return AttributeValue{NS: ns} }

// DataType returns the first member that is set, or "" for an empty value.
func (av AttributeValue) DataType() AttributeType {
	switch {
	case av.B != nil:
		return AttributeTypeBinary
	case av.BS != nil:
		return AttributeTypeBinarySet
	case av.BOOL != nil:
		return AttributeTypeBoolean
	case av.L != nil:
		return AttributeTypeList
	case av.M != nil:
		return AttributeTypeMap
	case av.N != nil:
		return AttributeTypeNumber
	case av.NS != nil:
		return AttributeTypeNumberSet
	case av.NULL != nil:
		return AttributeTypeNull
	case av.S != nil:
		return AttributeTypeString
	case av.SS != nil:
		return AttributeTypeStringSet
	}
	return ""
}

// MarshalJSON writes every member that is non-nil, so empty lists and maps
// survive a round trip.
func (av AttributeValue) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 1)
	if av.B != nil {
		m["B"] = av.B
	}
	if av.BS != nil {
		m["BS"] = av.BS
	}
	if av.BOOL != nil {
		m["BOOL"] = *av.BOOL
	}
	if av.L != nil {
		m["L"] = av.L
	}
	if av.M != nil {
		m["M"] = av.M
	}
	if av.N != nil {
		m["N"] = *av.N
	}
	if av.NS != nil {
		m["NS"] = av.NS
	}
	if av.NULL != nil {
		m["NULL"] = *av.NULL
	}
	if av.S != nil {
		m["S"] = *av.S
	}
	if av.SS != nil {
		m["SS"] = av.SS
	}
	return json.Marshal(m)
}

// StreamViewType selects which item images a stream record carries.
type StreamViewType string

const (
	StreamViewTypeKeysOnly        StreamViewType = "KEYS_ONLY"
	StreamViewTypeNewImage        StreamViewType = "NEW_IMAGE"
	StreamViewTypeOldImage        StreamViewType = "OLD_IMAGE"
	StreamViewTypeNewAndOldImages StreamViewType = "NEW_AND_OLD_IMAGES"
)

func (t StreamViewType) Valid() bool {
	switch t {
	case StreamViewTypeKeysOnly, StreamViewTypeNewImage, StreamViewTypeOldImage, StreamViewTypeNewAndOldImages:
		return true
	}
	return false
}

func (t *StreamViewType) UnmarshalText(text []byte) error {
	v := StreamViewType(text)
	if !v.Valid() {
		return unknownLiteral("StreamViewType", text)
	}
	*t = v
	return nil
}

// StreamRecord is the data of one item change.
type StreamRecord struct {
	ApproximateCreationTime float64                   `json:"ApproximateCreationTime,omitempty"`
	Keys                    map[string]AttributeValue `json:"Keys,omitempty"`
	NewImage                map[string]AttributeValue `json:"NewImage,omitempty"`
	OldImage                map[string]AttributeValue `json:"OldImage,omitempty"`
	SequenceNumber          string                    `json:"SequenceNumber,omitempty"`
	SizeBytes               int64                     `json:"SizeBytes,omitempty"`
	StreamViewType          StreamViewType            `json:"StreamViewType,omitempty" validate:"omitempty,awsenum"`
}

// DynamoDBEventName is the kind of change a stream record describes.
type DynamoDBEventName string

const (
	DynamoDBEventInsert DynamoDBEventName = "INSERT"
	DynamoDBEventModify DynamoDBEventName = "MODIFY"
	DynamoDBEventRemove DynamoDBEventName = "REMOVE"
)

func (n DynamoDBEventName) Valid() bool {
	switch n {
	case DynamoDBEventInsert, DynamoDBEventModify, DynamoDBEventRemove:
		return true
	}
	return false
}

func (n *DynamoDBEventName) UnmarshalText(text []byte) error {
	v := DynamoDBEventName(text)
	if !v.Valid() {
		return unknownLiteral("eventName", text)
	}
	*n = v
	return nil
}

// DynamoDBRecord is one change record delivered from a DynamoDB stream.
type DynamoDBRecord struct {
	AWSRegion      string            `json:"awsRegion,omitempty"`
	DynamoDB       *StreamRecord     `json:"dynamodb,omitempty"`
	EventID        string            `json:"eventID,omitempty"`
	EventName      DynamoDBEventName `json:"eventName,omitempty" validate:"omitempty,awsenum"`
	EventSource    string            `json:"eventSource,omitempty"`
	EventSourceARN string            `json:"eventSourceARN,omitempty"`
	EventVersion   string            `json:"eventVersion,omitempty"`
	UserIdentity   json.RawMessage   `json:"userIdentity,omitempty"`
}

// DynamoDBStreamEvent is a batch of stream records.
type DynamoDBStreamEvent struct {
	Records []DynamoDBRecord `json:"Records" validate:"dive"`
}
