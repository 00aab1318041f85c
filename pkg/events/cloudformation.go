package events

import (
	"encoding/json"
	"fmt"
)

// CustomResourceRequestType selects the lifecycle operation of a custom resource.
type CustomResourceRequestType string

const (
	RequestTypeCreate CustomResourceRequestType = "Create"
	RequestTypeUpdate CustomResourceRequestType = "Update"
	RequestTypeDelete CustomResourceRequestType = "Delete"
)

func (t CustomResourceRequestType) Valid() bool {
	switch t {
	case RequestTypeCreate, RequestTypeUpdate, RequestTypeDelete:
		return true
	}
	return false
}

func (t *CustomResourceRequestType) UnmarshalText(text []byte) error {
	v := CustomResourceRequestType(text)
	if !v.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRequestType, text)
	}
	*t = v
	return nil
}

// ResourceProperties are the properties declared on the resource in the
// template. ServiceToken is always present; every other key is user-defined.
type ResourceProperties map[string]any

// ServiceToken returns the function or topic ARN that receives the request.
func (p ResourceProperties) ServiceToken() string {
	s, _ := p["ServiceToken"].(string)
	return s
}

// Decode converts the properties into v through JSON.
func (p ResourceProperties) Decode(v any) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding resource properties: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding resource properties: %w", err)
	}
	return nil
}

// CustomResourceEventCommon holds the fields every request type carries.
type CustomResourceEventCommon struct {
	ServiceToken       string             `json:"ServiceToken" validate:"required"`
	ResponseURL        string             `json:"ResponseURL" validate:"required,url"`
	StackID            string             `json:"StackId" validate:"required"`
	RequestID          string             `json:"RequestId" validate:"required"`
	LogicalResourceID  string             `json:"LogicalResourceId" validate:"required"`
	ResourceType       string             `json:"ResourceType" validate:"required"`
	ResourceProperties ResourceProperties `json:"ResourceProperties" validate:"required"`
}

// Common returns the shared fields.
func (c *CustomResourceEventCommon) Common() *CustomResourceEventCommon {
	return c
}

// CustomResourceEvent is one of *CustomResourceCreateEvent,
// *CustomResourceUpdateEvent or *CustomResourceDeleteEvent.
type CustomResourceEvent interface {
	RequestType() CustomResourceRequestType
	Common() *CustomResourceEventCommon
	customResourceEvent()
}

// CustomResourceCreateEvent asks the handler to create the resource.
type CustomResourceCreateEvent struct {
	CustomResourceEventCommon
}

// CustomResourceUpdateEvent asks the handler to update an existing resource.
type CustomResourceUpdateEvent struct {
	CustomResourceEventCommon
	PhysicalResourceID    string         `json:"PhysicalResourceId" validate:"required"`
	OldResourceProperties map[string]any `json:"OldResourceProperties" validate:"required"`
}

// CustomResourceDeleteEvent asks the handler to delete the resource.
type CustomResourceDeleteEvent struct {
	CustomResourceEventCommon
	PhysicalResourceID string `json:"PhysicalResourceId" validate:"required"`
}

func (*CustomResourceCreateEvent) RequestType() CustomResourceRequestType { return RequestTypeCreate }

func (*CustomResourceUpdateEvent) RequestType() CustomResourceRequestType { return RequestTypeUpdate }

func (*CustomResourceDeleteEvent) RequestType() CustomResourceRequestType { return RequestTypeDelete }

func (*CustomResourceCreateEvent) customResourceEvent() {}
func (*CustomResourceUpdateEvent) customResourceEvent() {}
func (*CustomResourceDeleteEvent) customResourceEvent() {}

func (e CustomResourceCreateEvent) MarshalJSON() ([]byte, error) {
	type plain CustomResourceCreateEvent
	return json.Marshal(struct {
		RequestType CustomResourceRequestType `json:"RequestType"`
		plain
	}{RequestTypeCreate, plain(e)})
}

func (e CustomResourceUpdateEvent) MarshalJSON() ([]byte, error) {
	type plain CustomResourceUpdateEvent
	return json.Marshal(struct {
		RequestType CustomResourceRequestType `json:"RequestType"`
		plain
	}{RequestTypeUpdate, plain(e)})
}

func (e CustomResourceDeleteEvent) MarshalJSON() ([]byte, error) {
	type plain CustomResourceDeleteEvent
	return json.Marshal(struct {
		RequestType CustomResourceRequestType `json:"RequestType"`
		plain
	}{RequestTypeDelete, plain(e)})
}

// DecodeCustomResourceEvent reads RequestType and decodes data into the
// matching variant.
func DecodeCustomResourceEvent(data []byte) (CustomResourceEvent, error) {
	var probe struct {
		RequestType CustomResourceRequestType `json:"RequestType"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("reading custom resource request type: %w", err)
	}

	var event CustomResourceEvent
	switch probe.RequestType {
	case RequestTypeCreate:
		event = &CustomResourceCreateEvent{}
	case RequestTypeUpdate:
		event = &CustomResourceUpdateEvent{}
	case RequestTypeDelete:
		event = &CustomResourceDeleteEvent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRequestType, probe.RequestType)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("decoding %s event: %w", probe.RequestType, err)
	}
	return event, nil
}

// CustomResourceEventEnvelope lets a custom resource event be used directly as
// a handler input type.
type CustomResourceEventEnvelope struct {
	Event CustomResourceEvent
}

func (e *CustomResourceEventEnvelope) UnmarshalJSON(data []byte) error {
	event, err := DecodeCustomResourceEvent(data)
	if err != nil {
		return err
	}
	e.Event = event
	return nil
}

func (e CustomResourceEventEnvelope) MarshalJSON() ([]byte, error) {
	if e.Event == nil {
		return jsonNull, nil
	}
	return json.Marshal(e.Event)
}

// CustomResourceStatus is the outcome reported back to CloudFormation.
type CustomResourceStatus string

const (
	StatusSuccess CustomResourceStatus = "SUCCESS"
	StatusFailed  CustomResourceStatus = "FAILED"
)

func (s CustomResourceStatus) Valid() bool {
	return s == StatusSuccess || s == StatusFailed
}

func (s *CustomResourceStatus) UnmarshalText(text []byte) error {
	v := CustomResourceStatus(text)
	if !v.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, text)
	}
	*s = v
	return nil
}

// CustomResourceResponseCommon holds the fields every response carries.
type CustomResourceResponseCommon struct {
	PhysicalResourceID string         `json:"PhysicalResourceId" validate:"required"`
	StackID            string         `json:"StackId" validate:"required"`
	RequestID          string         `json:"RequestId" validate:"required"`
	LogicalResourceID  string         `json:"LogicalResourceId" validate:"required"`
	Data               map[string]any `json:"Data,omitempty"`
}

// Common returns the shared fields.
func (c *CustomResourceResponseCommon) Common() *CustomResourceResponseCommon {
	return c
}

// CustomResourceResponse is either *CustomResourceSuccessResponse or
// *CustomResourceFailedResponse.
type CustomResourceResponse interface {
	Status() CustomResourceStatus
	Common() *CustomResourceResponseCommon
	customResourceResponse()
}

// CustomResourceSuccessResponse reports success. Reason is optional.
type CustomResourceSuccessResponse struct {
	CustomResourceResponseCommon
	Reason string `json:"Reason,omitempty"`
}

// CustomResourceFailedResponse reports failure. Reason is required.
type CustomResourceFailedResponse struct {
	CustomResourceResponseCommon
	Reason string `json:"Reason" validate:"required"`
}

func (*CustomResourceSuccessResponse) Status() CustomResourceStatus { return StatusSuccess }

func (*CustomResourceFailedResponse) Status() CustomResourceStatus { return StatusFailed }

func (*CustomResourceSuccessResponse) customResourceResponse() {}
func (*CustomResourceFailedResponse) customResourceResponse()  {}

func (r CustomResourceSuccessResponse) MarshalJSON() ([]byte, error) {
	type plain CustomResourceSuccessResponse
	return json.Marshal(struct {
		Status CustomResourceStatus `json:"Status"`
		plain
	}{StatusSuccess, plain(r)})
}

func (r CustomResourceFailedResponse) MarshalJSON() ([]byte, error) {
	type plain CustomResourceFailedResponse
	return json.Marshal(struct {
		Status CustomResourceStatus `json:"Status"`
		plain
	}{StatusFailed, plain(r)})
}

// DecodeCustomResourceResponse reads Status and decodes data into the
// matching variant.
func DecodeCustomResourceResponse(data []byte) (CustomResourceResponse, error) {
	var probe struct {
		Status CustomResourceStatus `json:"Status"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("reading custom resource response status: %w", err)
	}

	var resp CustomResourceResponse
	switch probe.Status {
	case StatusSuccess:
		resp = &CustomResourceSuccessResponse{}
	case StatusFailed:
		resp = &CustomResourceFailedResponse{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, probe.Status)
	}

	if err := json.Unmarshal(data, resp); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", probe.Status, err)
	}
	return resp, nil
}

// PhysicalResourceID returns the physical ID carried by Update and Delete
// events, or "" for Create.
func PhysicalResourceID(event CustomResourceEvent) string {
	switch e := event.(type) {
	case *CustomResourceUpdateEvent:
		return e.PhysicalResourceID
	case *CustomResourceDeleteEvent:
		return e.PhysicalResourceID
	}
	return ""
}

func responseCommon(event CustomResourceEvent, physicalID string) CustomResourceResponseCommon {
	if physicalID == "" {
		physicalID = PhysicalResourceID(event)
	}
	c := event.Common()
	return CustomResourceResponseCommon{
		PhysicalResourceID: physicalID,
		StackID:            c.StackID,
		RequestID:          c.RequestID,
		LogicalResourceID:  c.LogicalResourceID,
	}
}

// NewSuccessResponse builds a SUCCESS response for event. An empty physicalID
// keeps the one the event already carries.
func NewSuccessResponse(event CustomResourceEvent, physicalID string, data map[string]any) *CustomResourceSuccessResponse {
	resp := &CustomResourceSuccessResponse{CustomResourceResponseCommon: responseCommon(event, physicalID)}
	resp.Data = data
	return resp
}

// NewFailedResponse builds a FAILED response for event.
func NewFailedResponse(event CustomResourceEvent, physicalID, reason string) *CustomResourceFailedResponse {
	return &CustomResourceFailedResponse{
		CustomResourceResponseCommon: responseCommon(event, physicalID),
		Reason:                       reason,
	}
}
