package customresource

import (
	"context"
	"fmt"

	"lambda-events/pkg/events"
	"lambda-events/pkg/lambda"
)

// Provider implements the lifecycle of one custom resource type. Create and
// Update return the physical resource ID and the attributes exposed through
// Fn::GetAtt; an empty ID on Update keeps the current one.
type Provider interface {
	Create(ctx context.Context, event *events.CustomResourceCreateEvent) (string, map[string]any, error)
	Update(ctx context.Context, event *events.CustomResourceUpdateEvent) (string, map[string]any, error)
	Delete(ctx context.Context, event *events.CustomResourceDeleteEvent) error
}

// NewHandler dispatches each event to p and reports the outcome through
// sender. Provider errors become FAILED responses; only a delivery failure
// fails the invocation.
func NewHandler(p Provider, sender *Sender) lambda.Handler[events.CustomResourceEventEnvelope, events.CustomResourceResponse] {
	return func(ctx context.Context, envelope events.CustomResourceEventEnvelope, lc *lambda.Context, _ lambda.Callback[events.CustomResourceResponse]) (events.CustomResourceResponse, error) {
		event := envelope.Event
		if event == nil {
			return nil, fmt.Errorf("empty custom resource event")
		}

		resp := Dispatch(ctx, p, event, lc)
		if err := sender.Send(ctx, event, resp); err != nil {
			return nil, err
		}
		return resp, nil
	}
}

// Dispatch runs the provider operation matching event and builds the
// response, without delivering it.
func Dispatch(ctx context.Context, p Provider, event events.CustomResourceEvent, lc *lambda.Context) events.CustomResourceResponse {
	var (
		physicalID string
		data       map[string]any
		err        error
	)

	if verr := events.Validate(event); verr != nil {
		err = verr
	} else {
		switch e := event.(type) {
		case *events.CustomResourceCreateEvent:
			physicalID, data, err = p.Create(ctx, e)
			if err == nil && physicalID == "" {
				physicalID = defaultPhysicalID(e.Common(), lc)
			}
		case *events.CustomResourceUpdateEvent:
			physicalID, data, err = p.Update(ctx, e)
		case *events.CustomResourceDeleteEvent:
			err = p.Delete(ctx, e)
		}
	}

	if err != nil {
		// A failed Create has no resource yet; CloudFormation still needs an ID.
		if physicalID == "" && events.PhysicalResourceID(event) == "" {
			physicalID = defaultPhysicalID(event.Common(), lc)
		}
		return events.NewFailedResponse(event, physicalID, err.Error())
	}
	return events.NewSuccessResponse(event, physicalID, data)
}

func defaultPhysicalID(c *events.CustomResourceEventCommon, lc *lambda.Context) string {
	if lc != nil && lc.LogStreamName != "" {
		return lc.LogStreamName
	}
	return c.LogicalResourceID + "-" + c.RequestID
}
