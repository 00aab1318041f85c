package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Values EventBridge uses for rule-triggered scheduled events.
const (
	ScheduledEventSource     = "aws.events"
	ScheduledEventDetailType = "Scheduled Event"
)

// ScheduledEvent is delivered by an EventBridge (CloudWatch Events) rule.
// Detail is open-ended and left undecoded.
type ScheduledEvent struct {
	Account    string          `json:"account" validate:"required"`
	Region     string          `json:"region" validate:"required"`
	Detail     json.RawMessage `json:"detail"`
	DetailType string          `json:"detail-type" validate:"required"`
	Source     string          `json:"source" validate:"required"`
	Time       string          `json:"time" validate:"required"`
	ID         string          `json:"id" validate:"required"`
	Resources  []string        `json:"resources"`
}

// DecodeDetail unmarshals Detail into v.
func (e *ScheduledEvent) DecodeDetail(v any) error {
	if len(e.Detail) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Detail, v); err != nil {
		return fmt.Errorf("decoding detail of %s event: %w", e.DetailType, err)
	}
	return nil
}

// ParsedTime parses Time, which EventBridge writes in RFC 3339.
func (e *ScheduledEvent) ParsedTime() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, e.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing event time %q: %w", e.Time, err)
	}
	return t, nil
}
