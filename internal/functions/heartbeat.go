package functions

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"lambda-events/internal/logging"
	"lambda-events/pkg/events"
	"lambda-events/pkg/lambda"
)

// Heartbeat reports which rule fired and how late the invocation ran.
type Heartbeat struct {
	Rule        string         `json:"rule"`
	ScheduledAt time.Time      `json:"scheduledAt"`
	LagMS       int64          `json:"lagMs"`
	Detail      map[string]any `json:"detail,omitempty"`
}

// NewHeartbeat returns a handler for EventBridge scheduled events. now is
// the clock used to compute the lag; nil means time.Now.
func NewHeartbeat(logger logrus.FieldLogger, now func() time.Time) lambda.Handler[events.ScheduledEvent, Heartbeat] {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, event events.ScheduledEvent, lc *lambda.Context, _ lambda.Callback[Heartbeat]) (Heartbeat, error) {
		scheduled, err := event.ParsedTime()
		if err != nil {
			return Heartbeat{}, err
		}

		var detail map[string]any
		if err := event.DecodeDetail(&detail); err != nil {
			return Heartbeat{}, err
		}

		hb := Heartbeat{
			ScheduledAt: scheduled,
			LagMS:       now().Sub(scheduled).Milliseconds(),
			Detail:      detail,
		}
		if len(event.Resources) > 0 {
			hb.Rule = event.Resources[0]
		}

		entry := logging.ForInvocation(logger, lc).WithFields(logrus.Fields{
			"rule":   hb.Rule,
			"lag_ms": hb.LagMS,
		})
		if event.Source != events.ScheduledEventSource || event.DetailType != events.ScheduledEventDetailType {
			entry.WithField("source", event.Source).Warn("Unexpected event source")
		} else {
			entry.Info("Heartbeat")
		}
		return hb, nil
	}
}
