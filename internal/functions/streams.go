package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"lambda-events/internal/logging"
	"lambda-events/pkg/events"
	"lambda-events/pkg/lambda"
)

// LogsSummary counts the log lines of one subscription batch by severity.
type LogsSummary struct {
	LogGroup  string         `json:"logGroup"`
	LogStream string         `json:"logStream"`
	Control   bool           `json:"control,omitempty"`
	Total     int            `json:"total"`
	Levels    map[string]int `json:"levels"`
	Errors    []string       `json:"errors,omitempty"`
}

var logLevels = []string{"ERROR", "WARN", "INFO", "DEBUG"}

// NewLogsSummarizer returns a handler for CloudWatch Logs subscription
// batches. Control messages are acknowledged without counting.
func NewLogsSummarizer(logger logrus.FieldLogger) lambda.Handler[events.CloudWatchLogsEvent, LogsSummary] {
	return func(ctx context.Context, event events.CloudWatchLogsEvent, lc *lambda.Context, _ lambda.Callback[LogsSummary]) (LogsSummary, error) {
		data, err := event.AWSLogs.Parse()
		if err != nil {
			return LogsSummary{}, err
		}

		summary := LogsSummary{
			LogGroup:  data.LogGroup,
			LogStream: data.LogStream,
			Levels:    map[string]int{},
		}
		if data.MessageType == events.LogsMessageTypeControl {
			summary.Control = true
			return summary, nil
		}

		for _, e := range data.LogEvents {
			summary.Total++
			level := levelOf(e.Message)
			summary.Levels[level]++
			if level == "ERROR" {
				summary.Errors = append(summary.Errors, e.ID)
			}
		}

		logging.ForInvocation(logger, lc).WithFields(logrus.Fields{
			"log_group": data.LogGroup,
			"total":     summary.Total,
			"errors":    len(summary.Errors),
		}).Info("Log batch summarized")
		return summary, nil
	}
}

func levelOf(message string) string {
	upper := strings.ToUpper(message)
	for _, l := range logLevels {
		if strings.Contains(upper, l) {
			return l
		}
	}
	return "OTHER"
}

// StreamSummary describes one DynamoDB stream batch.
type StreamSummary struct {
	Counts map[events.DynamoDBEventName]int `json:"counts"`
	Keys   []string                         `json:"keys"`
}

// NewStreamSummarizer returns a handler for DynamoDB stream batches that
// counts changes by kind and lists the changed keys.
func NewStreamSummarizer(logger logrus.FieldLogger) lambda.Handler[events.DynamoDBStreamEvent, StreamSummary] {
	return func(ctx context.Context, event events.DynamoDBStreamEvent, lc *lambda.Context, _ lambda.Callback[StreamSummary]) (StreamSummary, error) {
		summary := StreamSummary{Counts: map[events.DynamoDBEventName]int{}, Keys: []string{}}

		for _, r := range event.Records {
			summary.Counts[r.EventName]++
			if r.DynamoDB != nil && len(r.DynamoDB.Keys) > 0 {
				summary.Keys = append(summary.Keys, FormatKey(r.DynamoDB.Keys))
			}
		}

		logging.ForInvocation(logger, lc).WithField("records", len(event.Records)).Info("Stream batch summarized")
		return summary, nil
	}
}

// FormatKey renders a key as name=value pairs in name order.
func FormatKey(key map[string]events.AttributeValue) string {
	names := make([]string, 0, len(key))
	for name := range key {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+scalar(key[name]))
	}
	return strings.Join(parts, ",")
}

func scalar(av events.AttributeValue) string {
	switch av.DataType() {
	case events.AttributeTypeString:
		return *av.S
	case events.AttributeTypeNumber:
		return *av.N
	case events.AttributeTypeBinary:
		return fmt.Sprintf("%x", av.B)
	default:
		raw, _ := json.Marshal(av)
		return string(raw)
	}
}

// NotificationResult is returned by the SNS function.
type NotificationResult struct {
	Processed []string                  `json:"processed"`
	Payloads  map[string]map[string]any `json:"payloads,omitempty"`
}

// NewNotificationHandler returns a handler for SNS deliveries. Messages that
// hold a JSON object are decoded; others are recorded as processed only.
func NewNotificationHandler(logger logrus.FieldLogger) lambda.Handler[events.SNSEvent, NotificationResult] {
	return func(ctx context.Context, event events.SNSEvent, lc *lambda.Context, _ lambda.Callback[NotificationResult]) (NotificationResult, error) {
		result := NotificationResult{Processed: []string{}}

		for _, r := range event.Records {
			msg := r.SNS
			result.Processed = append(result.Processed, msg.MessageID)

			var payload map[string]any
			if json.Unmarshal([]byte(msg.Message), &payload) == nil {
				if result.Payloads == nil {
					result.Payloads = map[string]map[string]any{}
				}
				result.Payloads[msg.MessageID] = payload
			}

			logging.ForInvocation(logger, lc).WithFields(logrus.Fields{
				"message_id": msg.MessageID,
				"topic_arn":  msg.TopicArn,
				"subject":    msg.Subject,
				"attributes": len(msg.MessageAttributes),
			}).Info("Notification received")
		}
		return result, nil
	}
}
