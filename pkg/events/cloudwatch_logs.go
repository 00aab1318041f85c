package events

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Message types found in CloudWatchLogsDecodedData.MessageType.
const (
	LogsMessageTypeData    = "DATA_MESSAGE"
	LogsMessageTypeControl = "CONTROL_MESSAGE"
)

// CloudWatchLogsEvent is delivered by a log group subscription filter.
type CloudWatchLogsEvent struct {
	AWSLogs CloudWatchLogsEventData `json:"awslogs"`
}

// CloudWatchLogsEventData carries the gzip-compressed, base64-encoded batch.
type CloudWatchLogsEventData struct {
	Data string `json:"data" validate:"required,base64"`
}

// CloudWatchLogsDecodedData is the JSON document inside Data.
type CloudWatchLogsDecodedData struct {
	Owner               string                   `json:"owner"`
	LogGroup            string                   `json:"logGroup"`
	LogStream           string                   `json:"logStream"`
	SubscriptionFilters []string                 `json:"subscriptionFilters"`
	MessageType         string                   `json:"messageType"`
	LogEvents           []CloudWatchLogsLogEvent `json:"logEvents"`
}

// CloudWatchLogsLogEvent is one log line. Timestamp is in epoch milliseconds.
type CloudWatchLogsLogEvent struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// Parse decodes the base64 payload, inflates it and unmarshals the batch.
func (d CloudWatchLogsEventData) Parse() (CloudWatchLogsDecodedData, error) {
	var out CloudWatchLogsDecodedData

	compressed, err := base64.StdEncoding.DecodeString(d.Data)
	if err != nil {
		return out, fmt.Errorf("decoding awslogs data: %w", err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return out, fmt.Errorf("opening awslogs gzip stream: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return out, fmt.Errorf("inflating awslogs data: %w", err)
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unmarshalling awslogs data: %w", err)
	}
	return out, nil
}

// NewCloudWatchLogsEventData encodes a batch the way CloudWatch Logs delivers it.
func NewCloudWatchLogsEventData(decoded CloudWatchLogsDecodedData) (CloudWatchLogsEventData, error) {
	raw, err := json.Marshal(decoded)
	if err != nil {
		return CloudWatchLogsEventData{}, fmt.Errorf("marshalling awslogs data: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return CloudWatchLogsEventData{}, fmt.Errorf("compressing awslogs data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return CloudWatchLogsEventData{}, fmt.Errorf("compressing awslogs data: %w", err)
	}

	return CloudWatchLogsEventData{Data: base64.StdEncoding.EncodeToString(buf.Bytes())}, nil
}
