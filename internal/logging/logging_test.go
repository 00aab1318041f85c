package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lambda-events/internal/config"
	"lambda-events/pkg/lambda"
)

func TestNewLevels(t *testing.T) {
	logger := New(config.LoggingConfig{Level: "debug", Format: "json"}, &bytes.Buffer{})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger = New(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	logger = New(config.LoggingConfig{Format: "text"}, &bytes.Buffer{})
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestObserver(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
		wantMsg   string
	}{
		{"success", nil, "info", "Invocation completed"},
		{"failure", errors.New("bad"), "warning", "Invocation failed"},
		{"timeout", fmt.Errorf("%w after 3.00 seconds", lambda.ErrTimeout), "error", "Invocation timed out"},
		{"panic", fmt.Errorf("%w: oops", lambda.ErrHandlerPanic), "error", "Handler panicked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(config.LoggingConfig{Level: "info"}, &buf)

			lc := &lambda.Context{FunctionName: "fn", AwsRequestID: "req", MemoryLimitInMB: 256}
			Observer(logger)(lc, lambda.Report{
				RequestID:    "req",
				FunctionName: "fn",
				Source:       lambda.CompletedByReturn,
				Err:          tt.err,
				Duration:     15 * time.Millisecond,
			})

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["msg"])
			assert.Equal(t, "req", entry["request_id"])
			assert.Equal(t, "return", entry["completed_by"])
			assert.Equal(t, float64(15), entry["latency_ms"])
		})
	}
}

func TestForInvocation(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{}, &buf)

	ForInvocation(logger, &lambda.Context{AwsRequestID: "abc", FunctionName: "fn"}).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc", entry["request_id"])
	assert.Equal(t, "fn", entry["function"])
}
