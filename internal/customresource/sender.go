package customresource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"lambda-events/pkg/events"
)

// StatusError is returned when the response URL answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("response URL returned status %d: %s", e.StatusCode, e.Body)
}

// Sender delivers custom resource responses to the pre-signed ResponseURL of
// the event they answer.
type Sender struct {
	client *http.Client
	retry  *Backoff
	logger logrus.FieldLogger
}

// NewSender creates a sender. A nil client uses a client with a 30s timeout.
func NewSender(client *http.Client, retry *Backoff, logger logrus.FieldLogger) *Sender {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if retry == nil {
		retry = DefaultBackoff()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Sender{client: client, retry: retry, logger: logger}
}

// Send validates resp and PUTs it to the event's ResponseURL. The pre-signed
// URL is signed without a content type, so none is sent.
func (s *Sender) Send(ctx context.Context, event events.CustomResourceEvent, resp events.CustomResourceResponse) error {
	if err := events.Validate(resp); err != nil {
		return fmt.Errorf("invalid custom resource response: %w", err)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode custom resource response: %w", err)
	}

	common := event.Common()
	fields := logrus.Fields{
		"request_id":          common.RequestID,
		"logical_resource_id": common.LogicalResourceID,
		"physical_id":         resp.Common().PhysicalResourceID,
		"status":              string(resp.Status()),
	}

	attempts := 0
	err = s.retry.Retry(ctx, func(ctx context.Context) error {
		attempts++
		return s.put(ctx, common.ResponseURL, body)
	})
	fields["attempts"] = attempts

	if err != nil {
		s.logger.WithFields(fields).WithError(err).Error("Failed to deliver custom resource response")
		return fmt.Errorf("failed to deliver custom resource response: %w", err)
	}

	s.logger.WithFields(fields).Info("Custom resource response delivered")
	return nil
}

func (s *Sender) put(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "")
	req.ContentLength = int64(len(body))

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return &StatusError{StatusCode: res.StatusCode, Body: string(msg)}
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}
