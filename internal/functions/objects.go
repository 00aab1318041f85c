package functions

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"lambda-events/internal/logging"
	"lambda-events/internal/objects"
	"lambda-events/pkg/events"
	"lambda-events/pkg/lambda"
)

// ObjectSummary describes one object named in an S3 notification.
type ObjectSummary struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	VersionID   string `json:"versionId,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	ETag        string `json:"etag"`
	Size        int    `json:"size"`
	Lines       int    `json:"lines"`
}

// NewObjectInspector returns a handler for S3 create notifications that
// downloads each new object and summarizes it. Any failed download fails the
// whole batch so that S3 retries the delivery.
func NewObjectInspector(fetcher *objects.Fetcher, logger logrus.FieldLogger) lambda.Handler[events.S3CreateEvent, []ObjectSummary] {
	return func(ctx context.Context, event events.S3CreateEvent, lc *lambda.Context, _ lambda.Callback[[]ObjectSummary]) ([]ObjectSummary, error) {
		summaries := make([]ObjectSummary, 0, len(event.Records))

		for _, record := range event.Records {
			obj, err := fetcher.Fetch(ctx, record)
			if err != nil {
				return nil, fmt.Errorf("inspecting %s record: %w", record.EventName, err)
			}

			s := ObjectSummary{
				Bucket:      obj.Bucket,
				Key:         obj.Key,
				VersionID:   obj.VersionID,
				ContentType: obj.ContentType,
				ETag:        obj.ETag,
				Size:        len(obj.Body),
				Lines:       countLines(obj.Body),
			}
			summaries = append(summaries, s)

			logging.ForInvocation(logger, lc).WithFields(logrus.Fields{
				"bucket": s.Bucket,
				"key":    s.Key,
				"size":   s.Size,
			}).Info("Object inspected")
		}
		return summaries, nil
	}
}

func countLines(body []byte) int {
	if len(body) == 0 {
		return 0
	}
	n := 0
	for _, b := range body {
		if b == '\n' {
			n++
		}
	}
	if body[len(body)-1] != '\n' {
		n++
	}
	return n
}
