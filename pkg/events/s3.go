package events

import (
	"fmt"
	"net/url"
)

// S3UserIdentity identifies the principal that caused the event.
type S3UserIdentity struct {
	PrincipalID string `json:"principalId"`
}

// S3RequestParameters holds parameters of the originating request.
type S3RequestParameters struct {
	SourceIPAddress string `json:"sourceIPAddress"`
}

// S3ResponseElements holds identifiers useful when contacting AWS support.
type S3ResponseElements struct {
	RequestID string `json:"x-amz-request-id"`
	HostID    string `json:"x-amz-id-2"`
}

// S3Bucket describes the bucket holding the object.
type S3Bucket struct {
	Name          string         `json:"name" validate:"required"`
	OwnerIdentity S3UserIdentity `json:"ownerIdentity"`
	Arn           string         `json:"arn"`
}

// S3Object describes the object the notification is about.
type S3Object struct {
	Key       string `json:"key" validate:"required"`
	Size      int64  `json:"size"`
	ETag      string `json:"eTag"`
	VersionID string `json:"versionId"`
	Sequencer string `json:"sequencer"`
}

// DecodedKey returns the object key with S3's URL encoding removed. Spaces
// arrive as '+'.
func (o S3Object) DecodedKey() (string, error) {
	key, err := url.QueryUnescape(o.Key)
	if err != nil {
		return "", fmt.Errorf("decoding object key %q: %w", o.Key, err)
	}
	return key, nil
}

// S3Entity is the s3 member of a notification record.
type S3Entity struct {
	SchemaVersion   string   `json:"s3SchemaVersion"`
	ConfigurationID string   `json:"configurationId"`
	Bucket          S3Bucket `json:"bucket"`
	Object          S3Object `json:"object"`
}

// S3EventRecord is one bucket notification.
type S3EventRecord struct {
	EventVersion      string              `json:"eventVersion"`
	EventSource       string              `json:"eventSource"`
	AWSRegion         string              `json:"awsRegion"`
	EventTime         string              `json:"eventTime"`
	EventName         string              `json:"eventName" validate:"required"`
	UserIdentity      S3UserIdentity      `json:"userIdentity"`
	RequestParameters S3RequestParameters `json:"requestParameters"`
	ResponseElements  S3ResponseElements  `json:"responseElements"`
	S3                S3Entity            `json:"s3"`
}

// S3CreateEvent is a batch of object notifications.
type S3CreateEvent struct {
	Records []S3EventRecord `json:"Records" validate:"dive"`
}
