package objects

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lambda-events/pkg/events"
)

type fakeS3 struct {
	objects map[string][]byte
	input   *s3.GetObjectInput
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = params
	body, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(body)),
		ContentType: aws.String("text/plain"),
		ETag:        aws.String(`"0123456789abcdef"`),
		VersionId:   params.VersionId,
	}, nil
}

func record(bucket, key, version string) events.S3EventRecord {
	return events.S3EventRecord{
		EventName: "ObjectCreated:Put",
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: bucket},
			Object: events.S3Object{Key: key, VersionID: version},
		},
	}
}

func TestFetchDecodesKey(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{"uploads/test/key with spaces": []byte("hello")}}
	f := NewFetcher(client, 0)

	obj, err := f.Fetch(context.Background(), record("uploads", "test%2Fkey+with+spaces", ""))
	require.NoError(t, err)

	assert.Equal(t, "test/key with spaces", obj.Key)
	assert.Equal(t, []byte("hello"), obj.Body)
	assert.Equal(t, "text/plain", obj.ContentType)
	assert.Equal(t, "0123456789abcdef", obj.ETag)
	assert.Nil(t, client.input.VersionId)
}

func TestFetchPinsVersion(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{"b/k": []byte("v2")}}
	obj, err := NewFetcher(client, 0).Fetch(context.Background(), record("b", "k", "v-2"))
	require.NoError(t, err)
	assert.Equal(t, "v-2", aws.ToString(client.input.VersionId))
	assert.Equal(t, "v-2", obj.VersionID)
}

func TestFetchErrors(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{"b/big": bytes.Repeat([]byte("x"), 16)}}
	f := NewFetcher(client, 8)

	_, err := f.Fetch(context.Background(), record("b", "big", ""))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = f.Fetch(context.Background(), record("b", "missing", ""))
	assert.ErrorContains(t, err, "s3://b/missing")

	_, err = f.Fetch(context.Background(), record("b", "%zz", ""))
	assert.Error(t, err)
}
